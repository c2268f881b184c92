package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propscan/internal/model"
)

func fastOptions() HTTPOptions {
	return HTTPOptions{
		MaxRetries:          3,
		Timeout:             5 * time.Second,
		BackoffMin:          time.Millisecond,
		BackoffMax:          5 * time.Millisecond,
		RateLimitBackoffMin: time.Millisecond,
		RateLimitBackoffMax: 5 * time.Millisecond,
		PerHostRate:         1000,
		PerHostBurst:        1000,
	}
}

func srcFor(srv *httptest.Server) model.Source {
	return model.Source{Name: "Test Source", URL: srv.URL + "/pricing"}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>plans</body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	doc, err := f.Fetch(context.Background(), srcFor(srv))
	require.NoError(t, err)
	assert.Equal(t, model.KindStaticHTML, doc.Kind)
	assert.Contains(t, string(doc.Body), "plans")
	assert.Contains(t, doc.FinalURL, "/pricing")
	assert.False(t, doc.FetchedAt.IsZero())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	doc, err := f.Fetch(context.Background(), srcFor(srv))
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "ok")
	assert.Equal(t, 3, calls)
}

func TestFetchRotatesUserAgents(t *testing.T) {
	var mu sync.Mutex
	var agents []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		agents = append(agents, r.Header.Get("User-Agent"))
		mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Fetch(context.Background(), srcFor(srv))
	require.Error(t, err)

	require.Len(t, agents, 3)
	assert.NotEqual(t, agents[0], agents[1])
	assert.NotEqual(t, agents[1], agents[2])
}

func TestFetchDeniedShapesNextRequest(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	var secondReferer, secondChUa string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		if n == 2 {
			secondReferer = r.Header.Get("Referer")
			secondChUa = r.Header.Get("Sec-Ch-Ua")
		}
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Fetch(context.Background(), srcFor(srv))
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/", secondReferer)
	assert.NotEmpty(t, secondChUa)
}

func TestFetchTypedFailures(t *testing.T) {
	tests := []struct {
		status int
		kind   FailureKind
	}{
		{http.StatusForbidden, FailDenied},
		{http.StatusTooManyRequests, FailRateLimited},
		{http.StatusNotFound, FailHTTP},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		f := NewHTTPFetcher(fastOptions())
		_, err := f.Fetch(context.Background(), srcFor(srv))
		require.Error(t, err)

		fail, ok := AsFailure(err)
		require.True(t, ok)
		assert.Equal(t, tt.kind, fail.Kind)
		assert.Equal(t, tt.status, fail.StatusCode)
		srv.Close()
	}
}

func TestFetchDetectsChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>Checking your browser before accessing</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Fetch(context.Background(), srcFor(srv))
	require.Error(t, err)

	fail, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailDenied, fail.Kind)
}

func TestFetchContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Fetch(ctx, srcFor(srv))
	assert.Error(t, err)
}

func TestDetectBlock(t *testing.T) {
	resp := &http.Response{StatusCode: 403, Header: http.Header{"Cf-Ray": []string{"abc123"}}}
	blocked, kind := DetectBlock(resp, nil)
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, kind)

	resp = &http.Response{StatusCode: 200, Header: http.Header{}}
	blocked, kind = DetectBlock(resp, []byte("<html><noscript>enable javascript</noscript></html>"))
	assert.True(t, blocked)
	assert.Equal(t, BlockJSShell, kind)

	blocked, _ = DetectBlock(resp, []byte("<html><body>normal pricing page</body></html>"))
	assert.False(t, blocked)
}
