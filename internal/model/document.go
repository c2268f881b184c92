package model

import "time"

// DocumentKind describes how a RawDocument was obtained.
type DocumentKind string

const (
	KindStaticHTML   DocumentKind = "static_html"
	KindRenderedHTML DocumentKind = "rendered_html"
	KindJSON         DocumentKind = "json"
)

// RawDocument is the fetched content of a Source. Owned by the fetch call
// that produced it; consumed by the extraction chain; never mutated.
type RawDocument struct {
	Body      []byte
	FinalURL  string
	FetchedAt time.Time
	Kind      DocumentKind
}
