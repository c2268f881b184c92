package aggregate

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"github.com/sells-group/propscan/internal/model"
)

// WriteCSV writes the combined table to w. The header row comes from the
// record's csv tags, so the column order is fixed by the schema.
func WriteCSV(w io.Writer, records []model.PlanRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	// An empty run still produces a header-only file.
	if len(records) == 0 {
		if err := enc.EncodeHeader(model.PlanRecord{}); err != nil {
			return eris.Wrap(err, "csv export: encode header")
		}
	}

	for i := range records {
		if err := enc.Encode(records[i]); err != nil {
			return eris.Wrap(err, "csv export: encode row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "csv export: flush")
}

// ExportCSV writes the combined table to a file.
func ExportCSV(path string, records []model.PlanRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv export: create file")
	}
	defer f.Close()

	return WriteCSV(f, records)
}
