package csvio

import (
	"encoding/csv"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	iox "github.com/wdm0006/rangerimpute/pkg/io/ioutils"
)

type WriterOptions struct {
	Delimiter rune // default ','
}

// WriteAll writes a Frame to a CSV file with headers. Missing cells are
// written empty.
func WriteAll(path string, f *df.Frame, opt WriterOptions) (err error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(out)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}
	schema := f.Schema()
	if err := w.Write(header(schema)); err != nil {
		return err
	}
	if err := writeRows(w, schema, f); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func header(s df.Schema) []string {
	hdr := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		hdr[i] = cs.Name
	}
	return hdr
}

func writeRows(w *csv.Writer, s df.Schema, f *df.Frame) error {
	row := make([]string, len(s.Columns))
	for r := 0; r < f.Rows(); r++ {
		for c, cs := range s.Columns {
			row[c] = iox.Text(f, r, cs)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
