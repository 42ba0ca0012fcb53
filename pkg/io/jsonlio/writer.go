package jsonlio

import (
	"bufio"
	"encoding/json"
	"io"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	iox "github.com/wdm0006/rangerimpute/pkg/io/ioutils"
)

// WriteAll writes one JSON object per row with keys in column order.
// Missing cells are written as null.
func WriteAll(path string, f *df.Frame) (err error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(out)
	if err := writeRows(w, f); err != nil {
		return err
	}
	return w.Flush()
}

func writeRows(w io.Writer, f *df.Frame) error {
	cols := f.Schema().Columns
	keys := make([][]byte, len(cols))
	for i, cs := range cols {
		b, err := json.Marshal(cs.Name)
		if err != nil {
			return err
		}
		keys[i] = b
	}
	var line []byte
	for r := 0; r < f.Rows(); r++ {
		line = append(line[:0], '{')
		for i, cs := range cols {
			if i > 0 {
				line = append(line, ',')
			}
			line = append(line, keys[i]...)
			line = append(line, ':')
			v, _ := iox.Value(f, r, cs)
			b, err := json.Marshal(v)
			if err != nil {
				return err
			}
			line = append(line, b...)
		}
		line = append(line, '}', '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return nil
}
