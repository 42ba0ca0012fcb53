package csvio

import (
	"encoding/csv"
	"io"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	iox "github.com/wdm0006/rangerimpute/pkg/io/ioutils"
)

// StreamReader reads CSV into Frame chunks of up to chunkSize rows.
type StreamReader struct {
	r         *Reader
	schema    df.Schema
	chunkSize int
}

// NewStreamReader opens the file, infers schema (respecting options), and returns a StreamReader.
func NewStreamReader(path string, opt ReaderOptions, chunkSize int) (*StreamReader, io.Closer, error) {
	rr, c, err := Open(path, opt)
	if err != nil {
		return nil, nil, err
	}
	schema, _, err := rr.InferSchema()
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return &StreamReader{r: rr, schema: schema, chunkSize: chunkSize}, c, nil
}

// Next returns the next chunk frame or io.EOF when complete.
func (s *StreamReader) Next() (*df.Frame, error) {
	if s.chunkSize <= 0 {
		s.chunkSize = 1024
	}
	f := df.NewFrame(s.schema)
	for f.Rows() < s.chunkSize {
		rec, err := s.r.next()
		if err == io.EOF {
			if f.Rows() == 0 {
				return nil, io.EOF
			}
			return f, nil
		}
		if err != nil {
			return nil, err
		}
		if err := s.r.append(f, s.schema, rec); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *StreamReader) Schema() df.Schema { return s.schema }

// StreamWriter appends frames to a CSV file with a header (written once).
type StreamWriter struct {
	w           *csv.Writer
	out         io.WriteCloser
	wroteHeader bool
	schema      df.Schema
}

func NewStreamWriter(path string, schema df.Schema, opt WriterOptions) (*StreamWriter, error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(out)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}
	return &StreamWriter{w: w, out: out, schema: schema}, nil
}

func (s *StreamWriter) Write(fr *df.Frame) error {
	if !s.wroteHeader {
		if err := s.w.Write(header(s.schema)); err != nil {
			return err
		}
		s.wroteHeader = true
	}
	if err := writeRows(s.w, s.schema, fr); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *StreamWriter) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.out.Close()
		return err
	}
	return s.out.Close()
}
