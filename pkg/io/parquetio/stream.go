package parquetio

import (
	"io"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

// StreamReader reads Parquet rows in chunks as Frames.
type StreamReader struct {
	r         *Reader
	chunkSize int
}

func NewStreamReader(path string, chunkSize int, opt ReaderOptions) (*StreamReader, error) {
	r, err := OpenReader(path, opt)
	if err != nil {
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	return &StreamReader{r: r, chunkSize: chunkSize}, nil
}

func (s *StreamReader) Close() error { return s.r.Close() }

func (s *StreamReader) Schema() df.Schema { return s.r.schema }

func (s *StreamReader) Next() (*df.Frame, error) {
	f := df.NewFrame(s.r.schema)
	n, err := s.r.read(f, s.chunkSize)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	return f, nil
}

// StreamWriter writes Frames to a Parquet file incrementally. The schema is
// fixed by the first frame.
type StreamWriter struct {
	path string
	w    *fileWriter
}

func NewStreamWriter(path string) (*StreamWriter, error) {
	return &StreamWriter{path: path}, nil
}

func (s *StreamWriter) Write(fr *df.Frame) error {
	if s.w == nil {
		w, err := newFileWriter(s.path, fr.Schema())
		if err != nil {
			return err
		}
		s.w = w
	}
	return s.w.write(fr)
}

func (s *StreamWriter) Close() error {
	if s.w == nil {
		return nil
	}
	return s.w.close()
}
