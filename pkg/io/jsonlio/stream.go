package jsonlio

import (
	"bufio"
	"io"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	iox "github.com/wdm0006/rangerimpute/pkg/io/ioutils"
)

type StreamReader struct {
	r         *Reader
	schema    df.Schema
	chunkSize int
}

func NewStreamReader(path string, opt ReaderOptions, chunkSize int) (*StreamReader, io.Closer, error) {
	r, c, err := Open(path, opt)
	if err != nil {
		return nil, nil, err
	}
	schema, err := r.InferSchema()
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return &StreamReader{r: r, schema: schema, chunkSize: chunkSize}, c, nil
}

func (s *StreamReader) Next() (*df.Frame, error) {
	if s.chunkSize <= 0 {
		s.chunkSize = 1024
	}
	f := df.NewFrame(s.schema)
	for f.Rows() < s.chunkSize {
		m, err := s.r.next()
		if err == io.EOF {
			if f.Rows() == 0 {
				return nil, io.EOF
			}
			return f, nil
		}
		if err != nil {
			return nil, err
		}
		setRow(f, m)
	}
	return f, nil
}

func (s *StreamReader) Schema() df.Schema { return s.schema }

type StreamWriter struct {
	w   *bufio.Writer
	out io.WriteCloser
}

func NewStreamWriter(path string) (*StreamWriter, error) {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	return &StreamWriter{w: bufio.NewWriter(out), out: out}, nil
}

func (s *StreamWriter) Write(f *df.Frame) error {
	if err := writeRows(s.w, f); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *StreamWriter) Close() error {
	if err := s.w.Flush(); err != nil {
		_ = s.out.Close()
		return err
	}
	return s.out.Close()
}
