package frame

import (
	"context"
	"errors"
	"io"
)

// ChunkSource yields frames in chunks until io.EOF.
type ChunkSource interface {
	Next() (*Frame, error)
}

// ChunkSink consumes frames, typically writing them out.
type ChunkSink interface {
	Write(*Frame) error
	Close() error
}

// RunStream pulls chunks from src, applies the pipeline, and writes to sink.
// Only row-local transforms are meaningful here; whole-frame work such as
// chained imputation needs the full dataset in memory.
func RunStream(ctx context.Context, p *Pipeline, src ChunkSource, sink ChunkSink) (rows int, err error) {
	defer func() {
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		f, err := src.Next()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		out, err := p.Run(ctx, f)
		if err != nil {
			return rows, err
		}
		if err := sink.Write(out); err != nil {
			return rows, err
		}
		rows += out.Rows()
	}
}
