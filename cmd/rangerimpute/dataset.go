package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wdm0006/rangerimpute/pkg/config"
	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/io/csvio"
	"github.com/wdm0006/rangerimpute/pkg/io/jsonlio"
	"github.com/wdm0006/rangerimpute/pkg/io/parquetio"
)

const sampleRows = 1000

func readFrame(src config.Source, types map[string]df.ColumnSchema) (*df.Frame, error) {
	switch src.Format() {
	case "csv":
		r, c, err := csvio.Open(src.Path, csvOptions(src, types))
		if err != nil {
			return nil, err
		}
		defer func() { _ = c.Close() }()
		schema, _, err := r.InferSchema()
		if err != nil {
			return nil, err
		}
		return r.ReadAll(schema)
	case "jsonl":
		r, c, err := jsonlio.Open(src.Path, jsonlio.ReaderOptions{SampleRows: sampleRows, Types: types})
		if err != nil {
			return nil, err
		}
		defer func() { _ = c.Close() }()
		schema, err := r.InferSchema()
		if err != nil {
			return nil, err
		}
		return r.ReadAll(schema)
	case "parquet":
		r, err := parquetio.OpenReader(src.Path, parquetio.ReaderOptions{SampleRows: sampleRows, Types: types})
		if err != nil {
			return nil, err
		}
		defer func() { _ = r.Close() }()
		return r.ReadAll()
	}
	return nil, fmt.Errorf("unsupported input type %q", src.Format())
}

func writeFrame(dst config.Source, f *df.Frame) error {
	switch dst.Format() {
	case "csv":
		return csvio.WriteAll(dst.Path, f, csvio.WriterOptions{Delimiter: dst.Comma()})
	case "jsonl":
		return jsonlio.WriteAll(dst.Path, f)
	case "parquet":
		return parquetio.WriteAll(dst.Path, f)
	}
	return fmt.Errorf("unsupported output type %q", dst.Format())
}

// openStream opens src for chunked reading. The returned closer releases
// the underlying file.
func openStream(src config.Source, types map[string]df.ColumnSchema) (df.ChunkSource, df.Schema, io.Closer, error) {
	chunk := src.ChunkSize
	if chunk <= 0 {
		chunk = 10000
	}
	switch src.Format() {
	case "csv":
		s, c, err := csvio.NewStreamReader(src.Path, csvOptions(src, types), chunk)
		if err != nil {
			return nil, df.Schema{}, nil, err
		}
		return s, s.Schema(), c, nil
	case "jsonl":
		s, c, err := jsonlio.NewStreamReader(src.Path, jsonlio.ReaderOptions{SampleRows: sampleRows, Types: types}, chunk)
		if err != nil {
			return nil, df.Schema{}, nil, err
		}
		return s, s.Schema(), c, nil
	case "parquet":
		s, err := parquetio.NewStreamReader(src.Path, chunk, parquetio.ReaderOptions{SampleRows: sampleRows, Types: types})
		if err != nil {
			return nil, df.Schema{}, nil, err
		}
		return s, s.Schema(), s, nil
	}
	return nil, df.Schema{}, nil, fmt.Errorf("unsupported input type %q", src.Format())
}

func createSink(dst config.Source, schema df.Schema) (df.ChunkSink, error) {
	switch dst.Format() {
	case "csv":
		return csvio.NewStreamWriter(dst.Path, schema, csvio.WriterOptions{Delimiter: dst.Comma()})
	case "jsonl":
		return jsonlio.NewStreamWriter(dst.Path)
	case "parquet":
		return parquetio.NewStreamWriter(dst.Path)
	}
	return nil, fmt.Errorf("unsupported output type %q", dst.Format())
}

func csvOptions(src config.Source, types map[string]df.ColumnSchema) csvio.ReaderOptions {
	return csvio.ReaderOptions{HasHeader: src.Header(), Delimiter: src.Comma(), SampleRows: sampleRows, Types: types}
}

// numbered inserts ".i" before the extension of path, keeping a trailing
// .gz in place: out.csv.gz becomes out.2.csv.gz.
func numbered(path string, i int) string {
	if path == "" || path == "-" {
		return path
	}
	gz := ""
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = path[len(path)-3:]
		path = path[:len(path)-3]
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s.%d%s%s", strings.TrimSuffix(path, ext), i, ext, gz)
}
