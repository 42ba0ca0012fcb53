package parquetio

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/source"
	pw "github.com/xitongsys/parquet-go/writer"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	iox "github.com/wdm0006/rangerimpute/pkg/io/ioutils"
)

func parquetSchemaJSON(s df.Schema) string {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=schema, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case df.KindFloat:
			tag += "DOUBLE"
		case df.KindInt:
			tag += "INT64"
		case df.KindBool:
			tag += "BOOLEAN"
		default:
			// strings, levels, dates and instants travel as UTF8 text
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, _ := json.Marshal(sc)
	return string(b)
}

type fileWriter struct {
	fw     source.ParquetFile
	writer *pw.JSONWriter
	schema df.Schema
	line   bytes.Buffer
}

func newFileWriter(path string, s df.Schema) (*fileWriter, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, err
	}
	writer, err := pw.NewJSONWriter(parquetSchemaJSON(s), fw, 4)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet writer init: %w", err)
	}
	return &fileWriter{fw: fw, writer: writer, schema: s}, nil
}

// write encodes each row as a JSON object keyed by column name.
func (w *fileWriter) write(f *df.Frame) error {
	enc := json.NewEncoder(&w.line)
	for r := 0; r < f.Rows(); r++ {
		rec := make(map[string]any, len(w.schema.Columns))
		for _, cs := range w.schema.Columns {
			if v, ok := iox.Value(f, r, cs); ok {
				rec[cs.Name] = v
			} else {
				rec[cs.Name] = nil
			}
		}
		w.line.Reset()
		if err := enc.Encode(rec); err != nil {
			return err
		}
		if err := w.writer.Write(w.line.String()); err != nil {
			return fmt.Errorf("parquet write row %d: %w", r, err)
		}
	}
	return nil
}

func (w *fileWriter) close() error {
	if err := w.writer.WriteStop(); err != nil {
		_ = w.fw.Close()
		return fmt.Errorf("parquet write stop: %w", err)
	}
	return w.fw.Close()
}

// WriteAll writes a Frame to a Parquet file using parquet-go JSONWriter.
func WriteAll(path string, f *df.Frame) error {
	w, err := newFileWriter(path, f.Schema())
	if err != nil {
		return err
	}
	if err := w.write(f); err != nil {
		_ = w.close()
		return err
	}
	return w.close()
}
