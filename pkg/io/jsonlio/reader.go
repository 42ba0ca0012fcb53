package jsonlio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	iox "github.com/wdm0006/rangerimpute/pkg/io/ioutils"
)

type ReaderOptions struct {
	SampleRows int
	// Types overrides inferred column types by name.
	Types map[string]df.ColumnSchema
}

type Reader struct {
	dec  *json.Decoder
	opt  ReaderOptions
	buf  []map[string]any
	rows int
}

// record is one decoded object with its keys in document order.
type record struct {
	keys   []string
	values map[string]any
}

// Open opens a JSON Lines file (or stdin for "-"), gzip aware.
func Open(path string, opt ReaderOptions) (*Reader, io.Closer, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, nil, err
	}
	return NewReaderFrom(rc, opt), rc, nil
}

func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	return &Reader{dec: json.NewDecoder(r), opt: opt}
}

// InferSchema samples objects and orders columns by first appearance.
func (r *Reader) InferSchema() (df.Schema, error) {
	max := r.opt.SampleRows
	if max <= 0 {
		max = 100
	}
	var keys []string
	seen := map[string]bool{}
	cells := map[string][]string{}
	for len(r.buf) < max {
		rec, err := r.decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return df.Schema{}, err
		}
		r.buf = append(r.buf, rec.values)
		for _, k := range rec.keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
			if s, ok := sampleText(rec.values[k]); ok {
				cells[k] = append(cells[k], s)
			}
		}
	}
	schema := df.Schema{Columns: make([]df.ColumnSchema, len(keys))}
	for i, k := range keys {
		schema.Columns[i] = df.ColumnSchema{Name: k, Type: iox.InferKind(cells[k]), Nullable: true}
	}
	return iox.Override(schema, r.opt.Types), nil
}

func (r *Reader) ReadAll(schema df.Schema) (*df.Frame, error) {
	f := df.NewFrame(schema)
	for {
		m, err := r.next()
		if err == io.EOF {
			return f, nil
		}
		if err != nil {
			return nil, err
		}
		setRow(f, m)
	}
}

func (r *Reader) next() (map[string]any, error) {
	if len(r.buf) > 0 {
		m := r.buf[0]
		r.buf = r.buf[1:]
		return m, nil
	}
	rec, err := r.decode()
	if err != nil {
		return nil, err
	}
	return rec.values, nil
}

func (r *Reader) decode() (record, error) {
	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		return record{}, err
	}
	r.rows++
	rec, err := parseObject(raw)
	if err != nil {
		return record{}, fmt.Errorf("jsonl record %d: %w", r.rows, err)
	}
	return rec, nil
}

func parseObject(raw []byte) (record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return record{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return record{}, fmt.Errorf("expected object, got %v", tok)
	}
	rec := record{values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return record{}, err
		}
		k := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return record{}, err
		}
		if _, dup := rec.values[k]; !dup {
			rec.keys = append(rec.keys, k)
		}
		rec.values[k] = v
	}
	return rec, nil
}

func sampleText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		b, _ := json.Marshal(t)
		return string(b), true
	}
}

func setRow(f *df.Frame, m map[string]any) {
	f.AppendNullRow()
	row := f.Rows() - 1
	for _, cs := range f.Schema().Columns {
		if v, ok := m[cs.Name]; ok {
			iox.SetValue(f, row, cs, v)
		}
	}
}
