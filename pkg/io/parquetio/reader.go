package parquetio

import (
	"errors"
	"fmt"
	"io"
	"os"

	parquet "github.com/segmentio/parquet-go"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	iox "github.com/wdm0006/rangerimpute/pkg/io/ioutils"
)

type ReaderOptions struct {
	SampleRows int // rows sampled to type text columns; default 100
	// Types overrides the column types taken from the file schema.
	Types map[string]df.ColumnSchema
}

// Reader reads flat Parquet files. Physical types map to frame kinds;
// byte array columns are typed from a text sample like CSV.
type Reader struct {
	file   *os.File
	reader *parquet.Reader
	schema df.Schema
	buf    []parquet.Row
}

func OpenReader(path string, opt ReaderOptions) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("parquet open %s: %w", path, err)
	}
	schema, err := inferSchema(pf, opt)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Reader{file: f, reader: parquet.NewReader(pf), schema: schema}, nil
}

func (r *Reader) Close() error {
	_ = r.reader.Close()
	return r.file.Close()
}

func (r *Reader) Schema() df.Schema { return r.schema }

// NumRows reports the row count recorded in the file footer.
func (r *Reader) NumRows() int64 { return r.reader.NumRows() }

func (r *Reader) ReadAll() (*df.Frame, error) {
	f := df.NewFrame(r.schema)
	for {
		n, err := r.read(f, 1024)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return f, nil
		}
	}
}

// read appends up to max rows to f and returns how many were read.
func (r *Reader) read(f *df.Frame, max int) (int, error) {
	if cap(r.buf) < max {
		r.buf = make([]parquet.Row, max)
	}
	buf := r.buf[:max]
	n, err := r.reader.ReadRows(buf)
	for i := 0; i < n; i++ {
		setRow(f, r.schema, buf[i])
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("parquet read: %w", err)
	}
	return n, nil
}

func inferSchema(pf *parquet.File, opt ReaderOptions) (df.Schema, error) {
	sr := parquet.NewReader(pf)
	defer func() { _ = sr.Close() }()
	fields := sr.Schema().Fields()
	schema := df.Schema{Columns: make([]df.ColumnSchema, len(fields))}
	text := false
	for i, fd := range fields {
		if !fd.Leaf() || fd.Repeated() {
			return df.Schema{}, fmt.Errorf("parquet column %s: nested and repeated columns are not supported", fd.Name())
		}
		cs := df.ColumnSchema{Name: fd.Name(), Nullable: true}
		switch fd.Type().Kind() {
		case parquet.Boolean:
			cs.Type = df.KindBool
		case parquet.Int32, parquet.Int64:
			cs.Type = df.KindInt
		case parquet.Float, parquet.Double:
			cs.Type = df.KindFloat
		default:
			cs.Type = df.KindInvalid
			text = true
		}
		schema.Columns[i] = cs
	}
	if text {
		max := opt.SampleRows
		if max <= 0 {
			max = 100
		}
		rows := make([]parquet.Row, max)
		n, err := sr.ReadRows(rows)
		if err != nil && !errors.Is(err, io.EOF) {
			return df.Schema{}, err
		}
		cells := make([][]string, len(fields))
		for _, row := range rows[:n] {
			for _, v := range row {
				if c := v.Column(); c >= 0 && c < len(cells) && !v.IsNull() {
					cells[c] = append(cells[c], string(v.ByteArray()))
				}
			}
		}
		for i := range schema.Columns {
			if schema.Columns[i].Type == df.KindInvalid {
				schema.Columns[i].Type = iox.InferKind(cells[i])
			}
		}
	}
	return iox.Override(schema, opt.Types), nil
}

func setRow(f *df.Frame, s df.Schema, row parquet.Row) {
	f.AppendNullRow()
	r := f.Rows() - 1
	for _, v := range row {
		c := v.Column()
		if c < 0 || c >= len(s.Columns) || v.IsNull() {
			continue
		}
		iox.SetValue(f, r, s.Columns[c], valueOf(v))
	}
}

func valueOf(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	}
	return v.String()
}
