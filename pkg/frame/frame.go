package frame

import (
	"fmt"
	"time"
)

// Schema describes the logical shape of a dataset.
type Schema struct {
	Columns []ColumnSchema
}

// ColumnSchema declares one column. Levels and Ordered only apply to
// KindCategorical; an empty level table is grown from the data on Set.
type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
	Levels   []string
	Ordered  bool
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindDate
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindDate:
		return "date"
	case KindCategorical:
		return "categorical"
	default:
		return "invalid"
	}
}

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
	Clone() Column
}

type BoolColumn struct {
	name  string
	data  []bool
	nulls []bool
}

func NewBoolColumn(name string, n int) *BoolColumn {
	return &BoolColumn{name: name, data: make([]bool, n), nulls: make([]bool, n)}
}
func (c *BoolColumn) Name() string           { return c.name }
func (c *BoolColumn) Kind() Kind             { return KindBool }
func (c *BoolColumn) Len() int               { return len(c.data) }
func (c *BoolColumn) IsNull(i int) bool      { return c.nulls[i] }
func (c *BoolColumn) SetNull(i int)          { c.nulls[i] = true }
func (c *BoolColumn) Get(i int) (bool, bool) { return c.data[i], !c.nulls[i] }
func (c *BoolColumn) Set(i int, v bool)      { c.data[i] = v; c.nulls[i] = false }
func (c *BoolColumn) AppendNull()            { c.data = append(c.data, false); c.nulls = append(c.nulls, true) }
func (c *BoolColumn) Append(v bool)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *BoolColumn) Clone() Column {
	return &BoolColumn{name: c.name, data: append([]bool(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}

type IntColumn struct {
	name  string
	data  []int64
	nulls []bool
}

func NewIntColumn(name string, n int) *IntColumn {
	return &IntColumn{name: name, data: make([]int64, n), nulls: make([]bool, n)}
}
func (c *IntColumn) Name() string            { return c.name }
func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.data) }
func (c *IntColumn) IsNull(i int) bool       { return c.nulls[i] }
func (c *IntColumn) SetNull(i int)           { c.nulls[i] = true }
func (c *IntColumn) Get(i int) (int64, bool) { return c.data[i], !c.nulls[i] }
func (c *IntColumn) Set(i int, v int64)      { c.data[i] = v; c.nulls[i] = false }
func (c *IntColumn) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *IntColumn) Append(v int64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *IntColumn) Clone() Column {
	return &IntColumn{name: c.name, data: append([]int64(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}

type FloatColumn struct {
	name  string
	data  []float64
	nulls []bool
}

func NewFloatColumn(name string, n int) *FloatColumn {
	return &FloatColumn{name: name, data: make([]float64, n), nulls: make([]bool, n)}
}
func (c *FloatColumn) Name() string              { return c.name }
func (c *FloatColumn) Kind() Kind                { return KindFloat }
func (c *FloatColumn) Len() int                  { return len(c.data) }
func (c *FloatColumn) IsNull(i int) bool         { return c.nulls[i] }
func (c *FloatColumn) SetNull(i int)             { c.nulls[i] = true }
func (c *FloatColumn) Get(i int) (float64, bool) { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) Set(i int, v float64)      { c.data[i] = v; c.nulls[i] = false }
func (c *FloatColumn) AppendNull()               { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *FloatColumn) Append(v float64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *FloatColumn) Clone() Column {
	return &FloatColumn{name: c.name, data: append([]float64(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}

type StringColumn struct {
	name  string
	data  []string
	nulls []bool
}

func NewStringColumn(name string, n int) *StringColumn {
	return &StringColumn{name: name, data: make([]string, n), nulls: make([]bool, n)}
}
func (c *StringColumn) Name() string             { return c.name }
func (c *StringColumn) Kind() Kind               { return KindString }
func (c *StringColumn) Len() int                 { return len(c.data) }
func (c *StringColumn) IsNull(i int) bool        { return c.nulls[i] }
func (c *StringColumn) SetNull(i int)            { c.nulls[i] = true }
func (c *StringColumn) Get(i int) (string, bool) { return c.data[i], !c.nulls[i] }
func (c *StringColumn) Set(i int, v string)      { c.data[i] = v; c.nulls[i] = false }
func (c *StringColumn) AppendNull()              { c.data = append(c.data, ""); c.nulls = append(c.nulls, true) }
func (c *StringColumn) Append(v string)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *StringColumn) Clone() Column {
	return &StringColumn{name: c.name, data: append([]string(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}

// TimeColumn holds instants. DateColumn shares the layout but its values are
// truncated to midnight UTC.
type TimeColumn struct {
	name  string
	kind  Kind
	data  []time.Time
	nulls []bool
}

func NewTimeColumn(name string, n int) *TimeColumn {
	return &TimeColumn{name: name, kind: KindTime, data: make([]time.Time, n), nulls: make([]bool, n)}
}

func NewDateColumn(name string, n int) *TimeColumn {
	return &TimeColumn{name: name, kind: KindDate, data: make([]time.Time, n), nulls: make([]bool, n)}
}

func (c *TimeColumn) Name() string                { return c.name }
func (c *TimeColumn) Kind() Kind                  { return c.kind }
func (c *TimeColumn) Len() int                    { return len(c.data) }
func (c *TimeColumn) IsNull(i int) bool           { return c.nulls[i] }
func (c *TimeColumn) SetNull(i int)               { c.nulls[i] = true }
func (c *TimeColumn) Get(i int) (time.Time, bool) { return c.data[i], !c.nulls[i] }
func (c *TimeColumn) Set(i int, v time.Time) {
	c.data[i] = c.norm(v)
	c.nulls[i] = false
}
func (c *TimeColumn) AppendNull() {
	c.data = append(c.data, time.Time{})
	c.nulls = append(c.nulls, true)
}
func (c *TimeColumn) Append(v time.Time) {
	c.data = append(c.data, c.norm(v))
	c.nulls = append(c.nulls, false)
}
func (c *TimeColumn) Clone() Column {
	return &TimeColumn{name: c.name, kind: c.kind, data: append([]time.Time(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}

func (c *TimeColumn) norm(v time.Time) time.Time {
	if c.kind != KindDate {
		return v
	}
	y, m, d := v.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CategoricalColumn stores integer codes into a level table.
type CategoricalColumn struct {
	name    string
	levels  []string
	lookup  map[string]int
	ordered bool
	codes   []int
	nulls   []bool
}

func NewCategoricalColumn(name string, n int, levels []string, ordered bool) *CategoricalColumn {
	c := &CategoricalColumn{name: name, ordered: ordered, codes: make([]int, n), nulls: make([]bool, n), lookup: make(map[string]int, len(levels))}
	for _, l := range levels {
		c.level(l)
	}
	return c
}

func (c *CategoricalColumn) Name() string      { return c.name }
func (c *CategoricalColumn) Kind() Kind        { return KindCategorical }
func (c *CategoricalColumn) Len() int          { return len(c.codes) }
func (c *CategoricalColumn) IsNull(i int) bool { return c.nulls[i] }
func (c *CategoricalColumn) SetNull(i int)     { c.nulls[i] = true }
func (c *CategoricalColumn) Ordered() bool     { return c.ordered }

// Levels returns the level table; index == code.
func (c *CategoricalColumn) Levels() []string { return c.levels }

func (c *CategoricalColumn) Code(i int) (int, bool) { return c.codes[i], !c.nulls[i] }

func (c *CategoricalColumn) Get(i int) (string, bool) {
	if c.nulls[i] {
		return "", false
	}
	return c.levels[c.codes[i]], true
}

// Set assigns a level, growing the level table when v is new.
func (c *CategoricalColumn) Set(i int, v string) {
	c.codes[i] = c.level(v)
	c.nulls[i] = false
}

// SetCode assigns an existing code; out-of-range codes are rejected.
func (c *CategoricalColumn) SetCode(i, code int) error {
	if code < 0 || code >= len(c.levels) {
		return fmt.Errorf("column %s: code %d outside %d levels", c.name, code, len(c.levels))
	}
	c.codes[i] = code
	c.nulls[i] = false
	return nil
}

func (c *CategoricalColumn) AppendNull() { c.codes = append(c.codes, 0); c.nulls = append(c.nulls, true) }
func (c *CategoricalColumn) Append(v string) {
	c.codes = append(c.codes, c.level(v))
	c.nulls = append(c.nulls, false)
}

func (c *CategoricalColumn) Clone() Column {
	out := NewCategoricalColumn(c.name, 0, c.levels, c.ordered)
	out.codes = append([]int(nil), c.codes...)
	out.nulls = append([]bool(nil), c.nulls...)
	return out
}

func (c *CategoricalColumn) level(v string) int {
	if code, ok := c.lookup[v]; ok {
		return code
	}
	c.levels = append(c.levels, v)
	c.lookup[v] = len(c.levels) - 1
	return len(c.levels) - 1
}

// Frame is a columnar container for tabular data.
type Frame struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

func NewFrame(s Schema) *Frame {
	f := &Frame{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		f.cols[i] = newColumn(cs)
		f.index[cs.Name] = i
	}
	return f
}

func newColumn(cs ColumnSchema) Column {
	switch cs.Type {
	case KindBool:
		return NewBoolColumn(cs.Name, 0)
	case KindInt:
		return NewIntColumn(cs.Name, 0)
	case KindFloat:
		return NewFloatColumn(cs.Name, 0)
	case KindString:
		return NewStringColumn(cs.Name, 0)
	case KindTime:
		return NewTimeColumn(cs.Name, 0)
	case KindDate:
		return NewDateColumn(cs.Name, 0)
	case KindCategorical:
		return NewCategoricalColumn(cs.Name, 0, cs.Levels, cs.Ordered)
	default:
		panic("invalid column kind")
	}
}

// FromColumns builds a frame around existing columns, which must share a length.
func FromColumns(cols ...Column) (*Frame, error) {
	f := &Frame{cols: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := f.index[c.Name()]; dup {
			return nil, fmt.Errorf("duplicate column: %s", c.Name())
		}
		if i > 0 && c.Len() != cols[0].Len() {
			return nil, fmt.Errorf("column %s has %d rows, want %d", c.Name(), c.Len(), cols[0].Len())
		}
		cs := ColumnSchema{Name: c.Name(), Type: c.Kind(), Nullable: true}
		if cc, ok := c.(*CategoricalColumn); ok {
			cs.Levels = cc.Levels()
			cs.Ordered = cc.Ordered()
		}
		f.schema.Columns = append(f.schema.Columns, cs)
		f.index[c.Name()] = i
	}
	if len(cols) > 0 {
		f.nrows = cols[0].Len()
	}
	return f, nil
}

func (f *Frame) Schema() Schema      { return f.schema }
func (f *Frame) Rows() int           { return f.nrows }
func (f *Frame) Cols() int           { return len(f.cols) }
func (f *Frame) Column(i int) Column { return f.cols[i] }

func (f *Frame) ColumnByName(name string) (Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Names lists column names in schema order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name()
	}
	return out
}

// NullCount reports the number of missing cells in a column, or -1 if absent.
func (f *Frame) NullCount(name string) int {
	c, ok := f.ColumnByName(name)
	if !ok {
		return -1
	}
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Clone deep-copies every column.
func (f *Frame) Clone() *Frame {
	out := &Frame{schema: f.schema, cols: make([]Column, len(f.cols)), index: make(map[string]int, len(f.index)), nrows: f.nrows}
	out.schema.Columns = append([]ColumnSchema(nil), f.schema.Columns...)
	for i, c := range f.cols {
		out.cols[i] = c.Clone()
		out.index[c.Name()] = i
	}
	return out
}

// AppendNullRow appends a row with all-null values.
func (f *Frame) AppendNullRow() {
	for _, c := range f.cols {
		switch col := c.(type) {
		case *BoolColumn:
			col.AppendNull()
		case *IntColumn:
			col.AppendNull()
		case *FloatColumn:
			col.AppendNull()
		case *StringColumn:
			col.AppendNull()
		case *TimeColumn:
			col.AppendNull()
		case *CategoricalColumn:
			col.AppendNull()
		default:
			panic("unknown column type")
		}
	}
	f.nrows++
}

// SetCell sets a single cell value by name (row must exist).
func (f *Frame) SetCell(row int, name string, v any) error {
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("unknown column: %s", name)
	}
	c := f.cols[i]
	if v == nil {
		c.SetNull(row)
		return nil
	}
	switch col := c.(type) {
	case *BoolColumn:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("column %s expects bool", name)
		}
		col.Set(row, b)
	case *IntColumn:
		switch t := v.(type) {
		case int:
			col.Set(row, int64(t))
		case int64:
			col.Set(row, t)
		case float64:
			col.Set(row, int64(t))
		default:
			return fmt.Errorf("column %s expects int/int64", name)
		}
	case *FloatColumn:
		switch t := v.(type) {
		case float32:
			col.Set(row, float64(t))
		case float64:
			col.Set(row, t)
		case int:
			col.Set(row, float64(t))
		case int64:
			col.Set(row, float64(t))
		default:
			return fmt.Errorf("column %s expects float64", name)
		}
	case *StringColumn:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string", name)
		}
		col.Set(row, s)
	case *CategoricalColumn:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string level", name)
		}
		col.Set(row, s)
	case *TimeColumn:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("column %s expects time.Time", name)
		}
		col.Set(row, t)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}

// Value returns a cell as an untyped value, nil when missing.
func (f *Frame) Value(row int, name string) any {
	c, ok := f.ColumnByName(name)
	if !ok || c.IsNull(row) {
		return nil
	}
	switch col := c.(type) {
	case *BoolColumn:
		v, _ := col.Get(row)
		return v
	case *IntColumn:
		v, _ := col.Get(row)
		return v
	case *FloatColumn:
		v, _ := col.Get(row)
		return v
	case *StringColumn:
		v, _ := col.Get(row)
		return v
	case *CategoricalColumn:
		v, _ := col.Get(row)
		return v
	case *TimeColumn:
		v, _ := col.Get(row)
		return v
	}
	return nil
}
