// Package profile summarizes a dataset column by column: presence, distinct
// values, numeric ranges and level frequencies. The CLI prints it before
// imputing so users can see which columns will be modelled.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
	"github.com/wdm0006/rangerimpute/pkg/types"
)

type NumStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Sum   float64 `json:"sum"`
	SumSq float64 `json:"-"`
	n     int
}

func (s *NumStats) add(v float64) {
	s.n++
	s.Min = math.Min(s.Min, v)
	s.Max = math.Max(s.Max, v)
	s.Sum += v
	s.SumSq += v * v
}

func (s *NumStats) Mean() float64 {
	if s.n == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.n)
}

// Std is the population standard deviation.
func (s *NumStats) Std() float64 {
	if s.n == 0 {
		return math.NaN()
	}
	m := s.Mean()
	return math.Sqrt(math.Max(s.SumSq/float64(s.n)-m*m, 0))
}

type BoolStats struct {
	True  int `json:"true"`
	False int `json:"false"`
}

// ColumnProfile holds running counts for one column. Instants feed Num as
// Unix seconds.
type ColumnProfile struct {
	Name     string
	Kind     df.Kind
	Tag      types.Tag
	Count    int
	Nulls    int
	Num      *NumStats
	Bool     *BoolStats
	Freqs    map[string]int
	distinct map[any]struct{}
}

func (cp *ColumnProfile) Distinct() int { return len(cp.distinct) }

func (cp *ColumnProfile) MissingRate() float64 {
	if n := cp.Count + cp.Nulls; n > 0 {
		return float64(cp.Nulls) / float64(n)
	}
	return 0
}

type Collector struct {
	cols  []ColumnProfile
	index map[string]int
	topK  int
}

func NewCollector(schema df.Schema, topK int) *Collector {
	c := &Collector{index: make(map[string]int), topK: topK}
	c.cols = make([]ColumnProfile, len(schema.Columns))
	for i, cs := range schema.Columns {
		cp := ColumnProfile{Name: cs.Name, Kind: cs.Type, distinct: map[any]struct{}{}}
		switch cs.Type {
		case df.KindFloat, df.KindInt, df.KindTime, df.KindDate:
			cp.Num = &NumStats{Min: math.Inf(1), Max: math.Inf(-1)}
		case df.KindBool:
			cp.Bool = &BoolStats{}
		}
		if cs.Type == df.KindString || cs.Type == df.KindCategorical || cs.Type == df.KindBool {
			cp.Freqs = make(map[string]int)
		}
		c.cols[i] = cp
		c.index[cs.Name] = i
	}
	return c
}

// Columns returns the profiles in schema order.
func (c *Collector) Columns() []ColumnProfile { return c.cols }

// ConsumeFrame folds a frame (or a stream chunk) into the running counts.
// Columns not in the collector's schema are ignored.
func (c *Collector) ConsumeFrame(f *df.Frame) {
	for i := 0; i < f.Cols(); i++ {
		col := f.Column(i)
		idx, ok := c.index[col.Name()]
		if !ok {
			continue
		}
		cp := &c.cols[idx]
		if tag, err := types.Classify(col); err == nil {
			cp.Tag = tag
		}
		for r := 0; r < col.Len(); r++ {
			v := f.Value(r, col.Name())
			if x, isFloat := v.(float64); v == nil || (isFloat && math.IsNaN(x)) {
				cp.Nulls++
				continue
			}
			cp.Count++
			switch t := v.(type) {
			case float64:
				cp.Num.add(t)
			case int64:
				cp.Num.add(float64(t))
			case time.Time:
				cp.Num.add(float64(t.Unix()))
				v = t.UnixNano()
			case bool:
				if t {
					cp.Bool.True++
				} else {
					cp.Bool.False++
				}
			}
			cp.distinct[v] = struct{}{}
			if cp.Freqs != nil {
				cp.Freqs[fmt.Sprint(v)]++
			}
		}
	}
}

type kv struct {
	k string
	v int
}

func (c *Collector) top(freqs map[string]int) []kv {
	arr := make([]kv, 0, len(freqs))
	for k, v := range freqs {
		arr = append(arr, kv{k, v})
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].v != arr[j].v {
			return arr[i].v > arr[j].v
		}
		return arr[i].k < arr[j].k
	})
	if c.topK > 0 && c.topK < len(arr) {
		arr = arr[:c.topK]
	}
	return arr
}

func (c *Collector) ReportText() string {
	var b strings.Builder
	b.WriteString("Profile Summary\n")
	for i := range c.cols {
		cp := &c.cols[i]
		fmt.Fprintf(&b, "- %s (%v, %v): count=%d nulls=%d missing=%.1f%% distinct=%d", cp.Name, cp.Kind, cp.Tag, cp.Count, cp.Nulls, 100*cp.MissingRate(), cp.Distinct())
		switch {
		case cp.Num != nil && cp.Count > 0 && (cp.Kind == df.KindTime || cp.Kind == df.KindDate):
			fmt.Fprintf(&b, " min=%s max=%s", instant(cp.Num.Min, cp.Kind), instant(cp.Num.Max, cp.Kind))
		case cp.Num != nil && cp.Count > 0:
			fmt.Fprintf(&b, " min=%.6g max=%.6g mean=%.6g std=%.6g", cp.Num.Min, cp.Num.Max, cp.Num.Mean(), cp.Num.Std())
		case cp.Bool != nil:
			fmt.Fprintf(&b, " true=%d false=%d", cp.Bool.True, cp.Bool.False)
		}
		b.WriteByte('\n')
		if cp.Kind != df.KindBool && c.topK > 0 {
			for _, e := range c.top(cp.Freqs) {
				fmt.Fprintf(&b, "  * %q: %d\n", e.k, e.v)
			}
		}
	}
	return b.String()
}

func instant(sec float64, k df.Kind) string {
	t := time.Unix(int64(sec), 0).UTC()
	if k == df.KindDate {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

type JSONProfile struct {
	Columns []JSONColumn `json:"columns"`
}

type JSONColumn struct {
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Tag      string         `json:"tag"`
	Count    int            `json:"count"`
	Nulls    int            `json:"nulls"`
	Distinct int            `json:"distinct"`
	Num      *JSONNum       `json:"num,omitempty"`
	Bool     *BoolStats     `json:"bool,omitempty"`
	Top      map[string]int `json:"top,omitempty"`
}

type JSONNum struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

func (c *Collector) ReportJSON() JSONProfile {
	out := JSONProfile{Columns: make([]JSONColumn, 0, len(c.cols))}
	for i := range c.cols {
		cp := &c.cols[i]
		jc := JSONColumn{Name: cp.Name, Kind: cp.Kind.String(), Tag: cp.Tag.String(), Count: cp.Count, Nulls: cp.Nulls, Distinct: cp.Distinct(), Bool: cp.Bool}
		if cp.Num != nil && cp.Count > 0 {
			jc.Num = &JSONNum{Min: cp.Num.Min, Max: cp.Num.Max, Mean: cp.Num.Mean(), Std: cp.Num.Std()}
		}
		if cp.Kind != df.KindBool && len(cp.Freqs) > 0 && c.topK > 0 {
			jc.Top = map[string]int{}
			for _, e := range c.top(cp.Freqs) {
				jc.Top[e.k] = e.v
			}
		}
		out.Columns = append(out.Columns, jc)
	}
	return out
}
