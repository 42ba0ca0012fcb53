package ioutils

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = time.RFC3339
)

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

// NullTokens are the cell spellings read as missing.
var NullTokens = map[string]bool{"": true, "NA": true, "N/A": true, "NaN": true, "nan": true, "null": true, "NULL": true, "None": true}

// IsNull reports whether a raw text cell spells a missing value.
func IsNull(s string) bool { return NullTokens[strings.TrimSpace(s)] }

// InferKind picks a column kind from sampled text cells: int, float, bool,
// date, time, then string. Null tokens are ignored.
func InferKind(values []string) df.Kind {
	num, integer, bools, dates, times, str := 0, 0, 0, 0, 0, 0
	for _, v := range values {
		v = strings.TrimSpace(v)
		if IsNull(v) {
			continue
		}
		switch {
		case numre.MatchString(v):
			num++
			if !strings.ContainsAny(v, ".eE") {
				integer++
			}
		case strings.EqualFold(v, "true") || strings.EqualFold(v, "false"):
			bools++
		case isLayout(DateLayout, v):
			dates++
		case isLayout(TimeLayout, v):
			times++
		default:
			str++
		}
	}
	switch {
	case str > 0 || num+bools+dates+times == 0:
		return df.KindString
	case bools > 0 && num+dates+times == 0:
		return df.KindBool
	case dates > 0 && num+bools+times == 0:
		return df.KindDate
	case times > 0 && num+bools == 0:
		return df.KindTime
	case num > 0 && bools+dates+times == 0:
		if integer == num {
			return df.KindInt
		}
		return df.KindFloat
	}
	return df.KindString
}

func isLayout(layout, v string) bool {
	_, err := time.Parse(layout, v)
	return err == nil
}

// Override replaces the inferred type of every column named in types.
func Override(s df.Schema, types map[string]df.ColumnSchema) df.Schema {
	out := df.Schema{Columns: append([]df.ColumnSchema(nil), s.Columns...)}
	for i, cs := range out.Columns {
		if o, ok := types[cs.Name]; ok {
			o.Name = cs.Name
			o.Nullable = true
			out.Columns[i] = o
		}
	}
	return out
}

// SetText parses a text cell into row of f. Unparseable cells stay null.
func SetText(f *df.Frame, row int, cs df.ColumnSchema, s string) {
	s = strings.ToValidUTF8(strings.TrimSpace(s), "?")
	if IsNull(s) {
		return
	}
	switch cs.Type {
	case df.KindFloat:
		if x, err := strconv.ParseFloat(s, 64); err == nil {
			_ = f.SetCell(row, cs.Name, x)
		}
	case df.KindInt:
		if x, err := strconv.ParseInt(s, 10, 64); err == nil {
			_ = f.SetCell(row, cs.Name, x)
		}
	case df.KindBool:
		if x, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
			_ = f.SetCell(row, cs.Name, x)
		}
	case df.KindDate, df.KindTime:
		if x, err := parseTime(s); err == nil {
			_ = f.SetCell(row, cs.Name, x)
		}
	default:
		_ = f.SetCell(row, cs.Name, s)
	}
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, s)
}

// SetValue stores a decoded JSON or Parquet value into row of f. Strings go
// through SetText; numbers are converted to the column kind.
func SetValue(f *df.Frame, row int, cs df.ColumnSchema, v any) {
	switch t := v.(type) {
	case nil:
		return
	case string:
		SetText(f, row, cs, t)
		return
	case []byte:
		SetText(f, row, cs, string(t))
		return
	case json.Number:
		SetText(f, row, cs, t.String())
		return
	}
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int32:
		x = float64(t)
	case int64:
		if cs.Type == df.KindInt {
			_ = f.SetCell(row, cs.Name, t)
			return
		}
		x = float64(t)
	case bool:
		if cs.Type == df.KindBool {
			_ = f.SetCell(row, cs.Name, t)
			return
		}
		SetText(f, row, cs, strconv.FormatBool(t))
		return
	default:
		b, _ := json.Marshal(t)
		SetText(f, row, cs, string(b))
		return
	}
	switch cs.Type {
	case df.KindFloat:
		if !math.IsNaN(x) {
			_ = f.SetCell(row, cs.Name, x)
		}
	case df.KindInt:
		_ = f.SetCell(row, cs.Name, int64(x))
	case df.KindBool:
		_ = f.SetCell(row, cs.Name, x != 0)
	default:
		SetText(f, row, cs, strconv.FormatFloat(x, 'g', -1, 64))
	}
}

// Value returns a cell as float64, int64, bool or string, the shapes JSON
// and Parquet writers accept. Dates format as YYYY-MM-DD and instants as
// RFC 3339.
func Value(f *df.Frame, row int, cs df.ColumnSchema) (any, bool) {
	v := f.Value(row, cs.Name)
	if v == nil {
		return nil, false
	}
	if t, ok := v.(time.Time); ok {
		if cs.Type == df.KindDate {
			return t.Format(DateLayout), true
		}
		return t.Format(TimeLayout), true
	}
	if x, ok := v.(float64); ok && math.IsNaN(x) {
		return nil, false
	}
	return v, true
}

// Text formats a cell for CSV; missing cells are empty.
func Text(f *df.Frame, row int, cs df.ColumnSchema) string {
	v, ok := Value(f, row, cs)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	}
	return fmt.Sprint(v)
}
