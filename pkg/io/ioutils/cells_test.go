package ioutils

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

func TestInferKind(t *testing.T) {
	cases := []struct {
		in   []string
		want df.Kind
	}{
		{[]string{"1", "-2", "NA"}, df.KindInt},
		{[]string{"1", "2.5", "1e3"}, df.KindFloat},
		{[]string{"true", "FALSE", ""}, df.KindBool},
		{[]string{"2024-01-02", "null"}, df.KindDate},
		{[]string{"2024-01-02T10:00:00Z", "2024-01-03"}, df.KindTime},
		{[]string{"1", "x"}, df.KindString},
		{[]string{"", "NA"}, df.KindString},
		{[]string{"1", "true"}, df.KindString},
	}
	for _, c := range cases {
		if got := InferKind(c.in); got != c.want {
			t.Fatalf("InferKind(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSetTextAndValue(t *testing.T) {
	s := df.Schema{Columns: []df.ColumnSchema{
		{Name: "n", Type: df.KindInt, Nullable: true},
		{Name: "d", Type: df.KindDate, Nullable: true},
		{Name: "ts", Type: df.KindTime, Nullable: true},
		{Name: "x", Type: df.KindFloat, Nullable: true},
	}}
	f := df.NewFrame(s)
	f.AppendNullRow()
	f.AppendNullRow()
	SetText(f, 0, s.Columns[0], " 42 ")
	SetText(f, 0, s.Columns[1], "2024-03-01")
	SetText(f, 0, s.Columns[2], "2024-03-01T12:30:00Z")
	SetValue(f, 0, s.Columns[3], float32(1.5))
	SetText(f, 1, s.Columns[0], "4.5")
	SetValue(f, 1, s.Columns[3], "NaN")

	if v, ok := Value(f, 0, s.Columns[0]); !ok || v != int64(42) {
		t.Fatalf("int cell = %v %v", v, ok)
	}
	if v, _ := Value(f, 0, s.Columns[1]); v != "2024-03-01" {
		t.Fatalf("date cell = %v", v)
	}
	if v, _ := Value(f, 0, s.Columns[2]); v != "2024-03-01T12:30:00Z" {
		t.Fatalf("time cell = %v", v)
	}
	if v, _ := Value(f, 0, s.Columns[3]); v != 1.5 {
		t.Fatalf("float cell = %v", v)
	}
	if f.NullCount("n") != 1 || f.NullCount("x") != 1 {
		t.Fatalf("unparseable cells should stay missing: n=%d x=%d", f.NullCount("n"), f.NullCount("x"))
	}
	if got := f.Value(0, "ts").(time.Time); !got.Equal(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)) {
		t.Fatalf("instant = %v", got)
	}
}

func TestOverrideKeepsNames(t *testing.T) {
	s := df.Schema{Columns: []df.ColumnSchema{{Name: "a", Type: df.KindString}, {Name: "b", Type: df.KindInt}}}
	out := Override(s, map[string]df.ColumnSchema{"a": {Type: df.KindCategorical, Levels: []string{"x"}}})
	if out.Columns[0].Name != "a" || out.Columns[0].Type != df.KindCategorical || !out.Columns[0].Nullable {
		t.Fatalf("override = %+v", out.Columns[0])
	}
	if s.Columns[0].Type != df.KindString {
		t.Fatal("input schema modified")
	}
}

func TestOpenDetectsGzipByMagic(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("a,b\n1,2\n"))
	_ = zw.Close()
	p := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	rc, err := OpenMaybeCompressed(p)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "a,b\n1,2\n" {
		t.Fatalf("read %q", b)
	}
}
