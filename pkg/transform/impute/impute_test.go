package impute

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

func makeFloatFrame() *df.Frame {
	s := df.Schema{Columns: []df.ColumnSchema{{Name: "x", Type: df.KindFloat, Nullable: true}}}
	f := df.NewFrame(s)
	for i := 0; i < 5; i++ {
		f.AppendNullRow()
	}
	col, _ := f.ColumnByName("x")
	c := col.(*df.FloatColumn)
	c.Set(0, 1.0)
	c.Set(2, 3.0)
	c.Set(3, 8.0)
	c.Set(4, math.NaN())
	// row 1 null, row 4 NaN
	return f
}

func floatAt(t *testing.T, f *df.Frame, row int) float64 {
	t.Helper()
	col, _ := f.ColumnByName("x")
	v, ok := col.(*df.FloatColumn).Get(row)
	if !ok {
		t.Fatalf("row %d still null", row)
	}
	return v
}

func TestConstant(t *testing.T) {
	f := makeFloatFrame()
	out, err := (&Constant{Column: "x", Value: "2.5"}).Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if floatAt(t, out, 1) != 2.5 || floatAt(t, out, 4) != 2.5 {
		t.Fatal("constant not applied to null and NaN cells")
	}
	if floatAt(t, out, 3) != 8 {
		t.Fatal("observed cell overwritten")
	}
}

func TestConstantRejectsBadValue(t *testing.T) {
	f := makeFloatFrame()
	if _, err := (&Constant{Column: "x", Value: "abc"}).Apply(context.Background(), f); err == nil {
		t.Fatal("expected coercion error")
	}
}

func TestMean(t *testing.T) {
	f := makeFloatFrame()
	out, err := (&Mean{Column: "x"}).Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if got := floatAt(t, out, 1); got != 4 {
		t.Fatalf("mean = %v", got)
	}
	if got := floatAt(t, out, 4); got != 4 {
		t.Fatalf("NaN cell = %v", got)
	}
}

func TestMedian(t *testing.T) {
	f := makeFloatFrame()
	out, err := (&Median{Column: "x"}).Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if got := floatAt(t, out, 1); got != 3 {
		t.Fatalf("median = %v", got)
	}
}

func TestIntMeanRounds(t *testing.T) {
	c := df.NewIntColumn("n", 0)
	c.Append(1)
	c.Append(2)
	c.AppendNull()
	f, _ := df.FromColumns(c)
	if _, err := (&Mean{Column: "n"}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Get(2); v != 2 {
		t.Fatalf("rounded mean = %d", v)
	}
}

func TestMeanOfDates(t *testing.T) {
	c := df.NewDateColumn("d", 0)
	c.Append(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c.Append(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	c.AppendNull()
	f, _ := df.FromColumns(c)
	if _, err := (&Marginal{Column: "d"}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	v, ok := c.Get(2)
	if !ok || !v.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date fill = %v", v)
	}
}

func TestModeCategorical(t *testing.T) {
	c := df.NewCategoricalColumn("s", 0, []string{"foo", "bar"}, false)
	for _, v := range []string{"bar", "foo", "foo"} {
		c.Append(v)
	}
	c.AppendNull()
	f, _ := df.FromColumns(c)
	if _, err := (&Marginal{Column: "s"}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Get(3); v != "foo" {
		t.Fatalf("mode = %q", v)
	}
}

func TestModeTieBreak(t *testing.T) {
	build := func() (*df.Frame, *df.StringColumn) {
		c := df.NewStringColumn("s", 0)
		for _, v := range []string{"b", "a", "c"} {
			c.Append(v)
		}
		c.AppendNull()
		f, _ := df.FromColumns(c)
		return f, c
	}
	f, c := build()
	_, _ = (&Mode{Column: "s"}).Apply(context.Background(), f)
	if v, _ := c.Get(3); v != "b" {
		t.Fatalf("unseeded tie should take first seen, got %q", v)
	}
	f1, c1 := build()
	f2, c2 := build()
	_, _ = (&Mode{Column: "s", Rand: rand.New(rand.NewSource(5))}).Apply(context.Background(), f1)
	_, _ = (&Mode{Column: "s", Rand: rand.New(rand.NewSource(5))}).Apply(context.Background(), f2)
	v1, _ := c1.Get(3)
	v2, _ := c2.Get(3)
	if v1 != v2 {
		t.Fatalf("seeded tie-break differs: %q vs %q", v1, v2)
	}
}

func TestModeBool(t *testing.T) {
	c := df.NewBoolColumn("b", 0)
	c.Append(true)
	c.Append(true)
	c.Append(false)
	c.AppendNull()
	f, _ := df.FromColumns(c)
	_, _ = (&Mode{Column: "b"}).Apply(context.Background(), f)
	if v, ok := c.Get(3); !ok || !v {
		t.Fatal("bool mode not applied")
	}
}

func TestUnknownColumnIsNoop(t *testing.T) {
	f := makeFloatFrame()
	if _, err := (&Mean{Column: "nope"}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
}
