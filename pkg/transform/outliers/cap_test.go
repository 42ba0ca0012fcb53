package outliers

import (
	"context"
	"testing"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

func ptr(v float64) *float64 { return &v }

func TestCap(t *testing.T) {
	x := df.NewFloatColumn("x", 3)
	x.Set(0, -4)
	x.Set(1, 2)
	n := df.NewIntColumn("n", 3)
	n.Set(0, 100)
	n.Set(2, -100)
	f, _ := df.FromColumns(x, n)
	if _, err := (&Cap{Column: "x", Min: ptr(0)}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if v, _ := x.Get(0); v != 0 {
		t.Fatalf("x[0] = %v", v)
	}
	if !x.IsNull(2) {
		t.Fatal("null should stay null")
	}
	if _, err := (&Cap{Column: "n", Min: ptr(-10), Max: ptr(10)}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if a, _ := n.Get(0); a != 10 {
		t.Fatalf("n[0] = %v", a)
	}
	if b, _ := n.Get(2); b != -10 {
		t.Fatalf("n[2] = %v", b)
	}
}

func TestWinsorize(t *testing.T) {
	x := df.NewFloatColumn("x", 10)
	for i := 0; i < 9; i++ {
		x.Set(i, float64(i+1))
	}
	x.Set(9, 1000)
	f, _ := df.FromColumns(x)
	if _, err := (&Winsorize{Column: "x", Lower: 0, Upper: 0.9}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if v, _ := x.Get(9); v != 9 {
		t.Fatalf("outlier should be clamped to the 90th percentile, got %v", v)
	}
	if v, _ := x.Get(0); v != 1 {
		t.Fatalf("lower tail unchanged, got %v", v)
	}
	if _, err := (&Winsorize{Column: "x", Lower: 0.5, Upper: 0.5}).Apply(context.Background(), f); err == nil {
		t.Fatal("expected bad quantile error")
	}
}
