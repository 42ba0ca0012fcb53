package impute

import (
	"context"
	"strings"
	"testing"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
	"github.com/wdm0006/rangerimpute/pkg/formula"
)

func TestMultiple(t *testing.T) {
	in := linearFrame(t, 30)
	cfg := ridgeConfig()
	cfg.PMMK = 5
	a, err := Multiple(context.Background(), in, formula.Default(), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Multiple(context.Background(), in, formula.Default(), 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 3 {
		t.Fatalf("got %d results", len(a))
	}
	seen := map[string]bool{}
	for i := range a {
		if a[i].Frame.NullCount("y") != 0 {
			t.Fatalf("run %d left missing values", i)
		}
		assertPreserved(t, in, a[i].Frame)
		if seen[a[i].RunID] {
			t.Fatal("duplicate run id")
		}
		seen[a[i].RunID] = true
		for r := 0; r < in.Rows(); r++ {
			if a[i].Frame.Value(r, "y") != b[i].Frame.Value(r, "y") {
				t.Fatalf("run %d not reproducible at row %d", i, r)
			}
		}
	}
	if in.NullCount("y") != 6 {
		t.Fatal("input modified")
	}
}

func TestMultipleFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Learner = &scripted{errs: []float64{1}, fail: 1}
	_, err := Multiple(context.Background(), linearFrame(t, 20), formula.Default(), 4, cfg)
	if !ierr.Is(err, ierr.ErrLearnerFailure) || !strings.HasPrefix(err.Error(), "imputation ") {
		t.Fatalf("want learner failure tagged with its imputation, got %v", err)
	}
	if _, err := Multiple(context.Background(), linearFrame(t, 20), formula.Default(), 0, cfg); !ierr.Is(err, ierr.ErrInvalidConfig) {
		t.Fatalf("m=0: want invalid config, got %v", err)
	}
}
