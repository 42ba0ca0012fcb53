package csvio

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	df "github.com/wdm0006/rangerimpute/pkg/frame"
)

func TestStreamReadCSV(t *testing.T) {
	p := writeFile(t, "iris.csv", irisLike)
	sr, c, err := NewStreamReader(p, ReaderOptions{HasHeader: true}, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	total, chunks := 0, 0
	for {
		fr, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		total += fr.Rows()
		chunks++
	}
	if total != 5 || chunks != 3 {
		t.Fatalf("expected 5 rows in 3 chunks, got %d in %d", total, chunks)
	}
}

func TestStreamCopy(t *testing.T) {
	p := writeFile(t, "iris.csv", irisLike)
	sr, c, err := NewStreamReader(p, ReaderOptions{HasHeader: true}, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	out := filepath.Join(t.TempDir(), "copy.csv")
	sw, err := NewStreamWriter(out, sr.Schema(), WriterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := df.RunStream(context.Background(), df.NewPipeline(), sr, sw)
	if err != nil {
		t.Fatal(err)
	}
	if rows != 5 {
		t.Fatalf("expected 5 rows, got %d", rows)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 6 || lines[0] != "sepal_length,sepal_width,petals,species,seen" {
		t.Fatalf("unexpected output:\n%s", b)
	}
	if lines[2] != "4.9,,2,setosa,2024-01-03" {
		t.Fatalf("unexpected row %q", lines[2])
	}
}
