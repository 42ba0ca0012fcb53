package csvio

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkReadCSV(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("a,b,c\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, "%d,%g,name%d\n", i, float64(i)*0.5, i%7)
	}
	p := writeFile(b, "bench.csv", sb.String())
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		r, c, err := Open(p, ReaderOptions{HasHeader: true})
		if err != nil {
			b.Fatal(err)
		}
		schema, _, err := r.InferSchema()
		if err != nil {
			b.Fatal(err)
		}
		fr, err := r.ReadAll(schema)
		if err != nil {
			b.Fatal(err)
		}
		if fr.Rows() == 0 {
			b.Fatal("no rows")
		}
		_ = c.Close()
	}
}
