package learner

import (
	"time"

	"github.com/spf13/cast"
)

// Params is an opaque hyperparameter bag passed through to learners. Values
// typically come straight from a config file, so lookups are lenient about
// the stored type.
type Params map[string]any

func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	return cast.ToString(v)
}

func (p Params) Duration(key string, def time.Duration) time.Duration {
	v, ok := p[key]
	if !ok {
		return def
	}
	d, err := cast.ToDurationE(v)
	if err != nil {
		return def
	}
	return d
}

// Merge returns a copy of p overlaid with q.
func (p Params) Merge(q Params) Params {
	out := make(Params, len(p)+len(q))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range q {
		out[k] = v
	}
	return out
}
