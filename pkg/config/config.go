// Package config loads run files for the rangerimpute CLI. A file names the
// input and output datasets, optional column type overrides, optional
// cleaning steps run before imputation, and the imputation settings.
// JSON, YAML and TOML are accepted and picked by file extension.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
)

type File struct {
	Input   Source            `json:"input" yaml:"input" toml:"input"`
	Output  Source            `json:"output" yaml:"output" toml:"output"`
	Columns map[string]Column `json:"columns" yaml:"columns" toml:"columns"`
	Steps   []Step            `json:"steps" yaml:"steps" toml:"steps"`
	Impute  Impute            `json:"impute" yaml:"impute" toml:"impute"`
	Log     Log               `json:"log" yaml:"log" toml:"log"`
	// RunLog is a SQLite database path recording every run; empty disables it.
	RunLog string `json:"runlog" yaml:"runlog" toml:"runlog"`
	// Metrics is a path the Prometheus text exposition is written to after
	// the run; empty disables it.
	Metrics string `json:"metrics" yaml:"metrics" toml:"metrics"`
}

// Source describes a dataset on disk. Type is csv, jsonl or parquet and is
// guessed from the extension when empty.
type Source struct {
	Path      string `json:"path" yaml:"path" toml:"path"`
	Type      string `json:"type" yaml:"type" toml:"type"`
	HasHeader *bool  `json:"has_header" yaml:"has_header" toml:"has_header"`
	Delimiter string `json:"delimiter" yaml:"delimiter" toml:"delimiter"`
	ChunkSize int    `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`
}

// Column overrides the inferred type of one column. Type is one of float,
// int, bool, string, time, date, categorical or ordered.
type Column struct {
	Type    string   `json:"type" yaml:"type" toml:"type"`
	Levels  []string `json:"levels" yaml:"levels" toml:"levels"`
	Ordered bool     `json:"ordered" yaml:"ordered" toml:"ordered"`
}

// Step is one cleaning transform. Op selects it; the other fields are read
// as the op needs them.
type Step struct {
	Op      string            `json:"op" yaml:"op" toml:"op"`
	Column  string            `json:"column" yaml:"column" toml:"column"`
	Value   any               `json:"value" yaml:"value" toml:"value"`
	Pattern string            `json:"pattern" yaml:"pattern" toml:"pattern"`
	Replace string            `json:"replace" yaml:"replace" toml:"replace"`
	Map     map[string]string `json:"map" yaml:"map" toml:"map"`
	Values  []string          `json:"values" yaml:"values" toml:"values"`
	Min     *float64          `json:"min" yaml:"min" toml:"min"`
	Max     *float64          `json:"max" yaml:"max" toml:"max"`
	Lower   float64           `json:"lower" yaml:"lower" toml:"lower"`
	Upper   float64           `json:"upper" yaml:"upper" toml:"upper"`
	Action  string            `json:"action" yaml:"action" toml:"action"`
}

type Impute struct {
	Formula      string         `json:"formula" yaml:"formula" toml:"formula"`
	PMMK         int            `json:"pmm_k" yaml:"pmm_k" toml:"pmm_k"`
	MaxIter      int            `json:"max_iter" yaml:"max_iter" toml:"max_iter"`
	Tolerance    float64        `json:"tolerance" yaml:"tolerance" toml:"tolerance"`
	MaxDuration  string         `json:"max_duration" yaml:"max_duration" toml:"max_duration"`
	Seed         int64          `json:"seed" yaml:"seed" toml:"seed"`
	Order        string         `json:"order" yaml:"order" toml:"order"`
	InitialFill  string         `json:"initial_fill" yaml:"initial_fill" toml:"initial_fill"`
	ZeroVariance string         `json:"zero_variance" yaml:"zero_variance" toml:"zero_variance"`
	Learner      string         `json:"learner" yaml:"learner" toml:"learner"`
	Params       map[string]any `json:"params" yaml:"params" toml:"params"`
	// Weights names a numeric column holding case weights. The column
	// stays in the dataset; exclude it in Formula to keep it out of models.
	Weights string `json:"weights" yaml:"weights" toml:"weights"`
	// Imputations > 1 produces that many completed datasets.
	Imputations int `json:"imputations" yaml:"imputations" toml:"imputations"`
}

type Log struct {
	Level string `json:"level" yaml:"level" toml:"level"`
}

// Default returns a File with the engine defaults filled in.
func Default() *File {
	return &File{
		Impute: Impute{MaxIter: 10, Seed: 1, Learner: "auto", Imputations: 1},
		Log:    Log{Level: "info"},
	}
}

// Load reads path on top of Default.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, ierr.WithStack(err)
	}
	return Parse(b, filepath.Ext(path))
}

// Parse decodes b in the format named by ext (".json", ".yaml", ".yml",
// ".toml"). Unknown keys are rejected.
func Parse(b []byte, ext string) (*File, error) {
	f := Default()
	var err error
	switch strings.ToLower(ext) {
	case ".json", "":
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(f)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		err = dec.Decode(f)
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		err = dec.Decode(f)
	default:
		return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "unsupported config format %q", ext)
	}
	if err != nil {
		return nil, ierr.Wrapf(ierr.ErrInvalidConfig, "decode %s config: %v", strings.TrimPrefix(ext, "."), err)
	}
	return f, nil
}

// Format returns the dataset format of s, from Type or the path extension.
func (s Source) Format() string {
	if s.Type != "" {
		return strings.ToLower(s.Type)
	}
	p := strings.TrimSuffix(strings.ToLower(s.Path), ".gz")
	switch filepath.Ext(p) {
	case ".jsonl", ".ndjson", ".json":
		return "jsonl"
	case ".parquet", ".pq":
		return "parquet"
	}
	return "csv"
}

// Header reports whether a CSV source has a header row; true unless set.
func (s Source) Header() bool { return s.HasHeader == nil || *s.HasHeader }

// Comma returns the delimiter rune, 0 when it should be sniffed.
func (s Source) Comma() rune {
	switch s.Delimiter {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	return []rune(s.Delimiter)[0]
}
