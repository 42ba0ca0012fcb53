package formula

import (
	"strings"
	"unicode"

	ierr "github.com/wdm0006/rangerimpute/pkg/errors"
)

// Parse reads "a + b ~ . - c". Terms are column names or "."; "+" adds and
// "-" removes, left to right. An empty side means all columns, and a string
// without "~" names the targets only. Names containing spaces or operators
// can be quoted with backticks.
func Parse(s string) (Spec, error) {
	lhs, rhs, found := strings.Cut(s, "~")
	if found && strings.Contains(rhs, "~") {
		return Spec{}, ierr.NewSpecError(s, "more than one '~'")
	}
	t, err := parseSide(s, lhs)
	if err != nil {
		return Spec{}, err
	}
	p := All()
	if found {
		if p, err = parseSide(s, rhs); err != nil {
			return Spec{}, err
		}
	}
	return Spec{Targets: t, Predictors: p}, nil
}

func parseSide(expr, side string) (Set, error) {
	toks, err := tokenize(expr, side)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return All(), nil
	}
	var cur Set
	op := "+"
	expectTerm := true
	for _, tk := range toks {
		if tk == "+" || tk == "-" {
			if expectTerm {
				if cur == nil && tk == "-" {
					// leading "- x" means everything but x
					cur = All()
					op = "-"
					continue
				}
				return nil, ierr.NewSpecError(expr, "operator "+tk+" without a term")
			}
			op = tk
			expectTerm = true
			continue
		}
		if !expectTerm {
			return nil, ierr.NewSpecError(expr, "missing operator before "+tk)
		}
		var term Set = Cols(tk)
		if tk == "." {
			term = All()
		}
		switch {
		case cur == nil:
			cur = term
		case op == "+":
			cur = Union(cur, term)
		default:
			cur = Minus(cur, term)
		}
		expectTerm = false
	}
	if expectTerm {
		return nil, ierr.NewSpecError(expr, "trailing operator")
	}
	return cur, nil
}

func tokenize(expr, side string) ([]string, error) {
	var toks []string
	rs := []rune(side)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '+' || r == '-':
			toks = append(toks, string(r))
			i++
		case r == '`':
			end := i + 1
			for end < len(rs) && rs[end] != '`' {
				end++
			}
			if end == len(rs) {
				return nil, ierr.NewSpecError(expr, "unterminated backtick")
			}
			toks = append(toks, string(rs[i+1:end]))
			i = end + 1
		default:
			start := i
			for i < len(rs) && !unicode.IsSpace(rs[i]) && rs[i] != '+' && rs[i] != '-' {
				i++
			}
			toks = append(toks, string(rs[start:i]))
		}
	}
	return toks, nil
}
