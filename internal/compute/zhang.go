package compute

import (
	"errors"
	"fmt"
	"math"

	"github.com/obsidianstack/basketrules/pkg/types"
)

// Tolerance used when checking support <= min(antecedent, consequent).
// Supports derived from counts can overshoot by a few ulps.
const supportTolerance = 1e-9

var (
	// ErrInvalidInput marks a row whose supports are not valid fractions.
	ErrInvalidInput = errors.New("invalid rule supports")

	// ErrDegenerate marks a row whose Zhang denominator is zero.
	ErrDegenerate = errors.New("zhang denominator is zero")
)

// Policy selects how degenerate rows are handled.
type Policy string

const (
	// PolicyNaN stores NaN for a degenerate row and keeps going.
	PolicyNaN Policy = "nan"

	// PolicyReject fails the whole column on the first degenerate row.
	PolicyReject Policy = "reject"
)

// ParsePolicy maps a config string to a Policy. Empty means PolicyNaN.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyNaN:
		return PolicyNaN, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("compute: unknown degenerate policy %q (want nan or reject)", s)
	}
}

// Input holds the three supports the Zhang metric is computed from.
// All fields are fractions of the transaction count in [0, 1].
type Input struct {
	Support           float64
	AntecedentSupport float64
	ConsequentSupport float64
}

// InputOf extracts the Zhang input from a rule.
func InputOf(r types.Rule) Input {
	return Input{
		Support:           r.Support,
		AntecedentSupport: r.AntecedentSupport,
		ConsequentSupport: r.ConsequentSupport,
	}
}

// RowError reports a failure for one row of a rule table.
type RowError struct {
	Row int // 0-based
	Err error
}

func (e *RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

func (e *RowError) Unwrap() error { return e.Err }

// Validate checks that in describes a well-formed rule.
func (in Input) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"support", in.Support},
		{"antecedent support", in.AntecedentSupport},
		{"consequent support", in.ConsequentSupport},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidInput, f.name, f.v)
		}
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s %g outside [0, 1]", ErrInvalidInput, f.name, f.v)
		}
	}
	if in.Support > in.AntecedentSupport+supportTolerance {
		return fmt.Errorf("%w: support %g exceeds antecedent support %g",
			ErrInvalidInput, in.Support, in.AntecedentSupport)
	}
	if in.Support > in.ConsequentSupport+supportTolerance {
		return fmt.Errorf("%w: support %g exceeds consequent support %g",
			ErrInvalidInput, in.Support, in.ConsequentSupport)
	}
	return nil
}

// Zhang computes Zhang's metric for a single rule:
//
//	num   = s - a*c
//	denom = max(s*(1-a), a*(c-s))
//	zhang = num / denom
//
// where s is the rule support, a the antecedent support and c the consequent
// support. It returns ErrDegenerate when denom is zero. Input is not
// validated; use Validate first for untrusted rows.
func Zhang(in Input) (float64, error) {
	s, a, c := in.Support, in.AntecedentSupport, in.ConsequentSupport

	num := s - a*c
	denom := math.Max(s*(1-a), a*(c-s))
	if denom == 0 {
		return math.NaN(), ErrDegenerate
	}
	return num / denom, nil
}

// ZhangColumn computes Zhang's metric for every row. The result has the same
// length and order as rows.
//
// All rows are validated before any value is computed. A degenerate row
// yields NaN under PolicyNaN and a *RowError under PolicyReject.
func ZhangColumn(rows []Input, policy Policy) ([]float64, error) {
	for i, in := range rows {
		if err := in.Validate(); err != nil {
			return nil, &RowError{Row: i, Err: err}
		}
	}

	out := make([]float64, len(rows))
	for i, in := range rows {
		z, err := Zhang(in)
		if err != nil {
			if policy == PolicyReject {
				return nil, &RowError{Row: i, Err: err}
			}
			z = math.NaN()
		}
		out[i] = z
	}
	return out, nil
}

// AnnotateZhang fills the Zhang field of every rule. No other field is
// touched. On error the rules are left unchanged.
func AnnotateZhang(rules []types.Rule, policy Policy) error {
	rows := make([]Input, len(rules))
	for i, r := range rules {
		rows[i] = InputOf(r)
	}
	col, err := ZhangColumn(rows, policy)
	if err != nil {
		return fmt.Errorf("compute: zhang: %w", err)
	}
	for i := range rules {
		rules[i].Zhang = col[i]
	}
	return nil
}
