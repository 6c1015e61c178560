package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/obsidianstack/basketrules/pkg/types"
)

// Condition is a parsed filter expression "metric op value".
//
// Supported expressions:
//
//	lift > 1
//	confidence >= 0.7
//	zhang < 0
//	conviction != 0
type Condition struct {
	Metric    string
	Op        string
	Threshold float64
}

// ParseCondition parses a filter expression.
func ParseCondition(expr string) (Condition, error) {
	parts := strings.Fields(expr)
	if len(parts) != 3 {
		return Condition{}, fmt.Errorf("rules: condition %q: want \"metric op value\"", expr)
	}
	metric, op, rhs := parts[0], parts[1], parts[2]

	if !ValidMetric(metric) {
		return Condition{}, fmt.Errorf("rules: condition %q: unknown metric %q", expr, metric)
	}
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
	default:
		return Condition{}, fmt.Errorf("rules: condition %q: unknown operator %q", expr, op)
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return Condition{}, fmt.Errorf("rules: condition %q: %w", expr, err)
	}
	return Condition{Metric: metric, Op: op, Threshold: threshold}, nil
}

// ParseConditions parses every expression in exprs.
func ParseConditions(exprs []string) ([]Condition, error) {
	out := make([]Condition, 0, len(exprs))
	for _, e := range exprs {
		c, err := ParseCondition(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Match reports whether r satisfies the condition. NaN never matches.
func (c Condition) Match(r types.Rule) bool {
	return compareFloat(mustValue(r, c.Metric), c.Op, c.Threshold)
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %g", c.Metric, c.Op, c.Threshold)
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return !math.IsNaN(v) && v != threshold
	default:
		return false
	}
}
