package rules

import (
	"fmt"

	"github.com/obsidianstack/basketrules/pkg/types"
)

// Metric names accepted by Options.Metric, filters and SortBy.
const (
	MetricSupport           = "support"
	MetricAntecedentSupport = "antecedent_support"
	MetricConsequentSupport = "consequent_support"
	MetricConfidence        = "confidence"
	MetricLift              = "lift"
	MetricLeverage          = "leverage"
	MetricConviction        = "conviction"
	MetricZhang             = "zhang"
)

// Metrics lists every metric in table column order.
var Metrics = []string{
	MetricAntecedentSupport,
	MetricConsequentSupport,
	MetricSupport,
	MetricConfidence,
	MetricLift,
	MetricLeverage,
	MetricConviction,
	MetricZhang,
}

// ValidMetric reports whether name is a known metric.
func ValidMetric(name string) bool {
	for _, m := range Metrics {
		if m == name {
			return true
		}
	}
	return false
}

// Value returns the named metric of r.
func Value(r types.Rule, metric string) (float64, error) {
	switch metric {
	case MetricSupport:
		return r.Support, nil
	case MetricAntecedentSupport:
		return r.AntecedentSupport, nil
	case MetricConsequentSupport:
		return r.ConsequentSupport, nil
	case MetricConfidence:
		return r.Confidence, nil
	case MetricLift:
		return r.Lift, nil
	case MetricLeverage:
		return r.Leverage, nil
	case MetricConviction:
		return r.Conviction, nil
	case MetricZhang:
		return r.Zhang, nil
	default:
		return 0, fmt.Errorf("rules: unknown metric %q", metric)
	}
}

// mustValue is Value for metrics already validated by the caller.
func mustValue(r types.Rule, metric string) float64 {
	v, err := Value(r, metric)
	if err != nil {
		panic(err)
	}
	return v
}
