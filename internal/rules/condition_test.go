package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/basketrules/pkg/types"
)

func TestParseCondition(t *testing.T) {
	c, err := ParseCondition("  lift   >=  1.5 ")
	require.NoError(t, err)
	assert.Equal(t, Condition{Metric: MetricLift, Op: ">=", Threshold: 1.5}, c)
	assert.Equal(t, "lift >= 1.5", c.String())

	for _, bad := range []string{
		"lift > ",
		"lift ~ 1",
		"jaccard > 1",
		"lift > high",
		"lift > 1 extra",
	} {
		_, err := ParseCondition(bad)
		assert.Error(t, err, bad)
	}
}

func TestCondition_Match(t *testing.T) {
	r := types.Rule{Lift: 1.5, Zhang: math.NaN(), Confidence: 0.7}
	tests := []struct {
		expr string
		want bool
	}{
		{"lift > 1", true},
		{"lift < 1", false},
		{"lift == 1.5", true},
		{"lift != 1.5", false},
		{"confidence <= 0.7", true},
		{"zhang >= 0", false},
		{"zhang < 0", false},
		{"zhang != 0", false},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			c, err := ParseCondition(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, c.Match(r))
		})
	}
}
