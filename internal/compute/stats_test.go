package compute

import (
	"errors"
	"math"
	"testing"
)

func TestStats(t *testing.T) {
	// s=0.4, a=0.5, c=0.5
	out, err := Stats(Input{Support: 0.4, AntecedentSupport: 0.5, ConsequentSupport: 0.5}, PolicyNaN)
	if err != nil {
		t.Fatalf("Stats() unexpected error: %v", err)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"confidence", out.Confidence, 0.8},
		{"lift", out.Lift, 1.6},
		{"leverage", out.Leverage, 0.15},
		{"conviction", out.Conviction, 2.5}, // (1-0.5)/(1-0.8)
		{"zhang", out.Zhang, 0.75},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want, 1e-9) {
			t.Errorf("%s = %.6f, want %.6f", c.name, c.got, c.want)
		}
	}
}

func TestConviction_CertainRuleIsInfinite(t *testing.T) {
	if got := Conviction(0.3, 0.3, 0.6); !math.IsInf(got, 1) {
		t.Errorf("Conviction() = %v, want +Inf", got)
	}
}

func TestStats_DegeneratePolicy(t *testing.T) {
	in := Input{Support: 1, AntecedentSupport: 1, ConsequentSupport: 1}

	out, err := Stats(in, PolicyNaN)
	if err != nil {
		t.Fatalf("PolicyNaN: unexpected error: %v", err)
	}
	if !math.IsNaN(out.Zhang) {
		t.Errorf("PolicyNaN: zhang = %v, want NaN", out.Zhang)
	}
	if !almostEqual(out.Lift, 1, 1e-12) {
		t.Errorf("PolicyNaN: lift = %v, want 1", out.Lift)
	}

	if _, err := Stats(in, PolicyReject); !errors.Is(err, ErrDegenerate) {
		t.Errorf("PolicyReject: err = %v, want ErrDegenerate", err)
	}
}

func TestStats_Invalid(t *testing.T) {
	if _, err := Stats(Input{Support: 0.9, AntecedentSupport: 0.5, ConsequentSupport: 0.9}, PolicyNaN); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
