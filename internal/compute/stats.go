package compute

import "math"

// Confidence is support(A∪C) / support(A).
func Confidence(support, antecedentSupport float64) float64 {
	return support / antecedentSupport
}

// Lift is confidence / support(C).
func Lift(support, antecedentSupport, consequentSupport float64) float64 {
	return Confidence(support, antecedentSupport) / consequentSupport
}

// Leverage is support(A∪C) - support(A)*support(C).
func Leverage(support, antecedentSupport, consequentSupport float64) float64 {
	return support - antecedentSupport*consequentSupport
}

// Conviction is (1 - support(C)) / (1 - confidence). A rule that always
// holds has infinite conviction.
func Conviction(support, antecedentSupport, consequentSupport float64) float64 {
	conf := Confidence(support, antecedentSupport)
	if conf >= 1 {
		return math.Inf(1)
	}
	return (1 - consequentSupport) / (1 - conf)
}

// Stats validates in and derives every rule statistic from it. Under
// PolicyNaN a degenerate row gets a NaN Zhang value and no error.
func Stats(in Input, policy Policy) (Output, error) {
	if err := in.Validate(); err != nil {
		return Output{}, err
	}
	s, a, c := in.Support, in.AntecedentSupport, in.ConsequentSupport
	out := Output{
		Confidence: Confidence(s, a),
		Lift:       Lift(s, a, c),
		Leverage:   Leverage(s, a, c),
		Conviction: Conviction(s, a, c),
	}
	z, err := Zhang(in)
	if err != nil && policy == PolicyReject {
		return Output{}, err
	}
	out.Zhang = z
	return out, nil
}

// Output holds the statistics derived from an Input.
type Output struct {
	Confidence float64
	Lift       float64
	Leverage   float64
	Conviction float64
	Zhang      float64
}
