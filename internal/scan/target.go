package scan

import "math"

// TargetOp names the comparison a battle metric is held against.
type TargetOp string

const (
	OpEqual        TargetOp = "eq"
	OpGreater      TargetOp = "gt"
	OpGreaterEqual TargetOp = "ge"
	OpLess         TargetOp = "lt"
	OpLessEqual    TargetOp = "le"
	OpBetween      TargetOp = "between"
	OpOutside      TargetOp = "outside"
)

// Valid reports whether op is a known operation.
func (op TargetOp) Valid() bool {
	switch op {
	case OpEqual, OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpBetween, OpOutside:
		return true
	}
	return false
}

// span is a metric interval; open ends exclude their bound.
type span struct {
	lo, hi         float64
	loOpen, hiOpen bool
}

func (s span) contains(v float64) bool {
	if v < s.lo || (s.loOpen && v == s.lo) {
		return false
	}
	if v > s.hi || (s.hiOpen && v == s.hi) {
		return false
	}
	return true
}

// TargetEvaluator matches metrics against a target. Every operation reduces
// to one tolerance-widened interval, optionally inverted for outside.
type TargetEvaluator struct {
	span   span
	invert bool
	never  bool
}

// NewTargetEvaluator builds an evaluator. val2 is the upper bound for between
// and outside. An unknown op matches nothing.
func NewTargetEvaluator(op TargetOp, val1, val2, tolerance float64) *TargetEvaluator {
	inf := math.Inf(1)
	te := &TargetEvaluator{}
	switch op {
	case OpEqual:
		te.span = span{lo: val1 - tolerance, hi: val1 + tolerance}
	case OpGreater:
		te.span = span{lo: val1 + tolerance, hi: inf, loOpen: true}
	case OpGreaterEqual:
		te.span = span{lo: val1 - tolerance, hi: inf}
	case OpLess:
		te.span = span{lo: -inf, hi: val1 - tolerance, hiOpen: true}
	case OpLessEqual:
		te.span = span{lo: -inf, hi: val1 + tolerance}
	case OpBetween:
		te.span = span{lo: val1 - tolerance, hi: val2 + tolerance}
	case OpOutside:
		te.span = span{lo: val1 - tolerance, hi: val2 + tolerance}
		te.invert = true
	default:
		te.never = true
	}
	return te
}

// Matches reports whether metric satisfies the target. NaN never matches.
func (te *TargetEvaluator) Matches(metric float64) bool {
	if te.never || math.IsNaN(metric) {
		return false
	}
	return te.span.contains(metric) != te.invert
}
