// Package compute derives association rule statistics from supports.
//
// zhang.go provides the pure Zhang(Input) function and the column-level
// ZhangColumn / AnnotateZhang helpers. Zhang's metric lies in [-1, 1]:
// positive for positive association, negative for negative association,
// 0 for statistical independence.
//
// stats.go provides confidence, lift, leverage and conviction.
//
// Degenerate rows (both denominator candidates zero) are handled by Policy:
// PolicyNaN yields NaN for the row, PolicyReject fails with a RowError.
// Malformed rows always fail before anything is computed.
package compute
