// Package apriori mines frequent itemsets from a one-hot transaction matrix.
//
// Mining is level-wise: frequent k-itemsets sharing a (k-1)-prefix are
// joined into (k+1)-candidates, candidates with an infrequent k-subset are
// pruned, and the survivors are counted against per-column bitsets. Counting
// is spread over Options.Workers goroutines.
package apriori
