// Package rules derives association rules from frequent itemsets and ranks
// them.
//
// generate.go builds every rule "A => C" from each frequent itemset of two or
// more items, computes its statistics through package compute and keeps the
// rules whose selected metric reaches the threshold.
//
// condition.go parses filter expressions such as "lift > 1.2" or
// "zhang >= 0.5". sort.go orders rules by a metric with NaN last.
// describe.go summarises numeric columns the way a data-frame describe does.
package rules
