// Package types defines shared Go types used across the miner, the rule
// generator, the report printer and the exporters. These are the canonical
// in-memory representations of itemsets and association rules, separate
// from any file format they are written to.
package types
