// Package ruletable reads and writes association rule tables as CSV.
//
// A table needs the columns "support", "antecedent support" and
// "consequent support" (snake_case and kebab-case headers are accepted).
// "antecedents", "consequents" and the remaining statistics are optional on
// read and always written. Item sets are written as "a|b"; on read the
// frozenset({'a', 'b'}) form is accepted too, and its quoted elements may
// contain commas. An item label containing "|" cannot be written.
package ruletable
