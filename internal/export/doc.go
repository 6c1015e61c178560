// Package export writes the result of an analysis run to files.
//
//   - CSV: the rule table (package ruletable)
//   - XLSX: a workbook with run, itemsets and rules sheets (excelize)
//   - Prometheus: a textfile-collector file with one gauge family per rule
//     metric, labelled by antecedents and consequents
//   - SQLite: runs, itemsets and rules tables keyed by run ID
//
// FromConfig builds the exporters for every non-empty path in the export
// config. Exporters are independent; the pipeline runs them in order and
// stops at the first error.
package export
