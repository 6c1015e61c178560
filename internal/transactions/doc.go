// Package transactions reads basket data and one-hot encodes it.
//
// reader.go loads baskets from CSV (one basket per record, ragged records
// allowed) or from an XLSX sheet (one basket per row). Fields are trimmed and
// empty fields dropped; a record left with no items is still a transaction.
//
// encoder.go turns baskets into a boolean Matrix whose columns are the
// sorted, unique item labels.
package transactions
