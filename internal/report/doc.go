// Package report prints the analysis of one run as plain-text sections.
//
// Each section starts with a "### title" line followed by an aligned table
// and a blank separator. Write prints the full analysis in pipeline order;
// the section helpers are exported so single-purpose commands can print just
// a rule table.
package report
