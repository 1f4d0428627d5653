// Package feed retrieves and decodes the spreadsheet cell feed.
//
// The feed is served as JSON wrapped in a JSONP callback. Parse strips the
// wrapper and decodes the entry list; Cells exposes each entry as a typed
// (row, column, value) triple in delivery order. Column positions are a closed
// enumeration: anything outside 1–7 is rejected by ParseColumn rather than
// silently ignored.
package feed
