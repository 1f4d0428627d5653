// Package enrich merges YouTube metadata into assembled song records.
//
// Enrich queries the distinct video IDs in bounded chunks and fails the whole
// call if any chunk fails. Matched records come back first, in the order the
// API returned their videos, followed by unmatched records in input order.
package enrich
