// Package search keeps a Bleve full-text index over catalog titles and
// descriptions and ranks entries by similarity to free text.
//
// Documents are keyed by song number. The index is derived data: Rebuild
// recreates it from the catalog at any time.
package search
