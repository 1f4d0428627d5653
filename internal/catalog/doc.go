// Package catalog persists song entries, shared tags and run tokens in SQLite.
//
// The schema is embedded and created on first open; later additive changes
// ship as numbered files under migrations/. Writes come only from the merge
// step. Every other caller reads.
//
// Tags are stored once per normalized text. UpsertTag relies on the unique
// constraint (insert, ignore the conflict, then fetch) so two writers never
// create the same tag twice.
package catalog
