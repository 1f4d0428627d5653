// Package merge upserts enriched records into the catalog.
//
// Each record is matched to an entry by song number. Base fields are saved
// first, then tags are upserted and attached, then the entry is saved again
// and, when an indexer is configured, reindexed.
package merge
