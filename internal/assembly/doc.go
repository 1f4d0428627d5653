// Package assembly folds ordered feed cells into completed song records.
//
// The feed delivers cells row by row. A number cell opens a new candidate and
// flushes the previous one, which is kept only when it carries a song number,
// a title and a link. Records exposes the fold as a lazy sequence; Assemble
// collects it.
package assembly
