// Package pipeline runs the fetch, enrich and merge stages in order and keeps
// the run token current.
//
// A token is created in the started stage and moved through fetching,
// enriching and merging as each stage begins. Only a run that finishes every
// stage receives a finish time and song count; a failed run leaves its token
// unfinished, which is how operators detect it.
package pipeline
