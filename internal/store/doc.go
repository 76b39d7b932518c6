// Package store manages newsletter persistence backed by SQLite.
//
// It holds the newsletter registry (title, passcode hash, folder) plus the
// questions and answers gathered for each issue. Uniqueness constraints in
// the schema enforce first-writer-wins semantics for repeated submissions,
// and constraint violations surface as the sentinel errors in errors.go so
// callers can distinguish duplicates from genuine failures.
package store
