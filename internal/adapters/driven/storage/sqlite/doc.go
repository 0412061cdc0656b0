// Package sqlite implements the driven storage ports on SQLite using the
// pure-Go modernc.org/sqlite driver.
//
// A single Store owns the database handle and hands out the ResultStore,
// StatusStore, TagStore and EventSink views. The schema is embedded from
// the migrations package and applied on open.
//
// FetchCandidates evaluates the structured filter in SQL. Metadata is
// stored as raw TEXT and returned untouched; it is never indexed or
// queried by the database.
package sqlite
