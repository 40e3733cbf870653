// Package store is the SQLite generation log.
//
// Each artifact the engine returns is appended once, keyed by id, with the
// content hashes of its intent, tree and source as computed by package
// fingerprint. Writing an id twice is a no-op, which makes bundle imports
// repeatable.
//
// Reads order by seq (the generator's logical clock) and then by id, never
// by wall time, so the same log always lists the same way. The database
// runs in WAL mode with a 5s busy timeout; the schema version lives in
// user_version and is migrated forward on Open.
package store
