// Package sqlite provides the local datastore, implementing the
// document and chunk store ports over a single SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations embedded
// from the migrations/ directory. Embeddings are stored as little-endian
// float32 BLOBs; similarity ranking happens in Go after loading the
// candidate rows, which is fine at the corpus sizes a single-user
// installation sees.
//
// # Data Location
//
// By default, the database is stored at ~/.quarry/quarry.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
