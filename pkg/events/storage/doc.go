// Package storage provides detection event backends.
//
// SQLiteStorage is the durable backend. It can run on either of two drivers:
// "sqlite3" (github.com/mattn/go-sqlite3, cgo) or "sqlite"
// (modernc.org/sqlite, pure Go). Both share one schema; timestamps are stored
// as Unix nanoseconds so ordering and range filters behave the same on each.
//
// MemoryStorage keeps events in a slice and is used for the in-memory backend
// and in tests.
package storage
