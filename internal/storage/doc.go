// Package storage persists Secret Santa sessions across restarts.
//
// It currently supports:
//   - sqlite: a single database file (default)
//   - file: a dependency-free JSON snapshot
package storage
