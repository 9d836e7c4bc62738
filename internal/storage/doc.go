// Package storage keeps an append-only history of schedule lifecycle events.
//
// Drivers:
//   - "file": JSON Lines at <prefix>.history.jsonl
//   - "sqlite": a single SQLite database file
//
// The schedule file itself is owned by package store; nothing here is read back
// by the scheduler.
package storage
