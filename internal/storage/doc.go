// Package storage persists the task store as a single JSON document.
//
// A Gateway reads and writes the whole document through a Backend. Two
// backends exist: FileBackend keeps the document in a plain file replaced
// atomically on every save, and SQLiteBackend keeps it as one row of a
// documents table.
//
// # Document versions
//
//   - 0: a bare array of tasks, all active (legacy)
//   - 1: {"schemaVersion": 1, "tasks": [...], "deletedTasks": [...]}
//
// Older documents are migrated step by step on load; saves always write the
// current version. A missing schemaVersion in an object means version 1.
//
// Load never fails: unreadable documents are logged, copied aside and
// replaced by the empty state.
package storage
