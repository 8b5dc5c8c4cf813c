// Package todo holds the task model and the in-memory task store.
//
// A Store keeps two ordered collections: active tasks, in display order, and
// soft-deleted tasks. Tasks move between them through SoftDelete and Restore;
// Purge removes a deleted task for good.
//
// Task ids are creation timestamps in Unix milliseconds and are unique across
// both collections. A task carries deletedAt only while it is deleted.
//
// Edit mode is store state, not task state: at most one active task is being
// edited at a time and the marker is never persisted.
//
// The store does no I/O. Callers snapshot it with Snapshot and seed it with
// Load, which also repairs the loaded state (see RepairReport).
package todo
