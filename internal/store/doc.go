// Package store is the concurrency-safe record store for firm datasets.
//
// Each firm owns one record table on the shared data root. The store loads,
// queries and mutates those tables, assigns invoice numbers from the firm's
// persistent counter, and writes the audit trail for field edits.
//
// # Locking
//
// Every mutation runs inside the firm's lock as one read-modify-write:
// read the table, apply the change in memory, write a temp file and rename
// it over the table. Reads never take the lock. A reader racing a writer in
// another process sees either the old or the new file, since the table is
// replaced by rename, but reads are not snapshot isolated across calls.
//
// Batch operations (UpsertBatch, AssignMissing) take the lock once for the
// whole batch.
//
// # Key
//
// Records are identified by (index_number, appearance_date): index numbers
// compare case-insensitively, dates by canonical YYYY-MM-DD string. Mutations
// never create a second row for an existing key.
//
// # Audit
//
// EditField appends its audit entry after the table write has committed and
// the lock is released. A failed edit leaves no audit entry.
package store
