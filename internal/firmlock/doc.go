// Package firmlock provides the per-firm, cross-process exclusive lock that
// serializes every mutation of a firm's data.
//
// # Mechanism
//
// Each firm has one sentinel file. Acquisition opens (creating if needed) the
// sentinel and takes a non-blocking OS advisory lock on it: flock(2) on Unix,
// LockFileEx on Windows. On contention the caller polls every retry interval
// until the timeout, then fails with *TimeoutError carrying the last known
// holder.
//
// # Invariants
//
//   - The sentinel is never deleted. Only the OS lock state toggles.
//   - Holder metadata (user, host, timestamp, pid, token) is rewritten on every
//     successful acquisition. It is diagnostic only and never consulted for
//     correctness.
//   - A crashed holder's lock is released by the OS when its descriptor closes.
//   - Locks for different firms are independent.
//   - Within one process a per-sentinel mutex also excludes goroutines, so the
//     lock holds even on filesystems that emulate flock with per-process
//     POSIX locks.
//
// Use Locker.With for scoped acquisition; it releases on every exit path.
package firmlock
