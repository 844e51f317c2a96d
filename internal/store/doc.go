// Package store provides the SQLite-backed ledger.
//
// Two tables back every key:
//   - record_state: the current value, one row per live key
//   - record_versions: every Put and Delete ever applied, tombstones included
//
// A Put or Delete touches both tables inside one SQL transaction, so the
// current value and the history never disagree for a single key.
//
// History is ordered by the versions table's AUTOINCREMENT seq. Wall-clock
// recorded_at is informational and never used for ordering.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single open connection: one writer at a time
//
// The single connection means an open history iterator holds the database
// until it is closed.
package store
