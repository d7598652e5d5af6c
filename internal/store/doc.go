// Package store provides SQLite-backed plan history.
//
// Every successful planning request can be appended as an ir.PlanRecord:
// the command, the catalog key its scene resolved to, content hashes of
// the scene and plan, and the plan itself as canonical JSON.
//
// # Ordering
//
//   - All ordering uses the seq INTEGER column (logical clock), never
//     timestamps. seq is assigned by the store inside the insert
//     transaction: MAX(seq)+1.
//   - All list queries include ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// # Integrity
//
// Plans are stored as RFC 8785 canonical JSON (ir.MarshalCanonical) next
// to their ir.PlanHash. ReadPlan recomputes the hash and rejects rows whose
// content no longer matches.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
