// Package store provides an optional SQLite archive of generated exercise
// instances.
//
// The archive is append-only:
//   - Instances: one row per distinct instance, keyed by fingerprint
//   - Batches: every row carries the id of the generate call that wrote it
//
// # Critical Patterns
//
// Fingerprint idempotency
//   - UNIQUE(fingerprint) with ON CONFLICT DO NOTHING
//   - Regenerating the same (template, seed) never adds a second row
//
// Logical ordering
//   - All reads ORDER BY seq ASC, never by wall-clock time
//
// Canonical storage
//   - The instance column holds RFC 8785 canonical JSON, so the stored
//     bytes hash back to the stored fingerprint
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The engine never imports this package; the CLI and HTTP layers archive
// what the engine returns.
package store
