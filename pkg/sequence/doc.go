// Package sequence issues human-readable document numbers such as
// INV-20261015-0007 for bills and PAY-20261015-0003 for payments.
//
// Numbers are scoped per prefix and calendar day. Generators only make
// collisions unlikely; the authoritative guarantee is the unique index on the
// column that stores the number, and callers retry with a fresh number when
// the insert reports a duplicate.
//
// Three generators are provided:
//
//   - RedisGenerator: INCR on a per-day key, shared by every service replica.
//   - MemoryGenerator: a per-process counter for tests and single-node dev mode.
//   - RandomGenerator: a random suffix when no shared counter is available.
package sequence
