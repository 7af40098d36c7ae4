// Package audit records who did what to which resource.
//
// A Logger stamps events with an ID, timestamp and request ID and hands them to
// a Storage. Storages provided here write to slog (SlogStorage) or keep events
// in memory (MemoryStorage); the Postgres store in modules/kos/pgstore persists
// them to the audit_events table. Wrap any storage with NewAsyncStorage to
// batch writes off the request path.
package audit
