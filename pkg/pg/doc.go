// Package pg holds the PostgreSQL plumbing shared by koskit stores: pool
// connection with retry (Connect), goose migrations from an embedded
// filesystem (Migrate), a transaction runner that re-runs serialization
// failures (WithTx), a readiness probe (Healthcheck) and classification of
// *pgconn.PgError values (IsDuplicateKeyError, IsConstraintViolation, ...).
//
// All settings come from Config, parsed from PG_* environment variables.
package pg
