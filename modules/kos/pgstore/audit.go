package pgstore

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/koskit/pkg/audit"
)

// auditDB is satisfied by *pgxpool.Pool and pgx.Tx.
type auditDB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditStorage writes audit events to the audit_events table.
type AuditStorage struct {
	db auditDB
}

var _ audit.Storage = (*AuditStorage)(nil)

func NewAuditStorage(db auditDB) *AuditStorage {
	if db == nil {
		panic("pgstore: db cannot be nil")
	}
	return &AuditStorage{db: db}
}

// Store inserts the batch in one round trip. Replayed event ids are ignored.
func (s *AuditStorage) Store(ctx context.Context, events ...audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		var meta []byte
		if len(e.Metadata) > 0 {
			b, err := json.Marshal(e.Metadata)
			if err != nil {
				return mapError("encode audit metadata", err)
			}
			meta = b
		}
		batch.Queue(`INSERT INTO audit_events
			(id, owner_id, actor_id, actor_role, action, resource, resource_id, result, error, request_id, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING`,
			e.ID, e.OwnerID, e.ActorID, e.ActorRole, e.Action, e.Resource, e.ResourceID, e.Result,
			e.Error, e.RequestID, meta, e.CreatedAt)
	}
	br := s.db.SendBatch(ctx, batch)
	for range events {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return mapError("store audit events", err)
		}
	}
	return mapError("store audit events", br.Close())
}

// AuditFilter narrows ListAuditEvents. Zero fields match everything.
type AuditFilter struct {
	OwnerID    string
	Resource   string
	ResourceID string
	Limit      int
}

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// auditLimit defaults a missing limit and caps an oversized one.
func auditLimit(n int) int {
	if n <= 0 {
		return defaultAuditLimit
	}
	return min(n, maxAuditLimit)
}

// ListAuditEvents returns matching events, newest first.
func (s *AuditStorage) ListAuditEvents(ctx context.Context, f AuditFilter) ([]audit.Event, error) {
	limit := auditLimit(f.Limit)
	rows, err := s.db.Query(ctx, `SELECT id, owner_id, actor_id, actor_role, action, resource, resource_id,
			result, error, request_id, metadata, created_at
		FROM audit_events
		WHERE ($1::text = '' OR owner_id = $1)
			AND ($2::text = '' OR resource = $2)
			AND ($3::text = '' OR resource_id = $3)
		ORDER BY created_at DESC, id
		LIMIT $4`, f.OwnerID, f.Resource, f.ResourceID, limit)
	return collect("list audit events", rows, err, func(r rowScanner) (audit.Event, error) {
		var (
			e    audit.Event
			meta []byte
		)
		if err := r.Scan(&e.ID, &e.OwnerID, &e.ActorID, &e.ActorRole, &e.Action, &e.Resource, &e.ResourceID,
			&e.Result, &e.Error, &e.RequestID, &meta, &e.CreatedAt); err != nil {
			return e, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return e, err
			}
		}
		return e, nil
	})
}
