package audit

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// SlogStorage writes each event as an INFO record on the "audit" channel.
type SlogStorage struct {
	log *slog.Logger
}

func NewSlogStorage(log *slog.Logger) *SlogStorage {
	if log == nil {
		log = slog.Default()
	}
	return &SlogStorage{log: log.With(slog.String("channel", "audit"))}
}

func (s *SlogStorage) Store(ctx context.Context, events ...Event) error {
	for _, e := range events {
		attrs := []slog.Attr{
			slog.String("event_id", e.ID),
			slog.String("action", e.Action),
			slog.String("result", string(e.Result)),
			slog.String("owner_id", e.OwnerID),
			slog.String("actor_id", e.ActorID),
			slog.String("actor_role", e.ActorRole),
			slog.String("resource", e.Resource),
			slog.String("resource_id", e.ResourceID),
			slog.Time("at", e.CreatedAt),
		}
		if e.RequestID != "" {
			attrs = append(attrs, slog.String("request_id", e.RequestID))
		}
		if e.Error != "" {
			attrs = append(attrs, slog.String("error", e.Error))
		}
		if len(e.Metadata) > 0 {
			attrs = append(attrs, slog.Any("metadata", e.Metadata))
		}
		s.log.LogAttrs(ctx, slog.LevelInfo, "audit event", attrs...)
	}
	return nil
}

// MemoryStorage keeps events in memory. Useful in tests and single-node dev mode.
type MemoryStorage struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Store(_ context.Context, events ...Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

// Events returns a copy of the stored events in insertion order.
func (m *MemoryStorage) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// Actions returns the action names of the stored events in insertion order.
func (m *MemoryStorage) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Action
	}
	return out
}
