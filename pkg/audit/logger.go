package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type logger struct {
	storage            Storage
	requestIDExtractor func(context.Context) string
	now                func() time.Time
}

type Option func(*logger)

// WithRequestIDExtractor copies the request correlation ID into every event.
func WithRequestIDExtractor(fn func(context.Context) string) Option {
	return func(l *logger) {
		l.requestIDExtractor = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *logger) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &logger{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, l.newEvent(ctx, action, ResultSuccess), opts)
}

func (l *logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	event := l.newEvent(ctx, action, ResultError)
	if err != nil {
		event.Error = err.Error()
	}
	return l.store(ctx, event, opts)
}

func (l *logger) newEvent(ctx context.Context, action string, result Result) Event {
	event := Event{
		ID:        uuid.NewString(),
		Action:    action,
		Result:    result,
		CreatedAt: l.now().UTC(),
	}
	if l.requestIDExtractor != nil {
		event.RequestID = l.requestIDExtractor(ctx)
	}
	return event
}

func (l *logger) store(ctx context.Context, event Event, opts []EventOption) error {
	for _, opt := range opts {
		opt(&event)
	}
	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}

type nopLogger struct{}

// NopLogger discards every event.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Log(context.Context, string, ...EventOption) error { return nil }

func (nopLogger) LogError(context.Context, string, error, ...EventOption) error { return nil }
