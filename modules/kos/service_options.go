package kos

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/file"
	"github.com/dmitrymomot/koskit/pkg/rbac"
	"github.com/dmitrymomot/koskit/pkg/sequence"
)

// ServiceOption configures optional service dependencies.
type ServiceOption func(*service)

func WithConfig(cfg Config) ServiceOption {
	return func(s *service) {
		s.cfg = cfg.withDefaults()
	}
}

// WithClock replaces time.Now; tests use it to pin "today".
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNumberGenerator sets the source of bill and payment numbers.
func WithNumberGenerator(g sequence.Generator) ServiceOption {
	return func(s *service) {
		if g != nil {
			s.numbers = g
		}
	}
}

func WithAuditLogger(l audit.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.audit = l
		}
	}
}

// WithFileStorage enables existence checks for payment proof references.
func WithFileStorage(fs file.Storage) ServiceOption {
	return func(s *service) {
		if fs != nil {
			s.files = fs
		}
	}
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAuthorizer replaces the authorizer built from DefaultRoles.
func WithAuthorizer(a rbac.Authorizer) ServiceOption {
	return func(s *service) {
		if a != nil {
			s.authz = a
		}
	}
}
