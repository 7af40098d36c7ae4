package kos

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

// PlanInput carries the editable fields of a plan. Slug is ignored on update.
type PlanInput struct {
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Price         int64    `json:"price"`
	MaxProperties int      `json:"max_properties"`
	MaxRooms      int      `json:"max_rooms"`
	Features      []string `json:"features"`
	IsActive      bool     `json:"is_active"`
	SortOrder     int      `json:"sort_order"`
}

func (in PlanInput) validate(withSlug bool) error {
	rules := []validator.Rule{
		validator.When(withSlug, validator.Slug("slug", in.Slug)),
		validator.RequiredString("name", in.Name),
		validator.MaxLenString("name", in.Name, 100),
		validator.NonNegative("price", in.Price),
		validator.Limit("max_properties", in.MaxProperties),
		validator.Limit("max_rooms", in.MaxRooms),
		validator.NonNegative("sort_order", in.SortOrder),
	}
	rules = append(rules, validator.Each("features", in.Features, func(field, f string) []validator.Rule {
		return []validator.Rule{validator.RequiredString(field, strings.TrimSpace(f))}
	})...)
	return validationError(validator.Apply(rules...))
}

func (in PlanInput) plan() Plan {
	return Plan{
		Slug:          in.Slug,
		Name:          strings.TrimSpace(in.Name),
		Price:         in.Price,
		MaxProperties: in.MaxProperties,
		MaxRooms:      in.MaxRooms,
		Features:      slices.Clone(in.Features),
		IsActive:      in.IsActive,
		SortOrder:     in.SortOrder,
	}
}

func (s *service) ListPlans(ctx context.Context, a Actor, activeOnly bool) ([]Plan, error) {
	if err := s.authorize(a, PermPlansRead); err != nil {
		return nil, err
	}
	var plans []Plan
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		plans, err = tx.ListPlans(ctx, activeOnly)
		return err
	})
	return plans, storeError(err)
}

func (s *service) GetPlan(ctx context.Context, a Actor, slug string) (*Plan, error) {
	if err := s.authorize(a, PermPlansRead); err != nil {
		return nil, err
	}
	var plan *Plan
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		plan, err = tx.GetPlan(ctx, slug)
		return err
	})
	return plan, storeError(err)
}

func (s *service) CreatePlan(ctx context.Context, a Actor, in PlanInput) (*Plan, error) {
	if err := s.authorize(a, PermPlansManage); err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}

	plan := in.plan()
	plan.CreatedAt = s.now().UTC()
	plan.UpdatedAt = plan.CreatedAt

	err := s.store.WithTx(ctx, func(tx Tx) error {
		return tx.InsertPlan(ctx, &plan)
	})
	if IsDuplicateKey(err, KeyPlanSlug) {
		return nil, fieldError("slug", "plan with this slug already exists")
	}
	if err != nil {
		return nil, storeError(err)
	}

	s.record(ctx, a, "plan.created", "plan", uuid.Nil, audit.WithMetadata("slug", plan.Slug))
	return &plan, nil
}

// UpdatePlan edits a plan in place. Existing subscriptions keep their limit
// snapshot until ReapplyPlan is called.
func (s *service) UpdatePlan(ctx context.Context, a Actor, slug string, in PlanInput) (*Plan, error) {
	if err := s.authorize(a, PermPlansManage); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var plan *Plan
	err := s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.GetPlan(ctx, slug)
		if err != nil {
			return err
		}
		next := in.plan()
		next.Slug = current.Slug
		next.CreatedAt = current.CreatedAt
		next.UpdatedAt = s.now().UTC()
		if err := tx.UpdatePlan(ctx, &next); err != nil {
			return err
		}
		plan = &next
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.record(ctx, a, "plan.updated", "plan", uuid.Nil, audit.WithMetadata("slug", slug))
	return plan, nil
}

func (s *service) DeletePlan(ctx context.Context, a Actor, slug string) error {
	if err := s.authorize(a, PermPlansManage); err != nil {
		return err
	}

	err := s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetPlan(ctx, slug); err != nil {
			return err
		}
		n, err := tx.CountSubscriptionsByPlan(ctx, slug)
		if err != nil {
			return err
		}
		if n > 0 {
			return &ConflictError{Entity: "plan", Reason: "plan " + slug + " is referenced by subscriptions"}
		}
		return tx.DeletePlan(ctx, slug)
	})
	if err != nil {
		return storeError(err)
	}

	s.record(ctx, a, "plan.deleted", "plan", uuid.Nil, audit.WithMetadata("slug", slug))
	return nil
}

// ReapplyPlan copies the plan's current limits onto every subscription that
// references it and returns how many subscriptions changed.
func (s *service) ReapplyPlan(ctx context.Context, a Actor, slug string) (int, error) {
	if err := s.authorize(a, PermPlansManage); err != nil {
		return 0, err
	}

	var n int
	err := s.store.WithTx(ctx, func(tx Tx) error {
		plan, err := tx.GetPlan(ctx, slug)
		if err != nil {
			return err
		}
		n, err = tx.ApplyPlanLimits(ctx, slug, plan.MaxProperties, plan.MaxRooms, s.now().UTC())
		return err
	})
	if err != nil {
		return 0, storeError(err)
	}

	s.log.InfoContext(ctx, "plan limits reapplied",
		slog.String("plan", slug),
		slog.Int("subscriptions", n),
	)
	s.record(ctx, a, "plan.reapplied", "plan", uuid.Nil,
		audit.WithMetadata("slug", slug),
		audit.WithMetadata("subscriptions", n),
	)
	return n, nil
}

// SeedPlans inserts catalog plans that do not exist yet and leaves existing
// ones untouched. It runs at startup, outside any actor's authority.
func (s *service) SeedPlans(ctx context.Context, plans []Plan) (int, error) {
	var inserted int
	err := s.store.WithTx(ctx, func(tx Tx) error {
		inserted = 0
		for _, p := range plans {
			_, err := tx.GetPlan(ctx, p.Slug)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrNotFound) {
				return err
			}
			p.CreatedAt = s.now().UTC()
			p.UpdatedAt = p.CreatedAt
			if err := tx.InsertPlan(ctx, &p); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, storeError(err)
	}
	if inserted > 0 {
		s.log.InfoContext(ctx, "plans seeded", slog.Int("inserted", inserted))
	}
	return inserted, nil
}
