package kos

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/pkg/audit"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/validator"
)

// UsageInfo pairs the current count of a resource with its limit.
type UsageInfo struct {
	Current int `json:"current"`
	Limit   int `json:"limit"`
}

// Usage reports an owner's plan and quota consumption.
type Usage struct {
	OwnerID    uuid.UUID          `json:"owner_id"`
	PlanSlug   string             `json:"plan_slug"`
	Status     SubscriptionStatus `json:"status"`
	Properties UsageInfo          `json:"properties"`
	Rooms      UsageInfo          `json:"rooms"`
}

type limits struct {
	slug          string
	maxProperties int
	maxRooms      int
}

// GetOrCreateSubscription returns the actor's subscription, creating it on
// the default plan when the owner has none. Concurrent callers converge on
// the same row.
func (s *service) GetOrCreateSubscription(ctx context.Context, a Actor) (*Subscription, error) {
	if err := s.authorizeOwned(a, PermSubscriptionsRead); err != nil {
		return nil, err
	}

	var (
		sub     *Subscription
		created bool
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		sub, created, err = s.ensureSubscription(ctx, tx, a.OwnerID, false)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}

	if created {
		s.log.InfoContext(ctx, "subscription created",
			logger.OwnerID(a.OwnerID),
			slog.String("plan", sub.PlanSlug),
		)
		s.record(ctx, a, "subscription.created", "subscription", a.OwnerID,
			audit.WithMetadata("plan", sub.PlanSlug))
	}
	return s.presentSubscription(sub), nil
}

func (s *service) ChangeSubscription(ctx context.Context, a Actor, ownerID uuid.UUID, planSlug string, endDate *time.Time) (*Subscription, error) {
	if err := s.authorize(a, PermSubscriptionsManage); err != nil {
		return nil, err
	}

	today := s.today()
	rules := []validator.Rule{
		validator.RequiredUUID("owner_id", ownerID),
		validator.RequiredString("plan_slug", planSlug),
	}
	if endDate != nil {
		rules = append(rules, validator.DateNotBefore("end_date", dateOf(*endDate), today))
	}
	if err := validationError(validator.Apply(rules...)); err != nil {
		return nil, err
	}

	var sub, before *Subscription
	err := s.store.WithTx(ctx, func(tx Tx) error {
		plan, err := tx.GetPlan(ctx, planSlug)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return fieldError("plan_slug", "plan is not active")
		}

		current, _, err := s.ensureSubscription(ctx, tx, ownerID, true)
		if err != nil {
			return err
		}
		prev := *current
		before = &prev

		current.PlanSlug = plan.Slug
		current.MaxProperties = plan.MaxProperties
		current.MaxRooms = plan.MaxRooms
		current.StartDate = today
		current.EndDate = nil
		if endDate != nil {
			end := dateOf(*endDate)
			current.EndDate = &end
		}
		current.Status = SubscriptionActive
		current.UpdatedAt = s.now().UTC()
		if err := tx.UpdateSubscription(ctx, current); err != nil {
			return err
		}
		sub = current
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.log.InfoContext(ctx, "subscription changed",
		logger.OwnerID(ownerID),
		logger.UserID(a.UserID),
		logger.Transition(before.PlanSlug, sub.PlanSlug),
	)
	s.record(ctx, a, "subscription.changed", "subscription", ownerID,
		audit.WithActor(ownerID.String(), a.UserID.String(), a.Role),
		audit.WithMetadata("from_plan", before.PlanSlug),
		audit.WithMetadata("to_plan", sub.PlanSlug),
	)
	return s.presentSubscription(sub), nil
}

func (s *service) CancelSubscription(ctx context.Context, a Actor, ownerID uuid.UUID) (*Subscription, error) {
	if err := s.authorize(a, PermSubscriptionsManage); err != nil {
		return nil, err
	}

	var (
		sub     *Subscription
		changed bool
	)
	err := s.store.WithTx(ctx, func(tx Tx) error {
		current, err := tx.GetSubscription(ctx, ownerID, true)
		if err != nil {
			return err
		}
		sub = current
		if current.Status == SubscriptionCancelled {
			changed = false
			return nil
		}
		current.Status = SubscriptionCancelled
		current.UpdatedAt = s.now().UTC()
		changed = true
		return tx.UpdateSubscription(ctx, current)
	})
	if err != nil {
		return nil, storeError(err)
	}

	if changed {
		s.log.InfoContext(ctx, "subscription cancelled", logger.OwnerID(ownerID), logger.UserID(a.UserID))
		s.record(ctx, a, "subscription.cancelled", "subscription", ownerID,
			audit.WithActor(ownerID.String(), a.UserID.String(), a.Role))
	}
	return s.presentSubscription(sub), nil
}

// Usage is read-only: an owner without a subscription is reported against
// the default limits and no row is created.
func (s *service) Usage(ctx context.Context, a Actor) (*Usage, error) {
	if err := s.authorizeOwned(a, PermSubscriptionsRead); err != nil {
		return nil, err
	}

	usage := &Usage{OwnerID: a.OwnerID}
	err := s.store.View(ctx, func(tx Tx) error {
		var lim limits
		sub, err := tx.GetSubscription(ctx, a.OwnerID, false)
		switch {
		case err == nil:
			usage.Status = sub.EffectiveStatus(s.today())
			if lim, err = s.effectiveLimits(ctx, tx, sub); err != nil {
				return err
			}
			usage.PlanSlug = sub.PlanSlug
		case errors.Is(err, ErrNotFound):
			usage.Status = SubscriptionActive
			if lim, err = s.defaultLimits(ctx, tx); err != nil {
				return err
			}
			usage.PlanSlug = lim.slug
		default:
			return err
		}

		usage.Properties.Limit = lim.maxProperties
		usage.Rooms.Limit = lim.maxRooms
		if usage.Properties.Current, err = tx.CountProperties(ctx, a.OwnerID); err != nil {
			return err
		}
		usage.Rooms.Current, err = tx.CountRooms(ctx, a.OwnerID)
		return err
	})
	if err != nil {
		return nil, storeError(err)
	}
	return usage, nil
}

// ensureSubscription loads the owner's subscription, inserting a default one
// first if needed. created reports whether this call inserted the row.
func (s *service) ensureSubscription(ctx context.Context, tx Tx, ownerID uuid.UUID, forUpdate bool) (*Subscription, bool, error) {
	sub, err := tx.GetSubscription(ctx, ownerID, forUpdate)
	if err == nil {
		return sub, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	lim, err := s.defaultLimits(ctx, tx)
	if err != nil {
		return nil, false, err
	}
	now := s.now().UTC()
	created, err := tx.InsertSubscriptionIfAbsent(ctx, &Subscription{
		OwnerID:       ownerID,
		PlanSlug:      lim.slug,
		MaxProperties: lim.maxProperties,
		MaxRooms:      lim.maxRooms,
		StartDate:     dateOf(now),
		Status:        SubscriptionActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return nil, false, err
	}

	sub, err = tx.GetSubscription(ctx, ownerID, forUpdate)
	if err != nil {
		return nil, false, err
	}
	return sub, created, nil
}

// defaultLimits uses the default plan when it exists and is active, and the
// configured fallback limits otherwise.
func (s *service) defaultLimits(ctx context.Context, tx Tx) (limits, error) {
	fallback := limits{
		slug:          s.cfg.DefaultPlanSlug,
		maxProperties: s.cfg.DefaultMaxProperties,
		maxRooms:      s.cfg.DefaultMaxRooms,
	}
	plan, err := tx.GetPlan(ctx, s.cfg.DefaultPlanSlug)
	switch {
	case errors.Is(err, ErrNotFound):
		return fallback, nil
	case err != nil:
		return limits{}, err
	case !plan.IsActive:
		return fallback, nil
	}
	return limits{slug: plan.Slug, maxProperties: plan.MaxProperties, maxRooms: plan.MaxRooms}, nil
}

// effectiveLimits falls back to the default limits once a subscription has
// lapsed or been cancelled.
func (s *service) effectiveLimits(ctx context.Context, tx Tx, sub *Subscription) (limits, error) {
	if sub.EffectiveStatus(s.today()) == SubscriptionActive {
		return limits{slug: sub.PlanSlug, maxProperties: sub.MaxProperties, maxRooms: sub.MaxRooms}, nil
	}
	return s.defaultLimits(ctx, tx)
}

func (s *service) presentSubscription(sub *Subscription) *Subscription {
	out := *sub
	out.Status = sub.EffectiveStatus(s.today())
	return &out
}
