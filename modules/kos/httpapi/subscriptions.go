package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/koskit/modules/kos"
)

type changeSubscriptionRequest struct {
	PlanSlug string `json:"plan_slug"`
	EndDate  *Date  `json:"end_date"`
}

func (api *API) getSubscription(r *http.Request, a kos.Actor) (Response, error) {
	sub, err := api.svc.GetOrCreateSubscription(r.Context(), a)
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}

func (api *API) usage(r *http.Request, a kos.Actor) (Response, error) {
	u, err := api.svc.Usage(r.Context(), a)
	if err != nil {
		return nil, err
	}
	return JSON(u), nil
}

// checkQuota answers 204 when one more resource may be created.
func (api *API) checkQuota(r *http.Request, a kos.Actor) (Response, error) {
	var err error
	switch chi.URLParam(r, "resource") {
	case kos.ResourceProperties:
		err = api.svc.CanCreateProperty(r.Context(), a)
	case kos.ResourceRooms:
		err = api.svc.CanCreateRoom(r.Context(), a)
	default:
		return nil, kos.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return NoContent(), nil
}

func (api *API) changeSubscription(r *http.Request, a kos.Actor, req changeSubscriptionRequest) (Response, error) {
	ownerID, err := pathUUID(r, "ownerID")
	if err != nil {
		return nil, err
	}
	sub, err := api.svc.ChangeSubscription(r.Context(), a, ownerID, req.PlanSlug, req.EndDate.Ptr())
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}

func (api *API) cancelSubscription(r *http.Request, a kos.Actor) (Response, error) {
	ownerID, err := pathUUID(r, "ownerID")
	if err != nil {
		return nil, err
	}
	sub, err := api.svc.CancelSubscription(r.Context(), a, ownerID)
	if err != nil {
		return nil, err
	}
	return JSON(sub), nil
}
