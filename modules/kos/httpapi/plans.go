package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/koskit/modules/kos"
)

func (api *API) listPlans(r *http.Request, a kos.Actor) (Response, error) {
	activeOnly := true
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, ErrBadRequest
		}
		activeOnly = b
	}
	plans, err := api.svc.ListPlans(r.Context(), a, activeOnly)
	if err != nil {
		return nil, err
	}
	return JSON(plans), nil
}

func (api *API) getPlan(r *http.Request, a kos.Actor) (Response, error) {
	p, err := api.svc.GetPlan(r.Context(), a, chi.URLParam(r, "slug"))
	if err != nil {
		return nil, err
	}
	return JSON(p), nil
}

func (api *API) createPlan(r *http.Request, a kos.Actor, in kos.PlanInput) (Response, error) {
	p, err := api.svc.CreatePlan(r.Context(), a, in)
	if err != nil {
		return nil, err
	}
	return Created(p), nil
}

func (api *API) updatePlan(r *http.Request, a kos.Actor, in kos.PlanInput) (Response, error) {
	p, err := api.svc.UpdatePlan(r.Context(), a, chi.URLParam(r, "slug"), in)
	if err != nil {
		return nil, err
	}
	return JSON(p), nil
}

func (api *API) deletePlan(r *http.Request, a kos.Actor) (Response, error) {
	if err := api.svc.DeletePlan(r.Context(), a, chi.URLParam(r, "slug")); err != nil {
		return nil, err
	}
	return NoContent(), nil
}

func (api *API) reapplyPlan(r *http.Request, a kos.Actor) (Response, error) {
	n, err := api.svc.ReapplyPlan(r.Context(), a, chi.URLParam(r, "slug"))
	if err != nil {
		return nil, err
	}
	return JSON(map[string]int{"updated": n}), nil
}
