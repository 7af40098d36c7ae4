package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/modules/kos"
)

type checkInRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	CheckInDate *Date  `json:"check_in_date"`
}

func (api *API) checkIn(r *http.Request, a kos.Actor, req checkInRequest) (Response, error) {
	roomID, err := pathUUID(r, "roomID")
	if err != nil {
		return nil, err
	}
	tn, err := api.svc.CheckIn(r.Context(), a, roomID, kos.TenantInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		CheckInDate: req.CheckInDate.Ptr(),
	})
	if err != nil {
		return nil, err
	}
	return Created(tn), nil
}

func (api *API) checkOut(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "tenantID")
	if err != nil {
		return nil, err
	}
	tn, err := api.svc.CheckOut(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(tn), nil
}

func (api *API) setMaintenance(r *http.Request, a kos.Actor) (Response, error) {
	return api.roomStatus(r, a, api.svc.SetMaintenance)
}

func (api *API) setAvailable(r *http.Request, a kos.Actor) (Response, error) {
	return api.roomStatus(r, a, api.svc.SetAvailable)
}

func (api *API) roomStatus(r *http.Request, a kos.Actor, change func(context.Context, kos.Actor, uuid.UUID) (*kos.RoomResult, error)) (Response, error) {
	id, err := pathUUID(r, "roomID")
	if err != nil {
		return nil, err
	}
	res, err := change(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(res.Room, WithMeta("changed", res.Changed)), nil
}

func (api *API) getTenant(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "tenantID")
	if err != nil {
		return nil, err
	}
	tn, err := api.svc.GetTenant(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(tn), nil
}

func (api *API) listTenants(r *http.Request, a kos.Actor) (Response, error) {
	roomID, err := pathUUID(r, "roomID")
	if err != nil {
		return nil, err
	}
	list, err := api.svc.ListTenants(r.Context(), a, roomID)
	if err != nil {
		return nil, err
	}
	return JSON(list), nil
}
