package httpapi

import (
	"net/http"

	"github.com/dmitrymomot/koskit/modules/kos"
)

type propertyStatusRequest struct {
	Status kos.PropertyStatus `json:"status"`
}

func (api *API) createProperty(r *http.Request, a kos.Actor, in kos.PropertyInput) (Response, error) {
	p, err := api.svc.CreateProperty(r.Context(), a, in)
	if err != nil {
		return nil, err
	}
	return Created(p), nil
}

func (api *API) listProperties(r *http.Request, a kos.Actor) (Response, error) {
	list, err := api.svc.ListProperties(r.Context(), a)
	if err != nil {
		return nil, err
	}
	return JSON(list), nil
}

func (api *API) getProperty(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "propertyID")
	if err != nil {
		return nil, err
	}
	p, err := api.svc.GetProperty(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(p), nil
}

func (api *API) updatePropertyStatus(r *http.Request, a kos.Actor, req propertyStatusRequest) (Response, error) {
	id, err := pathUUID(r, "propertyID")
	if err != nil {
		return nil, err
	}
	p, err := api.svc.UpdatePropertyStatus(r.Context(), a, id, req.Status)
	if err != nil {
		return nil, err
	}
	return JSON(p), nil
}

func (api *API) deleteProperty(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "propertyID")
	if err != nil {
		return nil, err
	}
	if err := api.svc.DeleteProperty(r.Context(), a, id); err != nil {
		return nil, err
	}
	return NoContent(), nil
}

func (api *API) createRoom(r *http.Request, a kos.Actor, in kos.RoomInput) (Response, error) {
	propertyID, err := pathUUID(r, "propertyID")
	if err != nil {
		return nil, err
	}
	room, err := api.svc.CreateRoom(r.Context(), a, propertyID, in)
	if err != nil {
		return nil, err
	}
	return Created(room), nil
}

func (api *API) listRooms(r *http.Request, a kos.Actor) (Response, error) {
	propertyID, err := pathUUID(r, "propertyID")
	if err != nil {
		return nil, err
	}
	rooms, err := api.svc.ListRooms(r.Context(), a, propertyID)
	if err != nil {
		return nil, err
	}
	return JSON(rooms), nil
}

func (api *API) getRoom(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "roomID")
	if err != nil {
		return nil, err
	}
	room, err := api.svc.GetRoom(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(room, WithMeta("allowed_events", kos.AllowedRoomEvents(room.Status))), nil
}

func (api *API) deleteRoom(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "roomID")
	if err != nil {
		return nil, err
	}
	if err := api.svc.DeleteRoom(r.Context(), a, id); err != nil {
		return nil, err
	}
	return NoContent(), nil
}
