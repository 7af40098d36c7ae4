package httpapi

import (
	"net/http"

	"github.com/dmitrymomot/koskit/modules/kos"
)

type createBillRequest struct {
	BillDate    *Date               `json:"bill_date"`
	DueDate     *Date               `json:"due_date"`
	PeriodStart *Date               `json:"period_start"`
	PeriodEnd   *Date               `json:"period_end"`
	Notes       string              `json:"notes"`
	Items       []kos.BillItemInput `json:"items"`
}

func (req createBillRequest) input() kos.BillInput {
	return kos.BillInput{
		BillDate:    req.BillDate.Ptr(),
		DueDate:     req.DueDate.Value(),
		PeriodStart: req.PeriodStart.Value(),
		PeriodEnd:   req.PeriodEnd.Value(),
		Notes:       req.Notes,
		Items:       req.Items,
	}
}

func (api *API) createBill(r *http.Request, a kos.Actor, req createBillRequest) (Response, error) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		return nil, err
	}
	b, err := api.svc.CreateBill(r.Context(), a, tenantID, req.input())
	if err != nil {
		return nil, err
	}
	return Created(b), nil
}

func (api *API) listBills(r *http.Request, a kos.Actor) (Response, error) {
	tenantID, err := pathUUID(r, "tenantID")
	if err != nil {
		return nil, err
	}
	list, err := api.svc.ListBills(r.Context(), a, tenantID)
	if err != nil {
		return nil, err
	}
	return JSON(list), nil
}

func (api *API) getBill(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "billID")
	if err != nil {
		return nil, err
	}
	b, err := api.svc.GetBill(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(b), nil
}

func (api *API) cancelBill(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "billID")
	if err != nil {
		return nil, err
	}
	res, err := api.svc.CancelBill(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(res.Bill, WithMeta("changed", res.Changed)), nil
}

func (api *API) markPaid(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "billID")
	if err != nil {
		return nil, err
	}
	res, err := api.svc.MarkPaid(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(res.Bill, WithMeta("changed", res.Changed)), nil
}

func (api *API) deleteBill(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "billID")
	if err != nil {
		return nil, err
	}
	if err := api.svc.DeleteBill(r.Context(), a, id); err != nil {
		return nil, err
	}
	return NoContent(), nil
}

func (api *API) invoice(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "billID")
	if err != nil {
		return nil, err
	}
	inv, err := api.svc.Invoice(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(inv), nil
}
