package httpapi

import (
	"net/http"

	"github.com/dmitrymomot/koskit/modules/kos"
)

type submitPaymentRequest struct {
	Amount      int64             `json:"amount"`
	Method      kos.PaymentMethod `json:"payment_method"`
	PaymentDate *Date             `json:"payment_date"`
	ProofImage  string            `json:"proof_image"`
	Notes       string            `json:"notes"`
}

type rejectPaymentRequest struct {
	Notes string `json:"notes"`
}

func (api *API) submitPayment(r *http.Request, a kos.Actor, req submitPaymentRequest) (Response, error) {
	billID, err := pathUUID(r, "billID")
	if err != nil {
		return nil, err
	}
	p, err := api.svc.SubmitPayment(r.Context(), a, billID, kos.PaymentInput{
		Amount:      req.Amount,
		Method:      req.Method,
		PaymentDate: req.PaymentDate.Ptr(),
		ProofImage:  req.ProofImage,
		Notes:       req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return Created(p), nil
}

func (api *API) listPayments(r *http.Request, a kos.Actor) (Response, error) {
	billID, err := pathUUID(r, "billID")
	if err != nil {
		return nil, err
	}
	list, err := api.svc.ListPayments(r.Context(), a, billID)
	if err != nil {
		return nil, err
	}
	return JSON(list), nil
}

func (api *API) getPayment(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "paymentID")
	if err != nil {
		return nil, err
	}
	p, err := api.svc.GetPayment(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	return JSON(p), nil
}

func (api *API) confirmPayment(r *http.Request, a kos.Actor) (Response, error) {
	id, err := pathUUID(r, "paymentID")
	if err != nil {
		return nil, err
	}
	res, err := api.svc.ConfirmPayment(r.Context(), a, id)
	if err != nil {
		return nil, err
	}
	if !res.AlreadyConfirmed {
		api.metrics.observeReview("confirmed")
	}
	return JSON(res), nil
}

func (api *API) rejectPayment(r *http.Request, a kos.Actor, req rejectPaymentRequest) (Response, error) {
	id, err := pathUUID(r, "paymentID")
	if err != nil {
		return nil, err
	}
	p, err := api.svc.RejectPayment(r.Context(), a, id, req.Notes)
	if err != nil {
		return nil, err
	}
	api.metrics.observeReview("rejected")
	return JSON(p), nil
}
