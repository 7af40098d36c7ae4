package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/koskit/modules/kos"
	"github.com/dmitrymomot/koskit/pkg/logger"
	"github.com/dmitrymomot/koskit/pkg/requestid"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HandlerFunc serves a request for an identified actor.
type HandlerFunc func(r *http.Request, a kos.Actor) (Response, error)

// BodyHandlerFunc additionally receives the decoded JSON body.
type BodyHandlerFunc[R any] func(r *http.Request, a kos.Actor, req R) (Response, error)

func (api *API) handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := ActorFromRequest(r)
		if err != nil {
			api.fail(w, r, err)
			return
		}
		resp, err := h(r, a)
		api.render(w, r, resp, err)
	}
}

// withBody decodes the JSON body into R before calling h.
func withBody[R any](api *API, h BodyHandlerFunc[R]) http.HandlerFunc {
	return api.handle(func(r *http.Request, a kos.Actor) (Response, error) {
		var req R
		if err := decodeJSON(r, &req); err != nil {
			return nil, err
		}
		return h(r, a, req)
	})
}

func (api *API) render(w http.ResponseWriter, r *http.Request, resp Response, err error) {
	if err == nil && resp == nil {
		err = ErrNilResponse
	}
	if err != nil {
		api.fail(w, r, err)
		return
	}
	if err := resp.Render(w, r); err != nil {
		api.log.ErrorContext(r.Context(), "failed to render response", logger.Error(err))
	}
}

func (api *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	info := classifyError(err)
	api.metrics.observeError(err)

	api.log.LogAttrs(r.Context(), info.level, "request failed",
		logger.Error(err),
		slog.Int("status_code", info.status),
		slog.String("code", info.code),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("httpapi"),
	)

	if rerr := errorResponse(info, requestid.FromContext(r.Context())).Render(w, r); rerr != nil {
		api.log.ErrorContext(r.Context(), "failed to render error response", logger.Error(rerr))
	}
}
