package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/koskit/modules/kos"
)

// Identity headers set by the authenticating gateway.
const (
	HeaderUserID  = "X-User-ID"
	HeaderOwnerID = "X-Owner-ID"
	HeaderRole    = "X-Role"
)

// ActorFromRequest reads the caller's identity headers. Owners always act on
// their own account: an X-Owner-ID naming anyone else is forbidden. Other
// roles use X-Owner-ID to choose the account they act on.
func ActorFromRequest(r *http.Request) (kos.Actor, error) {
	raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if raw == "" {
		return kos.Actor{}, fmt.Errorf("%w: missing %s header", ErrUnauthorized, HeaderUserID)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return kos.Actor{}, fmt.Errorf("%w: invalid %s header", ErrUnauthorized, HeaderUserID)
	}

	a := kos.Actor{UserID: userID, Role: strings.TrimSpace(r.Header.Get(HeaderRole))}
	if a.Role == "" {
		a.Role = kos.RoleOwner
	}

	if raw := strings.TrimSpace(r.Header.Get(HeaderOwnerID)); raw != "" {
		if a.OwnerID, err = uuid.Parse(raw); err != nil {
			return kos.Actor{}, fmt.Errorf("%w: invalid %s header", ErrBadRequest, HeaderOwnerID)
		}
	}
	if a.Role == kos.RoleOwner {
		if a.OwnerID != uuid.Nil && a.OwnerID != userID {
			return kos.Actor{}, fmt.Errorf("%w: owners cannot act on another account", kos.ErrForbidden)
		}
		a.OwnerID = userID
	}
	return a, nil
}
