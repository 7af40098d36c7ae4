package logger

import (
	"log/slog"

	"github.com/google/uuid"
)

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

func OwnerID(id uuid.UUID) slog.Attr    { return idAttr("owner_id", id) }
func UserID(id uuid.UUID) slog.Attr     { return idAttr("user_id", id) }
func PropertyID(id uuid.UUID) slog.Attr { return idAttr("property_id", id) }
func RoomID(id uuid.UUID) slog.Attr     { return idAttr("room_id", id) }
func TenantID(id uuid.UUID) slog.Attr   { return idAttr("tenant_id", id) }
func BillID(id uuid.UUID) slog.Attr     { return idAttr("bill_id", id) }
func PaymentID(id uuid.UUID) slog.Attr  { return idAttr("payment_id", id) }

// Component names the subsystem that wrote the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Role records the acting role under the key "role".
func Role(role string) slog.Attr {
	if role == "" {
		return slog.Attr{}
	}
	return slog.String("role", role)
}

// RequestID records the request identifier under the key "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Transition records a state change as a "transition" group.
func Transition(from, to string) slog.Attr {
	return Group("transition", slog.String("from", from), slog.String("to", to))
}

// Quota records a usage/limit pair for a resource.
func Quota(resource string, current, limit int64) slog.Attr {
	return Group("quota",
		slog.String("resource", resource),
		slog.Int64("current", current),
		slog.Int64("limit", limit),
	)
}

func idAttr(key string, id uuid.UUID) slog.Attr {
	if id == uuid.Nil {
		return slog.Attr{}
	}
	return slog.String(key, id.String())
}
