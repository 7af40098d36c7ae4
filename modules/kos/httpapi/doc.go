// Package httpapi exposes the kos service as a JSON API on a chi router.
//
// Callers are authenticated upstream. The gateway forwards the identity in
// trusted headers:
//
//	X-User-ID   acting user, required
//	X-Role      "owner" (default) or "operator"
//	X-Owner-ID  account the request operates on; owners default to themselves
//
// Every response uses the same envelope:
//
//	{"data": ..., "meta": {...}, "error": {"code": "...", "message": "...", "details": {...}}}
//
// Domain errors map to status codes as follows: not found 404, validation
// 422, quota exceeded and forbidden 403, invalid transitions and
// referential conflicts 409. Quota errors carry resource, limit and current
// in meta.
//
// Usage:
//
//	api := httpapi.New(svc, httpapi.WithLogger(log), httpapi.WithMetrics(metrics))
//	server.Run(ctx, api.Handler())
package httpapi
