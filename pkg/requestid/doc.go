// Package requestid attaches a correlation ID to every HTTP request.
//
// Middleware reuses a well-formed X-Request-ID header from the client or
// generates a UUID, stores it in the request context and echoes it back in the
// response. LoggerExtractor plugs the ID into pkg/logger so every record
// emitted while serving the request carries request_id. The domain layer reads
// the same ID through FromContext when writing audit events.
package requestid
