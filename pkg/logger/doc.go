// Package logger builds the service's *slog.Logger.
//
// New assembles a JSON or text handler, applies static attributes and wraps
// the result with LogHandlerDecorator, which pulls request-scoped values
// (request id, acting owner, acting user) out of context.Context on every
// record. The attribute helpers in attr.go keep key names consistent across
// packages:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "kosd"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "tenant checked in", logger.RoomID(room.ID), logger.TenantID(t.ID))
package logger
