// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run listens, serves and blocks until the context is cancelled or the
// listener fails; it then drains in-flight requests within the shutdown
// timeout and runs registered shutdown functions (flush audit queues, close
// pools) in registration order.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//	    httpserver.WithLogger(log),
//	    httpserver.WithShutdownFunc(pool.Close),
//	)
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	if err := srv.Run(ctx, router); err != nil { ... }
//
// HealthCheckHandler serves liveness and readiness probes from named checks.
package httpserver
