// Package server runs the HTTP listener with graceful shutdown.
//
// Run blocks until its context is cancelled or the process receives
// SIGINT or SIGTERM. In-flight requests are then drained and the
// registered shutdown functions run, for example to close a log file:
//
//	srv := server.New(app,
//		server.WithHost(cfg.Addr()),
//		server.WithShutdownFunc(func(context.Context) error {
//			return logFile.Close()
//		}),
//	)
//	if err := srv.Run(ctx); err != nil {
//		return err
//	}
package server
