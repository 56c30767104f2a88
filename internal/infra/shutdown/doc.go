// Package shutdown coordinates graceful process termination.
//
// Components register hooks as they start; on SIGINT, SIGTERM, Trigger or
// context cancellation the hooks run in reverse registration order under
// a shared timeout, so listeners stop before the stores they use close.
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("storage", engine.Close)
//	h.OnShutdown("protocol server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
