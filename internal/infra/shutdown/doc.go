// Package shutdown coordinates graceful process shutdown.
//
// Components register hooks as they start; on SIGINT, SIGTERM, a canceled
// context or an explicit Trigger the hooks run in reverse order under a
// shared timeout:
//
//	h := shutdown.NewHandler(30*time.Second, log)
//	h.OnShutdown("storage", store.Close)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
