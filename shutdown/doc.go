// Package shutdown tears the recents daemon down in phases.
//
// Handlers register under a phase. Lower phases run first; handlers sharing
// a phase run concurrently. The daemon uses the phases below so websocket
// peers stop arriving before the relay announces its death, and the bus
// closes before telemetry flushes the spans describing all of it.
//
//	c := shutdown.NewCoordinator(10*time.Second, logger)
//	c.RegisterFunc("websocket", shutdown.PhaseListeners, srv.Shutdown)
//	c.RegisterFunc("bus", shutdown.PhaseTransport, func(context.Context) error { return b.Close() })
//	c.HandleSignals()
//	<-c.Done()
package shutdown
