/*
Package services provides suture.Service wrappers for the ingestion
core's long-running components.

This package adapts existing components' lifecycle patterns
(Run(ctx) error, ListenAndServe) into suture's context-aware Serve
pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation (blocking Run or ListenAndServe to Serve)
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Func (FuncService):
  - Wraps any func(ctx context.Context) error loop
  - Covers scheduler.Scheduler.Run, worker pool Run loops, and
    queue.Consumer.Run, all of which already take a context and return
    on cancellation

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/AthbiHC/mobasher/internal/supervisor"
	    "github.com/AthbiHC/mobasher/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, asrScheduler *scheduler.Scheduler) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    httpSvc := services.NewHTTPServerService("api", server, 30*time.Second)
	    tree.AddAPIService(httpSvc)

	    schedSvc := services.NewFuncService("asr-scheduler", asrScheduler.Run)
	    tree.AddQueueService(schedSvc)

	    tree.Serve(ctx)
	}

# Lifecycle Patterns

The package handles two lifecycle patterns:

Run Pattern (FuncService):

	type Runner interface {
	    Run(ctx context.Context) error
	}

	// Wrapped as:
	func (f *FuncService) Serve(ctx context.Context) error {
	    return f.fn(ctx)
	}

ListenAndServe Pattern (HTTPServerService):

	type Listener interface {
	    ListenAndServe() error
	    Shutdown(ctx context.Context) error
	}

	// Wrapped as:
	func (h *HTTPServerService) Serve(ctx context.Context) error {
	    go h.server.ListenAndServe()
	    <-ctx.Done()
	    return h.server.Shutdown(shutdownCtx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (f *FuncService) String() string {
	    return f.name
	}

Suture uses this for log messages:

	INFO asr-scheduler: starting
	INFO asr-scheduler: stopped
	ERROR asr-scheduler: restarting after failure

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: underlying supervision library
*/
package services
