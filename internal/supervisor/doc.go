/*
Package supervisor provides process supervision for the ingestion core
using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of every long-running service in a Mobasher deployment:
channel captures, schedulers, and the read API. It provides Erlang/OTP-
style supervision with automatic restart, failure isolation, and
graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("mobasher")
	├── CaptureSupervisor ("capture-layer")
	│   └── one capture.Supervisor per active channel (ChannelSupervisor manages these)
	├── QueueSupervisor ("queue-layer")
	│   └── one FuncService-wrapped scheduler.Scheduler per pipeline stage
	└── APISupervisor ("api-layer")
	    └── HTTPServerService wrapping the read API's *http.Server

This hierarchy ensures that:
  - A channel's capture legs restarting  does not affect scheduler or API availability
  - A scheduler crash loop doesn't take down ingestion
  - Each layer restarts independently, with its own failure counter

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts
  - Event hooks via sutureslog adapter

# Usage Example

Basic setup in cmd/mobasherctl:

	import (
	    "log/slog"
	    "github.com/AthbiHC/mobasher/internal/supervisor"
	    "github.com/AthbiHC/mobasher/internal/supervisor/services"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddAPIService(services.NewHTTPServerService("api", server, 10*time.Second))
	    tree.AddQueueService(services.NewFuncService("asr-scheduler", asrScheduler.Run))

	    chanSup, _ := supervisor.NewChannelSupervisor(tree, channelStore, dataRoot)
	    chanSup.StartAll(ctx)

	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

Background operation:

	// Start in background
	errChan := tree.ServeBackground(ctx)

	// Do other setup...

	// Wait for shutdown
	if err := <-errChan; err != nil {
	    log.Printf("Supervisor error: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,          // Failures before backoff
	    FailureDecay:     30.0,         // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

# Failure Handling

The supervisor uses a failure counter with exponential decay:

1. Each service failure increments the counter
2. Counter decays exponentially over time (FailureDecay seconds)
3. When counter exceeds FailureThreshold, supervisor enters backoff
4. During backoff, restarts are delayed by FailureBackoff duration
5. If failures continue, the child supervisor may be restarted by parent

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: Service stopped cleanly, will not be restarted
  - Return error: Service crashed, will be restarted
  - Context canceled: Shutdown requested, return promptly

# Dynamic channel membership

ChannelSupervisor (channel_supervisor.go) manages one capture.Supervisor
per active channel, added to and removed from the capture layer at
runtime as `mobasherctl channels add/enable/disable` changes the active
set — no process restart required.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	// Get report of unstopped services
	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}

Common causes:
  - Goroutines not respecting context cancellation
  - Blocked network I/O without deadlines
  - Mutex deadlocks during shutdown

# Thread Safety

The SupervisorTree is safe for concurrent use:
  - Services can be added from any goroutine
  - Remove operations are synchronized
  - Multiple services can crash simultaneously

# See Also

  - internal/supervisor/services: generic suture.Service wrappers
  - github.com/thejerf/suture/v4: underlying library
*/
package supervisor
