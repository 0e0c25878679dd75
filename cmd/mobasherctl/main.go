// Command mobasherctl is the operator entry point for the ingestion
// core: it starts the capture supervisor, the read API, the per-stage
// schedulers and workers, and carries the day-to-day operator actions
// (channel management, retention, fresh reset) as one subcommand
// surfacepackage main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
