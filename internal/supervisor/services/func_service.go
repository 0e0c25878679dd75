package services

import "context"

// FuncService adapts a blocking `func(ctx) error` loop into a
// suture.Service. It covers every long-running loop in the ingestion
// core that isn't an HTTP server: scheduler.Scheduler.Run, the ASR/
// vision worker pools' Run loops, and queue.Consumer.Run. All of these
// already take a context.Context and return on cancellation, so no
// extra shutdown orchestration is needed beyond calling the function.
type FuncService struct {
	name string
	fn   func(ctx context.Context) error
}

// NewFuncService wraps fn as a named suture.Service. name identifies the
// service in suture's logs (e.g. "asr-scheduler", "vision-worker-0").
func NewFuncService(name string, fn func(ctx context.Context) error) *FuncService {
	return &FuncService{name: name, fn: fn}
}

// Serve implements suture.Service by calling the wrapped function.
// A nil return means the loop exited cleanly and suture will not
// restart it; any other error is treated as a crash and retried per
// the parent supervisor's backoff policy.
func (f *FuncService) Serve(ctx context.Context) error {
	return f.fn(ctx)
}

// String implements fmt.Stringer for suture's logging.
func (f *FuncService) String() string {
	return f.name
}
