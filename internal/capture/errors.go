package capture

import "errors"

// ErrTransport reports that the source stream was unreachable; the
// transcoder's own reconnect logic absorbs brief outages, and the
// supervisor's restart budget absorbs sustained ones.
var ErrTransport = errors.New("capture: transport error")

// ErrRestartBudgetExhausted is returned when a leg has exceeded
// max_restarts_per_hour and the recording is being marked failed.
var ErrRestartBudgetExhausted = errors.New("capture: restart budget exhausted")

// ErrNoLegsEnabled is returned when a channel config disables both audio
// and video capture (config validation should already prevent this).
var ErrNoLegsEnabled = errors.New("capture: no capture legs enabled")
