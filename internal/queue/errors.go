package queue

import "errors"

// ErrUnavailable marks a broker-unavailable condition: producers and
// consumers both treat this as transient and back off rather than fail
// hard the QueueUnavailable taxonomy entry.
var ErrUnavailable = errors.New("queue: broker unavailable")

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("queue: closed")
