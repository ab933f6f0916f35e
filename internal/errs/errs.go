// Package errs classifies the failure taxonomy used across the publisher
// and subscriber: InvalidInput, Transport, Timeout, ChannelClosed (spec §7).
package errs

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("...: %w", Kind) and unwrap with
// errors.Is to classify a failure without string matching.
var (
	// InvalidInput covers a bad control line, a malformed quote frame,
	// or a ticker longer than 4 bytes.
	InvalidInput = errors.New("invalid input")

	// Transport covers bind/accept/recv/send failures.
	Transport = errors.New("transport error")

	// Timeout covers subscriber-side silence detection.
	Timeout = errors.New("timeout")

	// ChannelClosed covers a fatal internal queue shutdown.
	ChannelClosed = errors.New("channel closed")
)
