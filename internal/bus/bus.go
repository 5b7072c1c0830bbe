// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is the in-process event transport between the scan workflow,
// the camera adapter, the lookup sequencer and HTTP clients.
package bus

import "context"

// Message is an opaque event payload.
type Message interface{}

type Subscriber interface {
	// C returns a read-only message channel. It is closed by Close.
	C() <-chan Message
	// Close unsubscribes.
	Close() error
}

// Bus is the event transport abstraction.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string, opts ...SubscribeOption) (Subscriber, error)
}

type subscribeConfig struct {
	buffer   int
	conflate bool
}

// SubscribeOption tunes a single subscription.
type SubscribeOption func(*subscribeConfig)

// WithBuffer sets the subscriber channel capacity.
func WithBuffer(n int) SubscribeOption {
	return func(c *subscribeConfig) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithConflation makes a full subscriber drop its oldest pending message instead
// of blocking the publisher. Consumers that only care about the latest value
// (state observers, UI streams) should use it.
func WithConflation() SubscribeOption {
	return func(c *subscribeConfig) { c.conflate = true }
}
