// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/metrics"
)

const (
	defaultBuffer = 64
	dropLogEvery  = 100
)

var dropCount atomic.Uint64

// MemoryBus is an in-memory pub/sub. It is not durable and delivers in-process
// while publish contexts remain active.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memSub
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memSub)}
}

// ErrClosed is returned when publishing to or subscribing on a closed bus.
var ErrClosed = errors.New("bus closed")

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for _, s := range b.subs[topic] {
		if s.conflate {
			s.offer(topic, msg)
			continue
		}
		select {
		case s.ch <- msg:
		case <-s.done:
		case <-ctx.Done():
			reason := publishDropReason(ctx.Err())
			metrics.IncBusDropReason(topic, reason)
			if count := dropCount.Add(1); count%dropLogEvery == 0 {
				logger := log.WithComponent("bus")
				logger.Warn().
					Str("topic", topic).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string, opts ...SubscribeOption) (Subscriber, error) {
	cfg := subscribeConfig{buffer: defaultBuffer}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &memSub{
		b:        b,
		topic:    topic,
		ch:       make(chan Message, cfg.buffer),
		done:     make(chan struct{}),
		conflate: cfg.conflate,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.subs[topic] = append(b.subs[topic], s)
	n := len(b.subs[topic])
	b.mu.Unlock()
	metrics.BusSubscribers.WithLabelValues(topic).Set(float64(n))

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				_ = s.Close()
			case <-s.done:
			}
		}()
	}
	return s, nil
}

// Close closes every subscription. Further publishes fail with ErrClosed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	var all []*memSub
	for _, lst := range b.subs {
		all = append(all, lst...)
	}
	b.mu.Unlock()
	for _, s := range all {
		_ = s.Close()
	}
	return nil
}

type memSub struct {
	b        *MemoryBus
	topic    string
	ch       chan Message
	done     chan struct{}
	once     sync.Once
	conflate bool
	offerMu  sync.Mutex
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

// offer enqueues msg, evicting the oldest pending message when full.
func (s *memSub) offer(topic string, msg Message) {
	s.offerMu.Lock()
	defer s.offerMu.Unlock()
	for {
		select {
		case <-s.done:
			return
		case s.ch <- msg:
			return
		default:
		}
		select {
		case <-s.ch:
			metrics.IncBusDropReason(topic, "conflated")
		default:
		}
	}
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		close(s.done)

		s.b.mu.Lock()
		lst := s.b.subs[s.topic]
		out := lst[:0]
		for _, c := range lst {
			if c != s {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		n := len(out)
		// No publisher holds the read lock here, so nothing can send on ch.
		close(s.ch)
		s.b.mu.Unlock()
		metrics.BusSubscribers.WithLabelValues(s.topic).Set(float64(n))
	})
	return nil
}

// Ensure compliance
var _ Bus = (*MemoryBus)(nil)
