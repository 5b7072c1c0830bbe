// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/ManuGH/foodscan/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestMemoryBusDeliversToEverySubscriber(t *testing.T) {
	b := NewMemoryBus()
	s1, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	s2, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, b.Publish(context.Background(), "topic", "hello"))
	require.Equal(t, "hello", <-s1.C())
	require.Equal(t, "hello", <-s2.C())
}

func TestMemoryBusPublishContextTimeoutIncrementsDropMetrics(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	// Fill subscriber channel to capacity so next publish blocks.
	for i := 0; i < cap(sub.C()); i++ {
		require.NoError(t, b.Publish(context.Background(), "topic", "msg"))
	}

	initial := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = b.Publish(ctx, "topic", "blocked")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	final := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout"))
	require.Greater(t, final, initial, "expected bus drop counter to increase")
}

func TestMemoryBusConflatedSubscriberKeepsLatest(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "state", WithBuffer(1), WithConflation())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(context.Background(), "state", i))
	}
	require.Equal(t, 4, <-sub.C())
	select {
	case m := <-sub.C():
		t.Fatalf("unexpected extra message %v", m)
	default:
	}
}

func TestMemoryBusCloseUnblocksPublisher(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic", WithBuffer(1))
	require.NoError(t, err)
	require.NoError(t, b.Publish(context.Background(), "topic", 1))

	done := make(chan error, 1)
	go func() { done <- b.Publish(context.Background(), "topic", 2) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, sub.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish stayed blocked after subscriber closed")
	}
}

func TestMemoryBusSubscriptionEndsWithContext(t *testing.T) {
	b := NewMemoryBus()
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := b.Subscribe(ctx, "topic")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-sub.C():
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancellation")
	}
}

func TestMemoryBusPublishRejectsNilContext(t *testing.T) {
	b := NewMemoryBus()
	//nolint:staticcheck // nil context is the case under test
	err := b.Publish(nil, "topic", "msg")
	require.Error(t, err)
	require.Contains(t, err.Error(), "context is nil")
}

func TestMemoryBusClosedRejectsPublish(t *testing.T) {
	b := NewMemoryBus()
	require.NoError(t, b.Close())
	require.ErrorIs(t, b.Publish(context.Background(), "topic", 1), ErrClosed)
	_, err := b.Subscribe(context.Background(), "topic")
	require.ErrorIs(t, err, ErrClosed)
}
