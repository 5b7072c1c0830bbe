package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/ManuGH/foodscan/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, NewProducerConfig("test"))
	defer func() { _ = producer.Close() }()

	entry := history.Entry{Barcode: "3017620422003", Title: "Nutella", ScanCount: 1,
		LastSeen: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Type != "product.scanned" || env.Entry.Barcode != entry.Barcode {
			return errors.New("unexpected envelope")
		}
		return nil
	})

	s := New(producer, "foodscan.scans", "station-1")
	require.NoError(t, s.Publish(context.Background(), entry))
}

func TestSink_PublishError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer func() { _ = producer.Close() }()
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	s := New(producer, "foodscan.scans", "")
	err := s.Publish(context.Background(), history.Entry{Barcode: "1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestHeaderCarrier(t *testing.T) {
	msg := &sarama.ProducerMessage{}
	c := headerCarrier{msg: msg}
	c.Set("traceparent", "a")
	c.Set("traceparent", "b")
	c.Set("baggage", "x=y")

	assert.Equal(t, "b", c.Get("traceparent"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"traceparent", "baggage"}, c.Keys())
}

func TestNewProducerConfig(t *testing.T) {
	cfg := NewProducerConfig("station")
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	require.NoError(t, cfg.Validate())
}
