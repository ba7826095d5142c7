package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestKafkaErrorUnwrap(t *testing.T) {
	err := NewKafkaError("Produce", "listing-events", kafka.LeaderNotAvailable)
	require.ErrorIs(t, err, kafka.LeaderNotAvailable)

	var kerr *KafkaError
	require.ErrorAs(t, err, &kerr)
	require.Equal(t, "Produce", kerr.Operation)
	require.Contains(t, err.Error(), "listing-events")
}

func TestIsTemporary(t *testing.T) {
	require.True(t, IsTemporary(kafka.RequestTimedOut))
	require.True(t, IsTemporary(NewKafkaError("Produce", "t", kafka.NotLeaderForPartition)))
	require.True(t, IsTemporary(context.DeadlineExceeded))
	require.False(t, IsTemporary(context.Canceled))
	require.False(t, IsTemporary(kafka.TopicAuthorizationFailed))
	require.False(t, IsTemporary(errors.New("boom")))
	require.False(t, IsTemporary(nil))
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.ErrorIs(t, cfg.Validate(), ErrInvalidateParameter)

	cfg.Brokers = []string{"localhost:9092"}
	require.NoError(t, cfg.Validate())

	cfg.Topic = ""
	require.ErrorIs(t, cfg.Validate(), ErrInvalidateParameter)
}
