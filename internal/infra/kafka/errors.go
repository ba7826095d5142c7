package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var (
	ErrInvalidateParameter = errors.New("invalidate parameter")
	// ErrClientClosed 表示消費者或生產者已關閉
	ErrClientClosed = errors.New("consumer or producer is closed")
	// ErrConsumerAlreadyRunning 表示消費者已經在運行
	ErrConsumerAlreadyRunning = errors.New("consumer is already running")
)

// KafkaError 代表 Kafka 操作錯誤
type KafkaError struct {
	Operation string
	Topic     string
	Err       error
}

func (e *KafkaError) Error() string {
	return fmt.Sprintf("kafka operation %s on topic %s failed: %v", e.Operation, e.Topic, e.Err)
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

func NewKafkaError(operation, topic string, err error) error {
	return &KafkaError{
		Operation: operation,
		Topic:     topic,
		Err:       err,
	}
}

// IsTemporary 可重試的錯誤
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, kafka.LeaderNotAvailable) ||
		errors.Is(err, kafka.NotLeaderForPartition) ||
		errors.Is(err, kafka.RequestTimedOut) ||
		errors.Is(err, kafka.RebalanceInProgress) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "temporary") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "i/o timeout")
}

func errorLogger(role string) kafka.LoggerFunc {
	return func(msg string, args ...any) {
		log.Error().Str("component", "kafka_"+role).Msgf(msg, args...)
	}
}
