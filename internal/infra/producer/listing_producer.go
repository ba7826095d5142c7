package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"sync/atomic"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	rjkafka "github.com/RoyceAzure/lab/bikemarket/internal/infra/kafka"
	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event_type"

// MessageWriter *kafka.Writer 滿足此介面
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type IListingEventProducer interface {
	PublishListingEvent(ctx context.Context, evt model.ListingEvent) error
	Close() error
}

// ListingEventProducer 同一 listing 的事件以 listing id 為 key, 落在同一分區保持順序
type ListingEventProducer struct {
	writer        MessageWriter
	topic         string
	retryAttempts int
	closed        atomic.Bool
}

func NewListingEventProducer(writer MessageWriter, topic string, retryAttempts int) *ListingEventProducer {
	return &ListingEventProducer{
		writer:        writer,
		topic:         topic,
		retryAttempts: retryAttempts,
	}
}

func NewKafkaListingEventProducer(cfg *rjkafka.Config) (*ListingEventProducer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewListingEventProducer(cfg.NewWriter(), cfg.Topic, cfg.RetryAttempts), nil
}

// PublishListingEvent 同步發送, 暫時性錯誤會重試
func (p *ListingEventProducer) PublishListingEvent(ctx context.Context, evt model.ListingEvent) error {
	if p.closed.Load() {
		return rjkafka.NewKafkaError("Produce", p.topic, rjkafka.ErrClientClosed)
	}

	msg, err := convertToMessage(evt)
	if err != nil {
		return rjkafka.NewKafkaError("Produce", p.topic, err)
	}

	for attempt := 0; attempt <= p.retryAttempts; attempt++ {
		if ctx.Err() != nil {
			return rjkafka.NewKafkaError("Produce", p.topic, ctx.Err())
		}
		err = p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}
		if !rjkafka.IsTemporary(err) {
			break
		}
	}
	return rjkafka.NewKafkaError("Produce", p.topic, err)
}

func (p *ListingEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func convertToMessage(evt model.ListingEvent) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}

	key := string(evt.Type)
	if len(evt.ListingIDs) > 0 {
		key = strconv.FormatUint(uint64(evt.ListingIDs[0]), 10)
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   eventTypeHeader,
				Value: []byte(evt.Type),
			},
		},
	}, nil
}

var _ IListingEventProducer = (*ListingEventProducer)(nil)
