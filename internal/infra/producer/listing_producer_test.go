package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	rjkafka "github.com/RoyceAzure/lab/bikemarket/internal/infra/kafka"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	failures []error
	written  []kafka.Message
	calls    int
	closed   int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if len(w.failures) > 0 {
		err := w.failures[0]
		w.failures = w.failures[1:]
		return err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

func TestPublishListingEvent(t *testing.T) {
	w := &fakeWriter{}
	p := NewListingEventProducer(w, "listing-events", 3)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	err := p.PublishListingEvent(context.Background(), model.ListingEvent{Type: model.ListingEventApproved, ListingIDs: []uint{42, 43}, OccurredAt: at})
	require.NoError(t, err)
	require.Len(t, w.written, 1)

	msg := w.written[0]
	require.Equal(t, "42", string(msg.Key))
	require.Equal(t, eventTypeHeader, msg.Headers[0].Key)
	require.Equal(t, "approved", string(msg.Headers[0].Value))

	var got model.ListingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	require.Equal(t, []uint{42, 43}, got.ListingIDs)
	require.True(t, at.Equal(got.OccurredAt))
}

func TestPublishBannerEventKeyedByType(t *testing.T) {
	w := &fakeWriter{}
	p := NewListingEventProducer(w, "listing-events", 0)
	require.NoError(t, p.PublishListingEvent(context.Background(), model.ListingEvent{Type: model.BannerEventChanged}))
	require.Equal(t, "banner_changed", string(w.written[0].Key))
}

func TestPublishRetriesTemporaryErrors(t *testing.T) {
	w := &fakeWriter{failures: []error{kafka.LeaderNotAvailable, kafka.RequestTimedOut}}
	p := NewListingEventProducer(w, "listing-events", 3)
	require.NoError(t, p.PublishListingEvent(context.Background(), model.ListingEvent{Type: model.ListingEventCreated, ListingIDs: []uint{1}}))
	require.Equal(t, 3, w.calls)
}

func TestPublishGivesUpAfterRetryAttempts(t *testing.T) {
	w := &fakeWriter{failures: []error{
		kafka.RequestTimedOut, kafka.RequestTimedOut, kafka.RequestTimedOut,
		kafka.RequestTimedOut, kafka.RequestTimedOut, kafka.RequestTimedOut,
	}}
	p := NewListingEventProducer(w, "listing-events", 3)
	err := p.PublishListingEvent(context.Background(), model.ListingEvent{Type: model.ListingEventUpdated, ListingIDs: []uint{2}})
	require.ErrorIs(t, err, kafka.RequestTimedOut)
	require.Equal(t, 4, w.calls)
}

func TestPublishStopsOnFatalError(t *testing.T) {
	w := &fakeWriter{failures: []error{kafka.TopicAuthorizationFailed}}
	p := NewListingEventProducer(w, "listing-events", 3)
	err := p.PublishListingEvent(context.Background(), model.ListingEvent{Type: model.ListingEventCreated})

	var kerr *rjkafka.KafkaError
	require.True(t, errors.As(err, &kerr))
	require.Equal(t, "listing-events", kerr.Topic)
	require.Equal(t, 1, w.calls)
}

func TestPublishAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewListingEventProducer(w, "listing-events", 0)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	require.Equal(t, 1, w.closed)

	err := p.PublishListingEvent(context.Background(), model.ListingEvent{Type: model.ListingEventCreated})
	require.ErrorIs(t, err, rjkafka.ErrClientClosed)
}
