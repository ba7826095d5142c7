package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	rjkafka "github.com/RoyceAzure/lab/bikemarket/internal/infra/kafka"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const defaultFetchBackoff = 500 * time.Millisecond

// MessageReader *kafka.Reader 滿足此介面
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CacheInvalidator 收到事件後要清除的快取
type CacheInvalidator interface {
	InvalidateListings(ctx context.Context)
	InvalidateBanners(ctx context.Context)
}

type IBaseConsumer interface {
	Start(ctx context.Context) error
	Stop()
	Done() <-chan struct{}
}

// ListingEventConsumer 其他節點的異動也要清除本節點的快取
type ListingEventConsumer struct {
	reader      MessageReader
	invalidator CacheInvalidator
	running     atomic.Bool
	closeChan   chan struct{}
	closeOnce   sync.Once
	done        chan struct{}
	handled     atomic.Int64
	backoff     time.Duration
}

func NewListingEventConsumer(reader MessageReader, invalidator CacheInvalidator) *ListingEventConsumer {
	return &ListingEventConsumer{
		reader:      reader,
		invalidator: invalidator,
		closeChan:   make(chan struct{}),
		done:        make(chan struct{}),
		backoff:     defaultFetchBackoff,
	}
}

func NewKafkaListingEventConsumer(cfg *rjkafka.Config, invalidator CacheInvalidator) (*ListingEventConsumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewListingEventConsumer(cfg.NewReader(), invalidator), nil
}

func (c *ListingEventConsumer) checkIsClosed() bool {
	select {
	case <-c.closeChan:
		return true
	default:
		return false
	}
}

// Start 在背景讀取, ctx 取消或 Stop 後結束
func (c *ListingEventConsumer) Start(ctx context.Context) error {
	if c.checkIsClosed() {
		return rjkafka.ErrClientClosed
	}
	if !c.running.CompareAndSwap(false, true) {
		return rjkafka.ErrConsumerAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-c.closeChan:
			cancel()
		case <-runCtx.Done():
		}
	}()

	go func() {
		defer close(c.done)
		defer cancel()
		c.loop(runCtx)
	}()
	return nil
}

func (c *ListingEventConsumer) loop(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Err(err).Msg("failed to fetch listing event")
			if !rjkafka.IsTemporary(err) {
				return
			}
			if !c.wait(ctx) {
				return
			}
			continue
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit listing event")
		}
	}
}

// wait 暫時性錯誤後等待 backoff, ctx 結束時回傳 false
func (c *ListingEventConsumer) wait(ctx context.Context) bool {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// handle 無法解析的訊息也清除, 寧可多清一次
func (c *ListingEventConsumer) handle(ctx context.Context, msg kafka.Message) {
	var evt model.ListingEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		log.Warn().Err(err).Int64("offset", msg.Offset).Msg("undecodable listing event, invalidating all caches")
		c.invalidator.InvalidateListings(ctx)
		c.invalidator.InvalidateBanners(ctx)
		c.handled.Add(1)
		return
	}

	if evt.Type == model.BannerEventChanged {
		c.invalidator.InvalidateBanners(ctx)
	} else {
		c.invalidator.InvalidateListings(ctx)
	}
	c.handled.Add(1)
	log.Debug().Str("event", string(evt.Type)).Uints("listing_ids", evt.ListingIDs).Msg("listing event handled")
}

// Handled 已處理的訊息數
func (c *ListingEventConsumer) Handled() int64 {
	return c.handled.Load()
}

func (c *ListingEventConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *ListingEventConsumer) Stop() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		if c.running.Load() {
			<-c.done
		}
		if err := c.reader.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close listing event reader")
		}
	})
}

var _ IBaseConsumer = (*ListingEventConsumer)(nil)
