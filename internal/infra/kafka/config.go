package kafka

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config listing 事件 producer 與 consumer 共用的設定
type Config struct {
	Brokers []string
	Topic   string
	GroupID string

	// 生產者配置
	RequiredAcks  int
	BatchSize     int
	BatchTimeout  time.Duration
	RetryAttempts int // producer 層的重試次數, Writer 本身只送一次

	// 消費者配置
	MinBytes       int
	MaxBytes       int
	MaxWait        time.Duration
	CommitInterval time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Topic:          "listing-events",
		GroupID:        "bikemarket-cache",
		RequiredAcks:   -1, // 等待所有副本確認
		BatchSize:      100,
		BatchTimeout:   50 * time.Millisecond,
		RetryAttempts:  3,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: 0, // 同步 commit
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("%w: brokers is empty", ErrInvalidateParameter)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidateParameter)
	}
	return nil
}

func (c *Config) NewWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        c.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    c.BatchSize,
		BatchTimeout: c.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(c.RequiredAcks),
		MaxAttempts:  1, // 重試只在 producer 做一層
		Compression:  kafka.Snappy,
		ErrorLogger:  errorLogger("producer"),
	}
}

func (c *Config) NewReader() *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        c.Brokers,
		Topic:          c.Topic,
		GroupID:        c.GroupID,
		MinBytes:       c.MinBytes,
		MaxBytes:       c.MaxBytes,
		MaxWait:        c.MaxWait,
		CommitInterval: c.CommitInterval,
		StartOffset:    kafka.LastOffset,
		ErrorLogger:    errorLogger("consumer"),
	})
}
