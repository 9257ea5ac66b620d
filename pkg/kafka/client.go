// Package kafka 提供了将会话事件投递到 Kafka 的功能。
package kafka

import (
	"context"
	"encoding/json"
	"news-rag-client/internal/config"
	"news-rag-client/pkg/events"
	"news-rag-client/pkg/log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer 是基于 kafka.Writer 的 events.Publisher 实现。
type Producer struct {
	writer *kafka.Writer
}

// NewPublisher 根据配置创建事件发布者，未配置 brokers 时返回 events.Noop。
func NewPublisher(cfg config.KafkaConfig) events.Publisher {
	if strings.TrimSpace(cfg.Brokers) == "" {
		return events.Noop{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.Brokers, ",")...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warnw("Kafka 事件投递失败", "count", len(messages), "error", err)
			}
		},
	}
	log.Infof("Kafka 生产者初始化成功, topic=%s", cfg.Topic)
	return &Producer{writer: writer}
}

// Publish 以会话 ID 作为消息键发送事件，同一会话的事件落在同一分区。
func (p *Producer) Publish(ctx context.Context, event events.ConversationEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Time:  event.At,
	})
}

// Close 刷新并关闭底层 writer。
func (p *Producer) Close() error {
	return p.writer.Close()
}
