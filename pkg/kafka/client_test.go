package kafka

import (
	"testing"

	"news-rag-client/internal/config"
	"news-rag-client/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestNewPublisherWithoutBrokersIsNoop(t *testing.T) {
	p := NewPublisher(config.KafkaConfig{Topic: "t"})
	assert.IsType(t, events.Noop{}, p)
	assert.NoError(t, p.Close())
}

func TestNewPublisherWithBrokers(t *testing.T) {
	p := NewPublisher(config.KafkaConfig{Brokers: "k1:9092,k2:9092", Topic: "t"})
	producer, ok := p.(*Producer)
	if assert.True(t, ok) {
		assert.Equal(t, "t", producer.writer.Topic)
		assert.True(t, producer.writer.Async)
	}
}
