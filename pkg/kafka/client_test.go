package kafka

import (
	"cms-go/internal/config"
	"cms-go/pkg/events"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrokersSplitsAndTrims(t *testing.T) {
	got := brokers(config.KafkaConfig{Brokers: "kafka-1:9092, kafka-2:9092,,"})
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, got)
}

func TestPublishWithoutProducer(t *testing.T) {
	producer = nil
	err := Publisher{}.Publish(context.Background(), events.IndexEvent{Action: events.ActionUpsert, Kind: "post", ID: 1})
	assert.Error(t, err)
}
