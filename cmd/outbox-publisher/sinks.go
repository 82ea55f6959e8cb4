package main

import (
	"context"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/hatchery-backend/pkg/config"
	"github.com/angelmondragon/hatchery-backend/pkg/outbox/registry"
)

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type pubSubSink struct {
	client pubSubClient
}

func newPubSubSink(client pubSubClient) (*pubSubSink, error) {
	if client == nil {
		return nil, errors.New("pubsub client is required")
	}
	return &pubSubSink{client: client}, nil
}

func (s *pubSubSink) Name() string { return config.OutboxSinkPubSub }

func (s *pubSubSink) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *pubSubSink) Publish(ctx context.Context, msg Message) error {
	pub := s.client.Publisher(msg.Topic)
	if pub == nil {
		return registry.Permanent(fmt.Errorf("publisher not configured for topic %s", msg.Topic))
	}
	result := pub.Publish(ctx, &gcppubsub.Message{
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})
	_, err := result.Get(ctx)
	return err
}

type kafkaProducer interface {
	Topic() string
	Publish(ctx context.Context, key string, payload []byte, headers map[string]string) error
}

type kafkaSink struct {
	producer kafkaProducer
}

func newKafkaSink(producer kafkaProducer) (*kafkaSink, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	return &kafkaSink{producer: producer}, nil
}

func (s *kafkaSink) Name() string { return config.OutboxSinkKafka }

func (s *kafkaSink) Ping(context.Context) error { return nil }

func (s *kafkaSink) Publish(ctx context.Context, msg Message) error {
	if msg.Topic != s.producer.Topic() {
		return registry.Permanent(fmt.Errorf("kafka producer writes %s, event routed to %s", s.producer.Topic(), msg.Topic))
	}
	return s.producer.Publish(ctx, msg.Key, msg.Data, msg.Attributes)
}
