package events

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"agent-rating-service/internal/config"
)

// Transport is a connected publisher/subscriber pair. Close releases both.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber

	closers []func() error
}

// NewTransport builds the transport selected by EVENTS_TRANSPORT. Kafka is
// the production transport; the in-process channel serves local runs and
// tests without a broker.
func NewTransport(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	switch cfg.Transport {
	case config.EventsTransportKafka:
		return newKafkaTransport(cfg, logger)
	case config.EventsTransportChannel:
		return newChannelTransport(logger), nil
	default:
		return nil, fmt.Errorf("unknown events transport %q", cfg.Transport)
	}
}

// Close shuts down the underlying publisher and subscriber.
func (t *Transport) Close() error {
	var firstErr error
	for _, close := range t.closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newKafkaTransport(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Transport, error) {
	publisher, err := kafka.NewPublisher(
		kafka.PublisherConfig{
			Brokers:               cfg.Brokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: kafka.DefaultSaramaSyncPublisherConfig(),
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}

	// A fresh consumer group starts from the oldest offset so the full
	// rating history is replayed into the leaderboards.
	saramaCfg := kafka.DefaultSaramaSubscriberConfig()
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	subscriber, err := kafka.NewSubscriber(
		kafka.SubscriberConfig{
			Brokers:               cfg.Brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			ConsumerGroup:         cfg.ConsumerGroup,
			OverwriteSaramaConfig: saramaCfg,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("create kafka subscriber: %w", err)
	}

	return &Transport{
		Publisher:  publisher,
		Subscriber: subscriber,
		closers:    []func() error{publisher.Close, subscriber.Close},
	}, nil
}

func newChannelTransport(logger watermill.LoggerAdapter) *Transport {
	ch := gochannel.NewGoChannel(gochannel.Config{}, logger)
	return &Transport{
		Publisher:  ch,
		Subscriber: ch,
		closers:    []func() error{ch.Close},
	}
}
