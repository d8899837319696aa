package infrastructure

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"agent-rating-service/internal/adapter/events"
	"agent-rating-service/internal/config"
	"agent-rating-service/internal/usecase/ranking"
	"agent-rating-service/pkg/logger"
)

// EventPipeline bundles the event transport, the publisher used by the write
// path and the consumer that projects events into the leaderboards.
type EventPipeline struct {
	Transport *events.Transport
	Publisher *events.WatermillPublisher
	Consumer  *events.Consumer
}

// NewEventPipeline builds the transport selected by EVENTS_TRANSPORT and
// wires the publisher and projection consumer onto it.
func NewEventPipeline(cfg *config.Config, projections ranking.Projector, l *zap.Logger) (*EventPipeline, error) {
	wmLogger := logger.NewWatermillAdapter(l)

	transport, err := events.NewTransport(cfg.Events, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event transport: %w", err)
	}

	publisher := events.NewWatermillPublisher(transport.Publisher, cfg.Events, l)

	consumer, err := events.NewConsumer(cfg.Events, transport, projections, prometheus.DefaultRegisterer, wmLogger, l)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	return &EventPipeline{
		Transport: transport,
		Publisher: publisher,
		Consumer:  consumer,
	}, nil
}

// Close stops the consumer first so in-flight messages finish before the
// transport goes away.
func (p *EventPipeline) Close() error {
	var errs []error

	if p.Consumer != nil {
		if err := p.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event consumer: %w", err))
		}
	}

	if p.Transport != nil {
		if err := p.Transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event transport: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("event pipeline close errors: %v", errs)
	}

	return nil
}
