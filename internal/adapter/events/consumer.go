package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"agent-rating-service/internal/config"
	"agent-rating-service/internal/usecase/ranking"
)

// UnprocessableEventError marks a message that can never be handled, such as
// a payload that fails to decode. The poison queue middleware routes these to
// the poison topic instead of retrying them.
type UnprocessableEventError struct {
	Reason error
}

func (e *UnprocessableEventError) Error() string {
	return "unprocessable event: " + e.Reason.Error()
}

func (e *UnprocessableEventError) Unwrap() error {
	return e.Reason
}

// Consumer subscribes to the event topics and folds each event into the
// leaderboard projections. Transient projection failures are retried with
// backoff and eventually nacked back to the broker; undecodable messages go
// to the poison topic.
type Consumer struct {
	router      *message.Router
	projections ranking.Projector
	log         *zap.Logger
}

// NewConsumer builds the event router with its middleware chain and registers
// a handler per topic. A nil registerer disables the router metrics.
func NewConsumer(
	cfg config.EventsConfig,
	transport *Transport,
	projections ranking.Projector,
	registerer prometheus.Registerer,
	wmLogger watermill.LoggerAdapter,
	log *zap.Logger,
) (*Consumer, error) {
	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	c := &Consumer{
		router:      router,
		projections: projections,
		log:         log,
	}

	// Middleware order matters: the poison queue sits inside the retry loop
	// so unprocessable messages are parked immediately instead of retried.
	router.AddMiddleware(ensureCorrelationID)
	if registerer != nil {
		metricsBuilder := metrics.NewPrometheusMetricsBuilder(registerer, "agent_rating", "events")
		metricsBuilder.AddPrometheusRouterMetrics(router)
	}
	router.AddMiddleware(middleware.Retry{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     16 * time.Second,
		Logger:          wmLogger,
	}.Middleware)
	poison, err := middleware.PoisonQueueWithFilter(transport.Publisher, cfg.PoisonTopic, func(err error) bool {
		var unprocessable *UnprocessableEventError
		return errors.As(err, &unprocessable)
	})
	if err != nil {
		return nil, fmt.Errorf("create poison queue middleware: %w", err)
	}
	router.AddMiddleware(poison)
	router.AddMiddleware(middleware.Recoverer)

	router.AddNoPublisherHandler(
		"project_ratings",
		cfg.RatingsTopic,
		transport.Subscriber,
		c.handleRatingEvent,
	)
	router.AddNoPublisherHandler(
		"project_agent_lifecycle",
		cfg.AgentsTopic,
		transport.Subscriber,
		c.handleAgentEvent,
	)

	return c, nil
}

// Run starts the router and blocks until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once all handlers are up. Used to sequence startup.
func (c *Consumer) Running() <-chan struct{} {
	return c.router.Running()
}

// Close stops the router and its subscriptions.
func (c *Consumer) Close() error {
	return c.router.Close()
}

func (c *Consumer) handleRatingEvent(msg *message.Message) error {
	if skip, version := unknownSchemaVersion(msg); skip {
		c.log.Warn("skipping event with unknown schema version",
			zap.String("message_id", msg.UUID),
			zap.String("schema_version", version))
		return nil
	}

	eventType := msg.Metadata.Get(MetaEventType)
	switch eventType {
	case TypeRatingRecorded:
		ev, err := UnmarshalRatingRecorded(msg.Payload)
		if err != nil {
			return &UnprocessableEventError{Reason: err}
		}
		if err := c.projections.ApplyRating(msg.Context(), ev.AgentID, int(ev.Score), ev.Category, ev.OccurredAt); err != nil {
			return fmt.Errorf("apply rating %d to leaderboards: %w", ev.RatingID, err)
		}
		c.log.Debug("applied rating to leaderboards",
			zap.String("message_id", msg.UUID),
			zap.String("correlation_id", middleware.MessageCorrelationID(msg)),
			zap.Int64("rating_id", ev.RatingID),
			zap.Int64("agent_id", ev.AgentID))
		return nil
	default:
		return &UnprocessableEventError{Reason: fmt.Errorf("unknown event type %q", eventType)}
	}
}

func (c *Consumer) handleAgentEvent(msg *message.Message) error {
	if skip, version := unknownSchemaVersion(msg); skip {
		c.log.Warn("skipping event with unknown schema version",
			zap.String("message_id", msg.UUID),
			zap.String("schema_version", version))
		return nil
	}

	eventType := msg.Metadata.Get(MetaEventType)
	switch eventType {
	case TypeAgentRemoved:
		ev, err := UnmarshalAgentRemoved(msg.Payload)
		if err != nil {
			return &UnprocessableEventError{Reason: err}
		}
		if err := c.projections.RemoveAgent(msg.Context(), ev.AgentID); err != nil {
			return fmt.Errorf("remove agent %d from leaderboards: %w", ev.AgentID, err)
		}
		c.log.Debug("removed agent from leaderboards",
			zap.String("message_id", msg.UUID),
			zap.String("correlation_id", middleware.MessageCorrelationID(msg)),
			zap.Int64("agent_id", ev.AgentID))
		return nil
	default:
		return &UnprocessableEventError{Reason: fmt.Errorf("unknown event type %q", eventType)}
	}
}

// unknownSchemaVersion reports whether the message declares a schema version
// this consumer does not understand. Messages without the header are assumed
// to be current.
func unknownSchemaVersion(msg *message.Message) (bool, string) {
	v := msg.Metadata.Get(MetaSchemaVersion)
	return v != "" && v != SchemaVersion, v
}

func ensureCorrelationID(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		if middleware.MessageCorrelationID(msg) == "" {
			middleware.SetCorrelationID(newULID(), msg)
		}
		return h(msg)
	}
}
