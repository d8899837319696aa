package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"

	"agent-rating-service/internal/config"
)

// WatermillPublisher publishes domain events through a watermill transport.
// It is the single write path to the event topics: payload encoding, message
// IDs and metadata are stamped here so every producer emits the same shape.
type WatermillPublisher struct {
	pub          message.Publisher
	ratingsTopic string
	agentsTopic  string
	log          *zap.Logger
}

var _ Publisher = (*WatermillPublisher)(nil)

// NewWatermillPublisher wires a transport publisher to the configured topics.
func NewWatermillPublisher(pub message.Publisher, cfg config.EventsConfig, log *zap.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		pub:          pub,
		ratingsTopic: cfg.RatingsTopic,
		agentsTopic:  cfg.AgentsTopic,
		log:          log,
	}
}

// PublishRatingRecorded emits a rating.recorded event.
func (p *WatermillPublisher) PublishRatingRecorded(ctx context.Context, ev RatingRecorded) error {
	payload, err := MarshalRatingRecorded(ev)
	if err != nil {
		return err
	}

	msg := p.newMessage(ctx, TypeRatingRecorded, payload)
	if err := p.pub.Publish(p.ratingsTopic, msg); err != nil {
		return err
	}

	p.log.Debug("published event",
		zap.String("event_type", TypeRatingRecorded),
		zap.String("topic", p.ratingsTopic),
		zap.String("message_id", msg.UUID),
		zap.Int64("rating_id", ev.RatingID))
	return nil
}

// PublishAgentRemoved emits an agent.removed event.
func (p *WatermillPublisher) PublishAgentRemoved(ctx context.Context, ev AgentRemoved) error {
	payload, err := MarshalAgentRemoved(ev)
	if err != nil {
		return err
	}

	msg := p.newMessage(ctx, TypeAgentRemoved, payload)
	if err := p.pub.Publish(p.agentsTopic, msg); err != nil {
		return err
	}

	p.log.Debug("published event",
		zap.String("event_type", TypeAgentRemoved),
		zap.String("topic", p.agentsTopic),
		zap.String("message_id", msg.UUID),
		zap.Int64("agent_id", ev.AgentID))
	return nil
}

func (p *WatermillPublisher) newMessage(ctx context.Context, eventType string, payload []byte) *message.Message {
	msg := message.NewMessage(newULID(), payload)
	msg.Metadata.Set(MetaEventType, eventType)
	msg.Metadata.Set(MetaSchemaVersion, SchemaVersion)
	middleware.SetCorrelationID(newULID(), msg)
	msg.SetContext(ctx)
	return msg
}
