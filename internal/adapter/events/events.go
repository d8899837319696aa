package events

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Event types carried in message metadata.
const (
	TypeRatingRecorded = "rating.recorded"
	TypeAgentRemoved   = "agent.removed"
)

// Metadata keys set on every published message.
const (
	MetaEventType     = "event_type"
	MetaSchemaVersion = "schema_version"

	// SchemaVersion is bumped when a payload changes shape. Consumers skip
	// versions they do not understand instead of failing the message.
	SchemaVersion = "1"
)

// RatingRecorded is emitted after a rating has been persisted. Leaderboard
// projections fold it into every window the rating belongs to.
type RatingRecorded struct {
	RatingID   int64
	AgentID    int64
	Score      int64
	Category   string
	OccurredAt time.Time
}

// AgentRemoved is emitted after an agent and its ratings have been deleted.
// Projections drop the agent from all leaderboard windows.
type AgentRemoved struct {
	AgentID   int64
	RemovedAt time.Time
}

// Publisher abstracts the event transport for the usecase layer.
type Publisher interface {
	PublishRatingRecorded(ctx context.Context, ev RatingRecorded) error
	PublishAgentRemoved(ctx context.Context, ev AgentRemoved) error
}

// Payloads travel as protobuf Struct values rendered with protojson, so any
// consumer with a protobuf runtime can decode them without our Go types.

// MarshalRatingRecorded encodes the event payload.
func MarshalRatingRecorded(ev RatingRecorded) ([]byte, error) {
	payload, err := structpb.NewStruct(map[string]interface{}{
		"rating_id":   ev.RatingID,
		"agent_id":    ev.AgentID,
		"score":       ev.Score,
		"category":    ev.Category,
		"occurred_at": ev.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("build rating.recorded payload: %w", err)
	}
	return protojson.Marshal(payload)
}

// UnmarshalRatingRecorded decodes the event payload.
func UnmarshalRatingRecorded(data []byte) (RatingRecorded, error) {
	var payload structpb.Struct
	if err := protojson.Unmarshal(data, &payload); err != nil {
		return RatingRecorded{}, fmt.Errorf("decode rating.recorded payload: %w", err)
	}
	fields := payload.GetFields()

	occurredAt, err := time.Parse(time.RFC3339Nano, fields["occurred_at"].GetStringValue())
	if err != nil {
		return RatingRecorded{}, fmt.Errorf("decode rating.recorded occurred_at: %w", err)
	}

	return RatingRecorded{
		RatingID:   int64(fields["rating_id"].GetNumberValue()),
		AgentID:    int64(fields["agent_id"].GetNumberValue()),
		Score:      int64(fields["score"].GetNumberValue()),
		Category:   fields["category"].GetStringValue(),
		OccurredAt: occurredAt,
	}, nil
}

// MarshalAgentRemoved encodes the event payload.
func MarshalAgentRemoved(ev AgentRemoved) ([]byte, error) {
	payload, err := structpb.NewStruct(map[string]interface{}{
		"agent_id":   ev.AgentID,
		"removed_at": ev.RemovedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("build agent.removed payload: %w", err)
	}
	return protojson.Marshal(payload)
}

// UnmarshalAgentRemoved decodes the event payload.
func UnmarshalAgentRemoved(data []byte) (AgentRemoved, error) {
	var payload structpb.Struct
	if err := protojson.Unmarshal(data, &payload); err != nil {
		return AgentRemoved{}, fmt.Errorf("decode agent.removed payload: %w", err)
	}
	fields := payload.GetFields()

	removedAt, err := time.Parse(time.RFC3339Nano, fields["removed_at"].GetStringValue())
	if err != nil {
		return AgentRemoved{}, fmt.Errorf("decode agent.removed removed_at: %w", err)
	}

	return AgentRemoved{
		AgentID:   int64(fields["agent_id"].GetNumberValue()),
		RemovedAt: removedAt,
	}, nil
}
