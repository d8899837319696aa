package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"agent-rating-service/internal/adapter/cache"
	domain "agent-rating-service/internal/domain/ranking"
	ratingdomain "agent-rating-service/internal/domain/rating"
	apperrors "agent-rating-service/pkg/errors"
)

// maxLimit caps how many leaderboard rows a single read can request.
const maxLimit = 100

// Aggregator computes leaderboard rows from the ratings table. Satisfied by
// the rating repository.
type Aggregator interface {
	AggregateWindow(ctx context.Context, w domain.Window, minRatings int) ([]domain.Aggregate, error)
}

// Service implements leaderboard reads, rebuilds and event projection.
//
// Reads are served from Redis. A window that is not materialized yet is
// rebuilt from the database on first access; concurrent first reads collapse
// into a single rebuild. When Redis is unavailable reads fall back to the
// database directly.
type Service struct {
	boards cache.Leaderboard
	agg    Aggregator
	log    *zap.Logger
	group  singleflight.Group

	minRatings   int
	defaultLimit int
}

var (
	_ Usecase   = (*Service)(nil)
	_ Projector = (*Service)(nil)
)

// New creates a ranking Service. minRatings is the smallest number of
// ratings an agent needs in a window before it is ranked; defaultLimit is
// used when a read does not specify one.
func New(boards cache.Leaderboard, agg Aggregator, minRatings, defaultLimit int, log *zap.Logger) *Service {
	if minRatings < 1 {
		minRatings = 1
	}
	if defaultLimit < 1 {
		defaultLimit = 10
	}
	return &Service{
		boards:       boards,
		agg:          agg,
		log:          log,
		minRatings:   minRatings,
		defaultLimit: defaultLimit,
	}
}

// Overall returns the all-time leaderboard.
func (s *Service) Overall(ctx context.Context, in OverallRequest) (*TopResponse, error) {
	return s.top(ctx, domain.Overall(), in.Limit)
}

// Weekly returns the leaderboard for one ISO week, defaulting to the
// current week.
func (s *Service) Weekly(ctx context.Context, in WeeklyRequest) (*TopResponse, error) {
	w := domain.WeekOf(time.Now().UTC())
	if in.Week != "" {
		parsed, err := domain.ParseWeek(in.Week)
		if err != nil {
			return nil, apperrors.NewValidationError("week", err.Error())
		}
		w = parsed
	}
	return s.top(ctx, w, in.Limit)
}

// Monthly returns the leaderboard for one calendar month, defaulting to the
// current month.
func (s *Service) Monthly(ctx context.Context, in MonthlyRequest) (*TopResponse, error) {
	w := domain.MonthOf(time.Now().UTC())
	if in.Month != "" {
		parsed, err := domain.ParseMonth(in.Month)
		if err != nil {
			return nil, apperrors.NewValidationError("month", err.Error())
		}
		w = parsed
	}
	return s.top(ctx, w, in.Limit)
}

// ByCategory returns the leaderboard restricted to one rating category.
func (s *Service) ByCategory(ctx context.Context, in CategoryRequest) (*TopResponse, error) {
	if !ratingdomain.IsValidCategory(in.Category) {
		return nil, apperrors.NewValidationError("category",
			fmt.Sprintf("category must be one of: %s", strings.Join(ratingdomain.Categories, ", ")))
	}
	return s.top(ctx, domain.Category(in.Category), in.Limit)
}

// Rebuild recomputes every standing window from the database: the overall
// board, each category board and the current week and month.
func (s *Service) Rebuild(ctx context.Context) (*RebuildResponse, error) {
	now := time.Now().UTC()
	windows := []domain.Window{domain.Overall(), domain.WeekOf(now), domain.MonthOf(now)}
	for _, cat := range ratingdomain.Categories {
		windows = append(windows, domain.Category(cat))
	}

	rebuilt := make([]string, 0, len(windows))
	for _, w := range windows {
		if err := s.rebuildWindow(ctx, w); err != nil {
			s.log.Error("failed to rebuild leaderboard window", zap.String("window", w.String()), zap.Error(err))
			return nil, apperrors.NewInternalError(fmt.Sprintf("rebuild failed for window %s", w.String()), err)
		}
		rebuilt = append(rebuilt, w.String())
	}

	s.log.Info("leaderboards rebuilt", zap.Strings("windows", rebuilt))
	return &RebuildResponse{Windows: rebuilt}, nil
}

// ApplyRating folds a recorded rating into every window it belongs to.
// Windows that are not materialized are skipped; they pick the rating up
// from the database when first read. Returned errors make the event
// consumer retry the message.
func (s *Service) ApplyRating(ctx context.Context, agentID int64, score int, category string, occurredAt time.Time) error {
	windows := []domain.Window{
		domain.Overall(),
		domain.WeekOf(occurredAt),
		domain.MonthOf(occurredAt),
	}
	if ratingdomain.IsValidCategory(category) {
		windows = append(windows, domain.Category(category))
	}

	for _, w := range windows {
		exists, err := s.boards.Exists(ctx, w)
		if err != nil {
			return fmt.Errorf("check window %s: %w", w.String(), err)
		}
		if !exists {
			continue
		}
		avg, err := s.boards.Record(ctx, w, agentID, score)
		if err != nil {
			return fmt.Errorf("record score in window %s: %w", w.String(), err)
		}
		s.log.Debug("rating folded into leaderboard",
			zap.String("window", w.String()), zap.Int64("agent_id", agentID), zap.Float64("average", avg))
	}
	return nil
}

// RemoveAgent drops an agent from every leaderboard window.
func (s *Service) RemoveAgent(ctx context.Context, agentID int64) error {
	if err := s.boards.RemoveAgent(ctx, agentID); err != nil {
		return fmt.Errorf("remove agent %d from leaderboards: %w", agentID, err)
	}
	s.log.Info("agent removed from leaderboards", zap.Int64("agent_id", agentID))
	return nil
}

func (s *Service) top(ctx context.Context, w domain.Window, limit int) (*TopResponse, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	exists, err := s.boards.Exists(ctx, w)
	if err != nil {
		s.log.Warn("leaderboard unavailable, serving from database", zap.String("window", w.String()), zap.Error(err))
		return s.topFromDB(ctx, w, limit)
	}

	if !exists {
		if err := s.rebuildWindow(ctx, w); err != nil {
			s.log.Warn("leaderboard rebuild failed, serving from database", zap.String("window", w.String()), zap.Error(err))
			return s.topFromDB(ctx, w, limit)
		}
	}

	entries, err := s.boards.Top(ctx, w, limit, s.minRatings)
	if err != nil {
		s.log.Warn("leaderboard read failed, serving from database", zap.String("window", w.String()), zap.Error(err))
		return s.topFromDB(ctx, w, limit)
	}

	return s.response(w, entries), nil
}

// topFromDB serves a leaderboard straight from the ratings table.
func (s *Service) topFromDB(ctx context.Context, w domain.Window, limit int) (*TopResponse, error) {
	aggs, err := s.agg.AggregateWindow(ctx, w, s.minRatings)
	if err != nil {
		s.log.Error("failed to aggregate window from db", zap.String("window", w.String()), zap.Error(err))
		return nil, err
	}

	entries := domain.ToEntries(aggs)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return s.response(w, entries), nil
}

// rebuildWindow recomputes one window from the database. Concurrent calls
// for the same window share a single aggregation query. All rows are stored
// regardless of the min-ratings threshold, which is applied at read time.
func (s *Service) rebuildWindow(ctx context.Context, w domain.Window) error {
	_, err, _ := s.group.Do("rebuild:"+w.String(), func() (any, error) {
		aggs, err := s.agg.AggregateWindow(ctx, w, 1)
		if err != nil {
			return nil, err
		}
		if err := s.boards.Rebuild(ctx, w, aggs); err != nil {
			return nil, err
		}
		s.log.Info("leaderboard window rebuilt", zap.String("window", w.String()), zap.Int("agents", len(aggs)))
		return nil, nil
	})
	return err
}

func (s *Service) response(w domain.Window, entries []domain.Entry) *TopResponse {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{
			Rank:         e.Rank,
			AgentID:      e.AgentID,
			AverageScore: e.AverageScore,
			RatingCount:  e.RatingCount,
		}
	}
	return &TopResponse{Window: w.String(), Entries: out}
}
