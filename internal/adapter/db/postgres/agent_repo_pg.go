package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"agent-rating-service/internal/domain/agent"
	apperrors "agent-rating-service/pkg/errors"
	"agent-rating-service/pkg/security"
)

// AgentRepoPG implements the agent repository using PostgreSQL and GORM.
type AgentRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewAgentRepoPG creates a new instance of AgentRepoPG.
func NewAgentRepoPG(db *gorm.DB, log *zap.Logger) *AgentRepoPG {
	return &AgentRepoPG{db: db, log: log}
}

// AgentSchema represents the database schema for the agents table.
type AgentSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"` // Unique identifier with auto-increment
	Name      string    `gorm:"not null"`                 // Agent's display name (required)
	Email     string    `gorm:"not null;unique"`          // Agent's unique email address
	Team      string    `gorm:"index"`                    // Support team, indexed for team filters
	Active    bool      `gorm:"not null;default:true"`    // Whether the agent currently handles tickets
	CreatedAt time.Time // Managed by GORM
	UpdatedAt time.Time // Managed by GORM
}

// TableName specifies the table name for the AgentSchema model.
func (AgentSchema) TableName() string {
	return "agents"
}

func (s AgentSchema) toDomain() *agent.Agent {
	return &agent.Agent{
		ID:        s.ID,
		Name:      s.Name,
		Email:     s.Email,
		Team:      s.Team,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Create inserts a new agent into the database.
func (r *AgentRepoPG) Create(ctx context.Context, a *agent.Agent) (int64, error) {
	if a == nil {
		return 0, errors.New("agent cannot be nil")
	}

	model := AgentSchema{
		Name:   a.Name,
		Email:  a.Email,
		Team:   a.Team,
		Active: a.Active,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create agent in db", zap.Error(err), zap.String("email", a.Email))
		return 0, fmt.Errorf("failed to create agent: %w", err)
	}

	r.log.Info("agent created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// Update updates an existing agent in the database.
func (r *AgentRepoPG) Update(ctx context.Context, a *agent.Agent) (int64, error) {
	if a == nil {
		return 0, errors.New("agent cannot be nil")
	}

	updates := map[string]interface{}{
		"name":   a.Name,
		"email":  a.Email,
		"team":   a.Team,
		"active": a.Active,
	}

	result := r.db.WithContext(ctx).Model(&AgentSchema{}).Where("id = ?", a.ID).Updates(updates)
	if result.Error != nil {
		r.log.Error("failed to update agent in db", zap.Error(result.Error), zap.Int64("id", a.ID))
		return 0, fmt.Errorf("failed to update agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		r.log.Warn("agent not found for update", zap.Int64("id", a.ID))
		return 0, apperrors.NewNotFoundError("agent", fmt.Sprintf("agent %d not found", a.ID))
	}

	r.log.Info("agent updated in db", zap.Int64("id", a.ID))
	return a.ID, nil
}

// Delete removes an agent from the database by ID.
func (r *AgentRepoPG) Delete(ctx context.Context, id int64) (int64, error) {
	if id <= 0 {
		return 0, apperrors.NewValidationError("id", "invalid agent id")
	}

	result := r.db.WithContext(ctx).Delete(&AgentSchema{}, id)
	if result.Error != nil {
		r.log.Error("failed to delete agent in db", zap.Error(result.Error), zap.Int64("id", id))
		return 0, fmt.Errorf("failed to delete agent: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		r.log.Warn("agent not found for delete", zap.Int64("id", id))
		return 0, apperrors.NewNotFoundError("agent", fmt.Sprintf("agent %d not found", id))
	}

	r.log.Info("agent deleted in db", zap.Int64("id", id))
	return id, nil
}

// GetByID retrieves an agent from the database by their unique ID.
func (r *AgentRepoPG) GetByID(ctx context.Context, id int64) (*agent.Agent, error) {
	var model AgentSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("agent not found", zap.Int64("id", id))
			return nil, apperrors.NewNotFoundError("agent", fmt.Sprintf("agent %d not found", id))
		}
		r.log.Error("failed to get agent from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}

	return model.toDomain(), nil
}

// GetByEmail retrieves an agent by email. Returns (nil, nil) when no agent matches.
func (r *AgentRepoPG) GetByEmail(ctx context.Context, email string) (*agent.Agent, error) {
	var model AgentSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("agent not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get agent by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get agent by email: %w", err)
	}

	return model.toDomain(), nil
}

// List retrieves agents with pagination and optional name/email/team search.
// The search query is validated and escaped before it reaches the LIKE clause.
func (r *AgentRepoPG) List(ctx context.Context, query string, page, limit int64) ([]agent.Agent, int64, error) {
	validated, err := security.ValidateSearchQuery(query)
	if err != nil {
		r.log.Warn("rejected search query", zap.String("query", query), zap.Error(err))
		return nil, 0, apperrors.NewValidationError("query", err.Error())
	}

	tx := r.db.WithContext(ctx).Model(&AgentSchema{})
	if validated != "" {
		pattern := "%" + security.SanitizeSearchString(validated) + "%"
		// Explicit ESCAPE so escaped wildcards behave the same on
		// PostgreSQL and the SQLite driver used in tests.
		tx = tx.Where("name LIKE ? ESCAPE '\\' OR email LIKE ? ESCAPE '\\' OR team LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		r.log.Error("failed to count agents in db", zap.Error(err), zap.String("query", validated))
		return nil, 0, fmt.Errorf("failed to count agents: %w", err)
	}

	var models []AgentSchema
	if err := tx.Order("id").Offset(int((page - 1) * limit)).Limit(int(limit)).Find(&models).Error; err != nil {
		r.log.Error("failed to list agents from db", zap.Error(err), zap.String("query", validated),
			zap.Int64("page", page), zap.Int64("limit", limit))
		return nil, 0, fmt.Errorf("failed to list agents: %w", err)
	}

	agents := make([]agent.Agent, len(models))
	for i, model := range models {
		agents[i] = *model.toDomain()
	}

	return agents, total, nil
}
