package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"agent-rating-service/internal/domain/account"
	apperrors "agent-rating-service/pkg/errors"
)

// AccountRepoPG implements the account repository using PostgreSQL and GORM.
type AccountRepoPG struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewAccountRepoPG creates a new instance of AccountRepoPG.
func NewAccountRepoPG(db *gorm.DB, log *zap.Logger) *AccountRepoPG {
	return &AccountRepoPG{db: db, log: log}
}

// AccountSchema represents the database schema for the accounts table.
type AccountSchema struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"` // Unique identifier with auto-increment
	Email        string    `gorm:"not null;unique"`          // Unique login email
	PasswordHash string    `gorm:"not null"`                 // Bcrypt hash of the password
	Role         string    `gorm:"not null"`                 // admin or member
	CreatedAt    time.Time // Managed by GORM
}

// TableName specifies the table name for the AccountSchema model.
func (AccountSchema) TableName() string {
	return "accounts"
}

func (s AccountSchema) toDomain() *account.Account {
	return &account.Account{
		ID:           s.ID,
		Email:        s.Email,
		PasswordHash: s.PasswordHash,
		Role:         s.Role,
		CreatedAt:    s.CreatedAt,
	}
}

// Create inserts a new account into the database.
func (r *AccountRepoPG) Create(ctx context.Context, a *account.Account) (int64, error) {
	if a == nil {
		return 0, errors.New("account cannot be nil")
	}

	model := AccountSchema{
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		r.log.Error("failed to create account in db", zap.Error(err), zap.String("email", a.Email))
		return 0, fmt.Errorf("failed to create account: %w", err)
	}

	r.log.Info("account created in db", zap.Int64("id", model.ID))
	return model.ID, nil
}

// GetByID retrieves an account by its unique ID.
func (r *AccountRepoPG) GetByID(ctx context.Context, id int64) (*account.Account, error) {
	var model AccountSchema
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Warn("account not found", zap.Int64("id", id))
			return nil, apperrors.NewNotFoundError("account", fmt.Sprintf("account %d not found", id))
		}
		r.log.Error("failed to get account from db", zap.Error(err), zap.Int64("id", id))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return model.toDomain(), nil
}

// GetByEmail retrieves an account by email. Returns (nil, nil) when no account matches.
func (r *AccountRepoPG) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var model AccountSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("account not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get account by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return model.toDomain(), nil
}
