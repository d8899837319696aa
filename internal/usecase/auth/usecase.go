package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"agent-rating-service/internal/domain/account"
	"agent-rating-service/internal/usecase/validate"
	apperrors "agent-rating-service/pkg/errors"
	"agent-rating-service/pkg/security"
)

// AccountRepository defines the interface for account data access operations.
type AccountRepository interface {
	Create(ctx context.Context, a *account.Account) (int64, error)
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
}

// Service implements registration and credential login.
type Service struct {
	repo       AccountRepository
	tokens     *security.TokenManager
	log        *zap.Logger
	validate   *validator.Validate
	bcryptCost int
}

var _ Usecase = (*Service)(nil)

// New creates an auth Service. bcryptCost outside bcrypt's supported range
// falls back to the library default.
func New(repo AccountRepository, tokens *security.TokenManager, bcryptCost int, log *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		log:        log,
		validate:   validator.New(),
		bcryptCost: bcryptCost,
	}
}

// Register creates an account after validating the request and checking
// email uniqueness. An empty role means member.
func (s *Service) Register(ctx context.Context, in RegisterRequest) (*RegisterResponse, error) {
	s.log.Info("registering account", zap.String("email", in.Email))

	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validate.FormatError(err)
	}

	role := in.Role
	if role == "" {
		role = account.RoleMember
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		s.log.Error("failed to check existing email", zap.String("email", in.Email), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to validate email uniqueness", err)
	}
	if existing != nil {
		s.log.Warn("email already registered", zap.String("email", in.Email))
		return nil, apperrors.NewAlreadyExistsError("account", "email already registered")
	}

	hash, err := security.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	id, err := s.repo.Create(ctx, &account.Account{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		s.log.Error("failed to create account", zap.String("email", in.Email), zap.Error(err))
		return nil, err
	}

	return &RegisterResponse{ID: id, Role: role}, nil
}

// Login verifies credentials and issues a bearer token. Unknown emails and
// wrong passwords produce the same error so the response does not reveal
// which accounts exist.
func (s *Service) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		s.log.Warn("validate failed", zap.Error(err))
		return nil, validate.FormatError(err)
	}

	a, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		s.log.Error("failed to look up account", zap.String("email", in.Email), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to look up account", err)
	}
	if a == nil {
		s.log.Warn("login for unknown email", zap.String("email", in.Email))
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}

	if err := security.VerifyPassword(a.PasswordHash, in.Password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			s.log.Warn("login with wrong password", zap.String("email", in.Email))
			return nil, apperrors.NewUnauthorizedError("invalid email or password")
		}
		s.log.Error("failed to verify password", zap.Error(err))
		return nil, apperrors.NewInternalError("failed to verify password", err)
	}

	token, expiresAt, err := s.tokens.Issue(strconv.FormatInt(a.ID, 10), a.Email, a.Role)
	if err != nil {
		s.log.Error("failed to issue token", zap.Int64("account_id", a.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	s.log.Info("account logged in", zap.Int64("account_id", a.ID), zap.String("role", a.Role))
	return &LoginResponse{Token: token, ExpiresAt: expiresAt, Role: a.Role}, nil
}

// SeedAdmin ensures an admin account exists for the given credentials.
// Called at startup when AUTH_ADMIN_EMAIL is configured; an empty email is
// a no-op. An existing account with that email is left untouched.
func (s *Service) SeedAdmin(ctx context.Context, email, password string) error {
	if email == "" {
		return nil
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.NewInternalError("failed to check admin account", err)
	}
	if existing != nil {
		s.log.Debug("admin account already present", zap.String("email", email))
		return nil
	}

	hash, err := security.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError("failed to hash admin password", err)
	}

	id, err := s.repo.Create(ctx, &account.Account{
		Email:        email,
		PasswordHash: hash,
		Role:         account.RoleAdmin,
	})
	if err != nil {
		return err
	}

	s.log.Info("admin account seeded", zap.Int64("account_id", id), zap.String("email", email))
	return nil
}
