package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"agent-rating-service/internal/domain/account"
	apperrors "agent-rating-service/pkg/errors"
	"agent-rating-service/pkg/security"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func setupTestService(t *testing.T) (*Service, *MockAccountRepository, *security.TokenManager) {
	repo := new(MockAccountRepository)
	tokens := security.NewTokenManager("test-secret-key-for-auth-tests", "agent-rating-service", time.Hour)
	// MinCost keeps the bcrypt work factor down in tests.
	svc := New(repo, tokens, bcrypt.MinCost, zaptest.NewLogger(t))
	return svc, repo, tokens
}

// ==================== REGISTER TESTS ====================

func TestRegister_Success(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()

	req := RegisterRequest{Email: "casey@support.example.com", Password: "s3cure-passw0rd"}

	repo.On("GetByEmail", ctx, req.Email).Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(a *account.Account) bool {
		return a.Email == req.Email &&
			a.Role == account.RoleMember &&
			security.VerifyPassword(a.PasswordHash, req.Password) == nil
	})).Return(int64(1), nil)

	resp, err := svc.Register(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, account.RoleMember, resp.Role)

	repo.AssertExpectations(t)
}

func TestRegister_ValidationError_ShortPassword(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, RegisterRequest{Email: "casey@support.example.com", Password: "short"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "Password must be at least 8")
	assert.Equal(t, 400, apperrors.StatusOf(err))
}

func TestRegister_EmailAlreadyRegistered(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()

	existing := &account.Account{ID: 2, Email: "casey@support.example.com", Role: account.RoleMember}
	repo.On("GetByEmail", ctx, existing.Email).Return(existing, nil)

	resp, err := svc.Register(ctx, RegisterRequest{Email: existing.Email, Password: "s3cure-passw0rd"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 409, apperrors.StatusOf(err))
}

// ==================== LOGIN TESTS ====================

func TestLogin_Success(t *testing.T) {
	svc, repo, tokens := setupTestService(t)
	ctx := context.Background()

	hash, err := security.HashPassword("s3cure-passw0rd", bcrypt.MinCost)
	require.NoError(t, err)

	stored := &account.Account{ID: 42, Email: "casey@support.example.com", PasswordHash: hash, Role: account.RoleAdmin}
	repo.On("GetByEmail", ctx, stored.Email).Return(stored, nil)

	resp, err := svc.Login(ctx, LoginRequest{Email: stored.Email, Password: "s3cure-passw0rd"})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, account.RoleAdmin, resp.Role)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, stored.Email, claims.Email)
	assert.Equal(t, account.RoleAdmin, claims.Role)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@support.example.com").Return(nil, nil)

	resp, err := svc.Login(ctx, LoginRequest{Email: "ghost@support.example.com", Password: "whatever123"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 401, apperrors.StatusOf(err))
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()

	hash, err := security.HashPassword("the-right-password", bcrypt.MinCost)
	require.NoError(t, err)

	stored := &account.Account{ID: 1, Email: "casey@support.example.com", PasswordHash: hash, Role: account.RoleMember}
	repo.On("GetByEmail", ctx, stored.Email).Return(stored, nil)

	resp, err := svc.Login(ctx, LoginRequest{Email: stored.Email, Password: "the-wrong-password"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 401, apperrors.StatusOf(err))
	// The message must not reveal whether the account exists.
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestLogin_ValidationError_MissingEmail(t *testing.T) {
	svc, _, _ := setupTestService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Password: "whatever123"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 400, apperrors.StatusOf(err))
}

// ==================== ADMIN SEED TESTS ====================

func TestSeedAdmin_CreatesAdminAccount(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ops@support.example.com").Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(a *account.Account) bool {
		return a.Email == "ops@support.example.com" &&
			a.Role == account.RoleAdmin &&
			security.VerifyPassword(a.PasswordHash, "admin-passw0rd") == nil
	})).Return(int64(1), nil)

	err := svc.SeedAdmin(ctx, "ops@support.example.com", "admin-passw0rd")

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSeedAdmin_ExistingAccountUntouched(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()

	existing := &account.Account{ID: 1, Email: "ops@support.example.com", Role: account.RoleAdmin}
	repo.On("GetByEmail", ctx, existing.Email).Return(existing, nil)

	err := svc.SeedAdmin(ctx, existing.Email, "new-password")

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSeedAdmin_EmptyEmailIsNoop(t *testing.T) {
	svc, repo, _ := setupTestService(t)
	ctx := context.Background()

	err := svc.SeedAdmin(ctx, "", "")

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}
