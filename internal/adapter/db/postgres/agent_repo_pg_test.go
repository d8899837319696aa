package postgres

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"agent-rating-service/internal/domain/agent"
	apperrors "agent-rating-service/pkg/errors"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Migrate the schema
	err = db.AutoMigrate(&AgentSchema{}, &RatingSchema{}, &AccountSchema{})
	require.NoError(t, err)

	return db
}

func TestAgentRepoPG_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, &agent.Agent{
		Name:   "Alice Nguyen",
		Email:  "alice@support.example.com",
		Team:   "billing",
		Active: true,
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice Nguyen", got.Name)
	assert.Equal(t, "alice@support.example.com", got.Email)
	assert.Equal(t, "billing", got.Team)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "alice@support.example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.ID)
}

func TestAgentRepoPG_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))

	_, err := repo.GetByID(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

func TestAgentRepoPG_GetByEmail_MissReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))

	got, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAgentRepoPG_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, &agent.Agent{
		Name: "Alice Nguyen", Email: "alice@support.example.com", Team: "billing", Active: true,
	})
	require.NoError(t, err)

	_, err = repo.Update(ctx, &agent.Agent{
		ID: id, Name: "Alice N.", Email: "alice@support.example.com", Team: "technical", Active: false,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice N.", got.Name)
	assert.Equal(t, "technical", got.Team)
	assert.False(t, got.Active)
}

func TestAgentRepoPG_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))

	_, err := repo.Update(context.Background(), &agent.Agent{
		ID: 99, Name: "Ghost", Email: "ghost@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

func TestAgentRepoPG_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, &agent.Agent{
		Name: "Alice Nguyen", Email: "alice@support.example.com", Active: true,
	})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, id)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, id)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusOf(err))

	_, err = repo.Delete(ctx, id)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

func TestAgentRepoPG_List_SearchAndPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	seed := []agent.Agent{
		{Name: "Alice Nguyen", Email: "alice@support.example.com", Team: "billing", Active: true},
		{Name: "Bob Tran", Email: "bob@support.example.com", Team: "technical", Active: true},
		{Name: "Carol Le", Email: "carol@support.example.com", Team: "billing", Active: false},
	}
	for i := range seed {
		_, err := repo.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	t.Run("empty query lists all", func(t *testing.T) {
		agents, total, err := repo.List(ctx, "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, agents, 3)
	})

	t.Run("search by name", func(t *testing.T) {
		agents, total, err := repo.List(ctx, "alice", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, agents, 1)
		assert.Equal(t, "Alice Nguyen", agents[0].Name)
	})

	t.Run("search by team", func(t *testing.T) {
		_, total, err := repo.List(ctx, "billing", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("pagination returns full total", func(t *testing.T) {
		agents, total, err := repo.List(ctx, "", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, agents, 1)
	})
}

func TestAgentRepoPG_List_SQLInjectionProtection(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := repo.Create(ctx, &agent.Agent{
		Name: "Alice Nguyen", Email: "alice@support.example.com", Active: true,
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
	}{
		{name: "UNION attempt", query: "alice UNION SELECT * FROM agents"},
		{name: "OR condition", query: "alice OR 1=1"},
		{name: "comment", query: "alice --"},
		{name: "DROP attempt", query: "alice; DROP TABLE ratings"},
		{name: "script tag", query: "<script>alert('x')</script>"},
		{name: "disallowed characters", query: "alice&bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agents, _, err := repo.List(ctx, tt.query, 1, 10)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.StatusOf(err))
			assert.Nil(t, agents)
		})
	}
}

func TestAgentRepoPG_List_WildcardEscaping(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAgentRepoPG(db, zaptest.NewLogger(t))
	ctx := context.Background()

	seed := []agent.Agent{
		{Name: "Tier_1 Desk", Email: "tier1@support.example.com", Active: true},
		{Name: "Tier_2 Desk", Email: "tier2@support.example.com", Active: true},
	}
	for i := range seed {
		_, err := repo.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	// The underscore must match literally, not as a single-char wildcard.
	agents, total, err := repo.List(ctx, "Tier_1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, agents, 1)
	assert.Equal(t, "Tier_1 Desk", agents[0].Name)
}
