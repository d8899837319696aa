package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"agent-rating-service/internal/adapter/events"
	domain "agent-rating-service/internal/domain/agent"
	apperrors "agent-rating-service/pkg/errors"
)

// MockRepository is a mock implementation of the Repository interface.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, a *domain.Agent) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Agent), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, a *domain.Agent) (int64, error) {
	args := m.Called(ctx, a)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, query string, page, limit int64) ([]domain.Agent, int64, error) {
	args := m.Called(ctx, query, page, limit)
	return args.Get(0).([]domain.Agent), args.Get(1).(int64), args.Error(2)
}

// MockRatingPurger is a mock implementation of the RatingPurger interface.
type MockRatingPurger struct {
	mock.Mock
}

func (m *MockRatingPurger) DeleteByAgent(ctx context.Context, agentID int64) (int64, error) {
	args := m.Called(ctx, agentID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher is a mock implementation of the events.Publisher interface.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishRatingRecorded(ctx context.Context, ev events.RatingRecorded) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockPublisher) PublishAgentRemoved(ctx context.Context, ev events.AgentRemoved) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func setupTestService(t *testing.T) (*Service, *MockRepository, *MockRatingPurger, *MockPublisher) {
	mockRepo := new(MockRepository)
	mockRatings := new(MockRatingPurger)
	mockPub := new(MockPublisher)
	svc := New(mockRepo, mockRatings, mockPub, zaptest.NewLogger(t))
	return svc, mockRepo, mockRatings, mockPub
}

// ==================== CREATE AGENT TESTS ====================

func TestCreateAgent_Success(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	req := CreateAgentRequest{
		Name:  "Alice Nguyen",
		Email: "alice@support.example.com",
		Team:  "Billing",
	}

	mockRepo.On("GetByEmail", ctx, req.Email).Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
		return a.Name == req.Name && a.Email == req.Email && a.Team == req.Team && a.Active
	})).Return(int64(1), nil)

	resp, err := svc.CreateAgent(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.ID)

	mockRepo.AssertExpectations(t)
}

func TestCreateAgent_ValidationError_NameRequired(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()

	resp, err := svc.CreateAgent(ctx, CreateAgentRequest{Email: "alice@support.example.com"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "Name is required")
	assert.Equal(t, 400, apperrors.StatusOf(err))
}

func TestCreateAgent_ValidationError_EmailInvalid(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()

	resp, err := svc.CreateAgent(ctx, CreateAgentRequest{Name: "Alice Nguyen", Email: "not-an-email"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "Email must be a valid email")
	assert.Equal(t, 400, apperrors.StatusOf(err))
}

func TestCreateAgent_EmailAlreadyExists(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	req := CreateAgentRequest{Name: "Alice Nguyen", Email: "alice@support.example.com"}
	existing := &domain.Agent{ID: 2, Name: "Someone Else", Email: req.Email}

	mockRepo.On("GetByEmail", ctx, req.Email).Return(existing, nil)

	resp, err := svc.CreateAgent(ctx, req)

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 409, apperrors.StatusOf(err))

	mockRepo.AssertExpectations(t)
}

// ==================== UPDATE AGENT TESTS ====================

func TestUpdateAgent_Success_MergesOmittedFields(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	current := &domain.Agent{
		ID: 1, Name: "Alice Nguyen", Email: "alice@support.example.com",
		Team: "Billing", Active: true,
	}
	mockRepo.On("GetByID", ctx, int64(1)).Return(current, nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
		// Name changes; email and team are kept from the current record.
		return a.ID == 1 && a.Name == "Alice Tran" &&
			a.Email == "alice@support.example.com" && a.Team == "Billing" && a.Active
	})).Return(int64(1), nil)

	resp, err := svc.UpdateAgent(ctx, UpdateAgentRequest{ID: 1, Name: "Alice Tran"})

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.ID)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestUpdateAgent_Deactivate(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	current := &domain.Agent{ID: 1, Name: "Alice Nguyen", Email: "alice@support.example.com", Active: true}
	mockRepo.On("GetByID", ctx, int64(1)).Return(current, nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(a *domain.Agent) bool {
		return a.ID == 1 && !a.Active
	})).Return(int64(1), nil)

	inactive := false
	resp, err := svc.UpdateAgent(ctx, UpdateAgentRequest{ID: 1, Active: &inactive})

	assert.NoError(t, err)
	assert.NotNil(t, resp)

	mockRepo.AssertExpectations(t)
}

func TestUpdateAgent_EmailAlreadyExists(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	current := &domain.Agent{ID: 1, Name: "Alice Nguyen", Email: "alice@support.example.com"}
	other := &domain.Agent{ID: 2, Name: "Bob Tran", Email: "bob@support.example.com"}

	mockRepo.On("GetByID", ctx, int64(1)).Return(current, nil)
	mockRepo.On("GetByEmail", ctx, "bob@support.example.com").Return(other, nil)

	resp, err := svc.UpdateAgent(ctx, UpdateAgentRequest{ID: 1, Email: "bob@support.example.com"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 409, apperrors.StatusOf(err))

	mockRepo.AssertExpectations(t)
}

func TestUpdateAgent_SameEmailSkipsUniquenessCheck(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	current := &domain.Agent{ID: 1, Name: "Alice Nguyen", Email: "alice@support.example.com", Active: true}
	mockRepo.On("GetByID", ctx, int64(1)).Return(current, nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(int64(1), nil)

	_, err := svc.UpdateAgent(ctx, UpdateAgentRequest{ID: 1, Email: "alice@support.example.com"})

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestUpdateAgent_NotFound(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(99)).
		Return(nil, apperrors.NewNotFoundError("agent", "agent with id 99 not found"))

	resp, err := svc.UpdateAgent(ctx, UpdateAgentRequest{ID: 99, Name: "Nobody Here"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

// ==================== DELETE AGENT TESTS ====================

func TestDeleteAgent_Success(t *testing.T) {
	svc, mockRepo, mockRatings, mockPub := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Delete", ctx, int64(1)).Return(int64(1), nil)
	mockRatings.On("DeleteByAgent", ctx, int64(1)).Return(int64(3), nil)
	mockPub.On("PublishAgentRemoved", ctx, mock.MatchedBy(func(ev events.AgentRemoved) bool {
		return ev.AgentID == 1 && !ev.RemovedAt.IsZero()
	})).Return(nil)

	resp, err := svc.DeleteAgent(ctx, DeleteAgentRequest{ID: 1})

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, int64(3), resp.RatingsDeleted)

	mockRepo.AssertExpectations(t)
	mockRatings.AssertExpectations(t)
	mockPub.AssertExpectations(t)
}

func TestDeleteAgent_InvalidID(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()

	resp, err := svc.DeleteAgent(ctx, DeleteAgentRequest{ID: 0})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 400, apperrors.StatusOf(err))
}

func TestDeleteAgent_NotFound(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Delete", ctx, int64(99)).
		Return(int64(0), apperrors.NewNotFoundError("agent", "agent with id 99 not found"))

	resp, err := svc.DeleteAgent(ctx, DeleteAgentRequest{ID: 99})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 404, apperrors.StatusOf(err))
}

func TestDeleteAgent_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc, mockRepo, mockRatings, mockPub := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("Delete", ctx, int64(1)).Return(int64(1), nil)
	mockRatings.On("DeleteByAgent", ctx, int64(1)).Return(int64(0), nil)
	mockPub.On("PublishAgentRemoved", ctx, mock.Anything).Return(errors.New("broker down"))

	resp, err := svc.DeleteAgent(ctx, DeleteAgentRequest{ID: 1})

	assert.NoError(t, err)
	assert.NotNil(t, resp)
}

// ==================== GET AGENT TESTS ====================

func TestGetAgent_Success(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	expected := &domain.Agent{
		ID: 1, Name: "Alice Nguyen", Email: "alice@support.example.com",
		Team: "Billing", Active: true,
	}
	mockRepo.On("GetByID", ctx, int64(1)).Return(expected, nil)

	resp, err := svc.GetAgent(ctx, GetAgentRequest{ID: 1})

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, expected.ID, resp.ID)
	assert.Equal(t, expected.Name, resp.Name)
	assert.Equal(t, expected.Email, resp.Email)
	assert.Equal(t, expected.Team, resp.Team)
	assert.True(t, resp.Active)

	mockRepo.AssertExpectations(t)
}

func TestGetAgent_InvalidID(t *testing.T) {
	svc, _, _, _ := setupTestService(t)
	ctx := context.Background()

	resp, err := svc.GetAgent(ctx, GetAgentRequest{ID: -1})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 400, apperrors.StatusOf(err))
}

// ==================== LIST AGENTS TESTS ====================

func TestListAgents_Success(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	req := ListAgentsRequest{Query: "billing", Page: 2, Limit: 10}
	domainAgents := []domain.Agent{
		{ID: 11, Name: "Alice Nguyen", Email: "alice@support.example.com", Team: "Billing", Active: true},
		{ID: 12, Name: "Bob Tran", Email: "bob@support.example.com", Team: "Billing", Active: false},
	}

	mockRepo.On("List", ctx, "billing", int64(2), int64(10)).Return(domainAgents, int64(25), nil)

	resp, err := svc.ListAgents(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Len(t, resp.Agents, 2)
	assert.Equal(t, int64(11), resp.Agents[0].ID)
	assert.Equal(t, "Billing", resp.Agents[0].Team)
	assert.NotNil(t, resp.Pagination)
	assert.Equal(t, int64(25), resp.Pagination.Total)
	assert.Equal(t, int64(2), resp.Pagination.Page)
	assert.Equal(t, int64(3), resp.Pagination.TotalPages)

	mockRepo.AssertExpectations(t)
}

func TestListAgents_ClampsPagination(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx, "", int64(1), int64(10)).Return([]domain.Agent{}, int64(0), nil)

	_, err := svc.ListAgents(ctx, ListAgentsRequest{Page: 0, Limit: 0})
	assert.NoError(t, err)

	mockRepo.On("List", ctx, "", int64(1), int64(100)).Return([]domain.Agent{}, int64(0), nil)

	_, err = svc.ListAgents(ctx, ListAgentsRequest{Page: -3, Limit: 1000})
	assert.NoError(t, err)

	mockRepo.AssertExpectations(t)
}

func TestListAgents_RepoErrorPassesThrough(t *testing.T) {
	svc, mockRepo, _, _ := setupTestService(t)
	ctx := context.Background()

	mockRepo.On("List", ctx, "bad;query", int64(1), int64(10)).
		Return([]domain.Agent{}, int64(0), apperrors.NewValidationError("query", "search query contains invalid characters"))

	resp, err := svc.ListAgents(ctx, ListAgentsRequest{Query: "bad;query"})

	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, 400, apperrors.StatusOf(err))
}
