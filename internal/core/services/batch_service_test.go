package services_test

import (
	"context"
	"testing"

	"github.com/propfolio/recon_backend/internal/apperrors"
	"github.com/propfolio/recon_backend/internal/core/domain"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/propfolio/recon_backend/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ReconciliationSvc ---
type MockReconciliationSvc struct {
	mock.Mock
}

func (m *MockReconciliationSvc) RunSession(ctx context.Context, propertyID string, period domain.Period, userID string) (*domain.SessionResult, error) {
	args := m.Called(ctx, propertyID, period, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionResult), args.Error(1)
}

func (m *MockReconciliationSvc) GetSession(ctx context.Context, sessionID string) (*domain.SessionResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionResult), args.Error(1)
}

func (m *MockReconciliationSvc) ListDiscrepancies(ctx context.Context, sessionID string, tier domain.ExceptionTier) ([]domain.Discrepancy, error) {
	args := m.Called(ctx, sessionID, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Discrepancy), args.Error(1)
}

func (m *MockReconciliationSvc) ResolveDiscrepancy(ctx context.Context, discrepancyID string, status domain.ResolutionStatus, userID string) error {
	args := m.Called(ctx, discrepancyID, status, userID)
	return args.Error(0)
}

// --- Test Suite ---
type BatchServiceTestSuite struct {
	suite.Suite
	mockRecon *MockReconciliationSvc
	service   portssvc.BatchSvc
}

func (suite *BatchServiceTestSuite) SetupTest() {
	suite.mockRecon = new(MockReconciliationSvc)
	suite.service = services.NewBatchService(suite.mockRecon, 2)
}

func sessionResult(sessionID string, matches, discrepancies int) *domain.SessionResult {
	return &domain.SessionResult{
		Session:            domain.ReconciliationSession{SessionID: sessionID, Status: domain.SessionCompleted},
		MatchesFound:       matches,
		DiscrepanciesFound: discrepancies,
	}
}

func (suite *BatchServiceTestSuite) TestRunBatch_AllSucceed() {
	ctx := context.Background()
	period := domain.Period{Year: 2025, Month: 6}
	requests := []portssvc.BatchRequest{
		{PropertyID: "prop-1", Period: period},
		{PropertyID: "prop-2", Period: period},
		{PropertyID: "prop-3", Period: period},
	}

	suite.mockRecon.On("RunSession", mock.Anything, "prop-1", period, "user-1").
		Return(sessionResult("sess-1", 5, 1), nil).Once()
	suite.mockRecon.On("RunSession", mock.Anything, "prop-2", period, "user-1").
		Return(sessionResult("sess-2", 3, 0), nil).Once()
	suite.mockRecon.On("RunSession", mock.Anything, "prop-3", period, "user-1").
		Return(sessionResult("sess-3", 2, 4), nil).Once()

	result, err := suite.service.RunBatch(ctx, requests, "user-1")

	suite.Require().NoError(err)
	suite.Equal(3, result.Succeeded)
	suite.Zero(result.Failed)
	suite.Zero(result.Skipped)
	suite.Equal(10, result.TotalMatches)
	suite.Equal(5, result.TotalDiscrepancies)

	suite.Require().Len(result.Outcomes, 3)
	suite.Equal("sess-1", result.Outcomes[0].SessionID)
	suite.Equal("sess-2", result.Outcomes[1].SessionID)
	suite.Equal("sess-3", result.Outcomes[2].SessionID)

	suite.mockRecon.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestRunBatch_FailureIsCountedNotPropagated() {
	ctx := context.Background()
	period := domain.Period{Year: 2025, Month: 6}
	requests := []portssvc.BatchRequest{
		{PropertyID: "prop-1", Period: period},
		{PropertyID: "prop-2", Period: period},
	}

	suite.mockRecon.On("RunSession", mock.Anything, "prop-1", period, "user-1").
		Return(sessionResult("sess-1", 1, 0), nil).Once()
	suite.mockRecon.On("RunSession", mock.Anything, "prop-2", period, "user-1").
		Return(nil, assert.AnError).Once()

	result, err := suite.service.RunBatch(ctx, requests, "user-1")

	suite.Require().NoError(err)
	suite.Equal(1, result.Succeeded)
	suite.Equal(1, result.Failed)
	suite.Equal("sess-1", result.Outcomes[0].SessionID)
	suite.NotEmpty(result.Outcomes[1].Error)
	suite.Empty(result.Outcomes[1].SessionID)
}

func (suite *BatchServiceTestSuite) TestRunBatch_DuplicateScopesSkipped() {
	ctx := context.Background()
	period := domain.Period{Year: 2025, Month: 6}
	requests := []portssvc.BatchRequest{
		{PropertyID: "prop-1", Period: period},
		{PropertyID: "prop-1", Period: period},
		{PropertyID: "prop-1", Period: period.Next()},
	}

	suite.mockRecon.On("RunSession", mock.Anything, "prop-1", period, "user-1").
		Return(sessionResult("sess-1", 0, 0), nil).Once()
	suite.mockRecon.On("RunSession", mock.Anything, "prop-1", period.Next(), "user-1").
		Return(sessionResult("sess-2", 0, 0), nil).Once()

	result, err := suite.service.RunBatch(ctx, requests, "user-1")

	suite.Require().NoError(err)
	suite.Equal(2, result.Succeeded)
	suite.Equal(1, result.Skipped)
	suite.NotEmpty(result.Outcomes[1].Error)

	// The duplicate ran exactly once.
	suite.mockRecon.AssertNumberOfCalls(suite.T(), "RunSession", 2)
}

func (suite *BatchServiceTestSuite) TestRunBatch_EmptyBatchRejected() {
	result, err := suite.service.RunBatch(context.Background(), nil, "user-1")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRecon.AssertNotCalled(suite.T(), "RunSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BatchServiceTestSuite))
}
