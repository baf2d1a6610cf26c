package services_test

import (
	"context"
	"testing"

	"github.com/propfolio/recon_backend/internal/apperrors"
	"github.com/propfolio/recon_backend/internal/core/domain"
	portssvc "github.com/propfolio/recon_backend/internal/core/ports/services"
	"github.com/propfolio/recon_backend/internal/core/services"
	"github.com/propfolio/recon_backend/internal/matching"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock RecordRepository ---
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindRecords(ctx context.Context, propertyID string, period domain.Period, docType domain.DocumentType) ([]domain.FinancialRecord, error) {
	args := m.Called(ctx, propertyID, period, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinancialRecord), args.Error(1)
}

// --- Mock ConfigRepository ---
type MockConfigRepository struct {
	mock.Mock
}

func (m *MockConfigRepository) LoadConfigSnapshot(ctx context.Context, propertyID string) (*domain.ConfigSnapshot, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ConfigSnapshot), args.Error(1)
}

// --- Mock SessionRepository ---
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) SaveSessionResult(ctx context.Context, result *domain.SessionResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.SessionResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionResult), args.Error(1)
}

func (m *MockSessionRepository) FindDiscrepancies(ctx context.Context, sessionID string, tier domain.ExceptionTier) ([]domain.Discrepancy, error) {
	args := m.Called(ctx, sessionID, tier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Discrepancy), args.Error(1)
}

func (m *MockSessionRepository) FindDiscrepancyByID(ctx context.Context, discrepancyID string) (*domain.Discrepancy, error) {
	args := m.Called(ctx, discrepancyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Discrepancy), args.Error(1)
}

func (m *MockSessionRepository) UpdateDiscrepancyStatus(ctx context.Context, discrepancyID string, status domain.ResolutionStatus, userID string) error {
	args := m.Called(ctx, discrepancyID, status, userID)
	return args.Error(0)
}

// --- Test Suite ---
type ReconciliationServiceTestSuite struct {
	suite.Suite
	mockRecordRepo  *MockRecordRepository
	mockConfigRepo  *MockConfigRepository
	mockSessionRepo *MockSessionRepository
	service         portssvc.ReconciliationSvc
}

func (suite *ReconciliationServiceTestSuite) SetupTest() {
	suite.mockRecordRepo = new(MockRecordRepository)
	suite.mockConfigRepo = new(MockConfigRepository)
	suite.mockSessionRepo = new(MockSessionRepository)
	suite.service = services.NewReconciliationService(
		suite.mockRecordRepo,
		suite.mockConfigRepo,
		suite.mockSessionRepo,
		services.NewMaterialityResolver(),
		services.NewTierClassifier(),
		services.NewAutoResolutionEngine(),
		matching.Params{},
		decimal.Zero,
	)
}

func testRecord(id, code, name, amount string, docType domain.DocumentType) domain.FinancialRecord {
	return domain.FinancialRecord{
		RecordID:     id,
		PropertyID:   "prop-1",
		AccountCode:  code,
		AccountName:  name,
		Amount:       decimal.RequireFromString(amount),
		Period:       domain.Period{Year: 2025, Month: 6},
		DocumentType: docType,
	}
}

func (suite *ReconciliationServiceTestSuite) expectRecords(docType domain.DocumentType, records []domain.FinancialRecord) {
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", domain.Period{Year: 2025, Month: 6}, docType).
		Return(records, nil).Once()
}

func (suite *ReconciliationServiceTestSuite) TestRunSession_FullyMatchedStatements() {
	ctx := context.Background()
	period := domain.Period{Year: 2025, Month: 6}

	suite.mockConfigRepo.On("LoadConfigSnapshot", mock.Anything, "prop-1").
		Return(&domain.ConfigSnapshot{}, nil).Once()

	suite.expectRecords(domain.BalanceSheet, []domain.FinancialRecord{
		testRecord("bs-cash", "1010", "Cash - Operating", "50000.00", domain.BalanceSheet),
		testRecord("bs-earnings", "3900", "Current Period Earnings", "12000.00", domain.BalanceSheet),
		testRecord("bs-prepaid", "4000", "Prepaid Insurance", "100.00", domain.BalanceSheet),
	})
	suite.expectRecords(domain.IncomeStatement, []domain.FinancialRecord{
		testRecord("is-prepaid", "4000", "Prepaid Insurance", "100.00", domain.IncomeStatement),
		testRecord("is-net", "9000", "Net Income", "12000.00", domain.IncomeStatement),
	})
	suite.expectRecords(domain.CashFlow, []domain.FinancialRecord{
		testRecord("cf-ending", "1010", "Ending Cash", "50000.00", domain.CashFlow),
	})
	suite.expectRecords(domain.MortgageStatement, nil)
	suite.expectRecords(domain.RentRoll, nil)

	suite.mockSessionRepo.On("SaveSessionResult", mock.Anything, mock.AnythingOfType("*domain.SessionResult")).
		Return(nil).Once()

	result, err := suite.service.RunSession(ctx, "prop-1", period, "user-1")

	suite.Require().NoError(err)
	suite.Require().NotNil(result)
	suite.Equal(domain.SessionCompleted, result.Session.Status)
	suite.Equal(6, result.RecordsConsidered)
	suite.Equal(3, result.MatchesFound)
	suite.Equal(2, result.MatchesByType[domain.MatchExact])
	suite.Equal(1, result.MatchesByType[domain.MatchCalculated])
	suite.Zero(result.DiscrepanciesFound)

	for _, match := range result.Matches {
		suite.NotEmpty(match.MatchID)
		suite.Equal(result.Session.SessionID, match.SessionID)
		suite.Equal("user-1", match.CreatedBy)
	}

	suite.mockRecordRepo.AssertExpectations(suite.T())
	suite.mockConfigRepo.AssertExpectations(suite.T())
	suite.mockSessionRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestRunSession_UnmatchedRecordBecomesDiscrepancy() {
	ctx := context.Background()
	period := domain.Period{Year: 2025, Month: 6}

	suite.mockConfigRepo.On("LoadConfigSnapshot", mock.Anything, "prop-1").
		Return(&domain.ConfigSnapshot{}, nil).Once()

	// One orphaned balance sheet line, nothing on the other statements.
	suite.expectRecords(domain.BalanceSheet, []domain.FinancialRecord{
		testRecord("bs-orphan", "2700", "Long Term Debt", "5000.00", domain.BalanceSheet),
	})
	suite.expectRecords(domain.IncomeStatement, nil)
	suite.expectRecords(domain.CashFlow, nil)
	suite.expectRecords(domain.MortgageStatement, nil)
	suite.expectRecords(domain.RentRoll, nil)

	suite.mockSessionRepo.On("SaveSessionResult", mock.Anything, mock.AnythingOfType("*domain.SessionResult")).
		Return(nil).Once()

	result, err := suite.service.RunSession(ctx, "prop-1", period, "user-1")

	suite.Require().NoError(err)
	suite.Zero(result.MatchesFound)
	suite.Require().Equal(1, result.DiscrepanciesFound)

	disc := result.Discrepancies[0]
	suite.Equal("bs-orphan", disc.RecordID)
	suite.Empty(disc.CounterpartRecordID)
	suite.True(disc.MatchConfidence.IsZero())
	// 5000 against the default 100 threshold: 50x, critical severity, committee.
	suite.Equal(domain.SeverityCritical, disc.Severity)
	suite.Equal(domain.Tier3Escalate, disc.ExceptionTier)
	suite.Equal(domain.ResolutionOpen, disc.ResolutionStatus)
	suite.NotEmpty(disc.DiscrepancyID)

	suite.mockSessionRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestRunSession_ImmaterialDiscrepancyAutoCloses() {
	ctx := context.Background()
	period := domain.Period{Year: 2025, Month: 6}

	suite.mockConfigRepo.On("LoadConfigSnapshot", mock.Anything, "prop-1").
		Return(&domain.ConfigSnapshot{}, nil).Once()

	// Difference under the default 100 threshold.
	suite.expectRecords(domain.BalanceSheet, []domain.FinancialRecord{
		testRecord("bs-petty", "1090", "Petty Cash", "50.00", domain.BalanceSheet),
	})
	suite.expectRecords(domain.IncomeStatement, nil)
	suite.expectRecords(domain.CashFlow, nil)
	suite.expectRecords(domain.MortgageStatement, nil)
	suite.expectRecords(domain.RentRoll, nil)

	suite.mockSessionRepo.On("SaveSessionResult", mock.Anything, mock.AnythingOfType("*domain.SessionResult")).
		Return(nil).Once()

	result, err := suite.service.RunSession(ctx, "prop-1", period, "user-1")

	suite.Require().NoError(err)
	suite.Require().Equal(1, result.DiscrepanciesFound)
	disc := result.Discrepancies[0]
	suite.Equal(domain.Tier0AutoClose, disc.ExceptionTier)
	suite.Equal(domain.ResolutionAutoClosed, disc.ResolutionStatus)
}

func (suite *ReconciliationServiceTestSuite) TestRunSession_RepeatRunYieldsIdenticalResults() {
	ctx := context.Background()
	period := domain.Period{Year: 2025, Month: 6}

	// Expectations without Once so both runs are served the same fixtures.
	suite.mockConfigRepo.On("LoadConfigSnapshot", mock.Anything, "prop-1").
		Return(&domain.ConfigSnapshot{}, nil)
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", period, domain.BalanceSheet).
		Return([]domain.FinancialRecord{
			testRecord("bs-cash", "1010", "Cash - Operating", "50000.00", domain.BalanceSheet),
			testRecord("bs-petty", "1090", "Petty Cash", "50.00", domain.BalanceSheet),
			testRecord("bs-debt", "2700", "Long Term Debt", "5000.00", domain.BalanceSheet),
		}, nil)
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", period, domain.IncomeStatement).
		Return([]domain.FinancialRecord{
			testRecord("is-misc", "6900", "Miscellaneous Expense", "350.00", domain.IncomeStatement),
		}, nil)
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", period, domain.CashFlow).
		Return([]domain.FinancialRecord{
			testRecord("cf-ending", "1010", "Ending Cash", "50000.00", domain.CashFlow),
		}, nil)
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", period, domain.MortgageStatement).
		Return([]domain.FinancialRecord(nil), nil)
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", period, domain.RentRoll).
		Return([]domain.FinancialRecord(nil), nil)
	suite.mockSessionRepo.On("SaveSessionResult", mock.Anything, mock.AnythingOfType("*domain.SessionResult")).
		Return(nil)

	first, err := suite.service.RunSession(ctx, "prop-1", period, "user-1")
	suite.Require().NoError(err)
	second, err := suite.service.RunSession(ctx, "prop-1", period, "user-1")
	suite.Require().NoError(err)

	// Unchanged input and configuration must reproduce the same outcome
	// set; only the session identity differs between runs.
	suite.Equal(first.RecordsConsidered, second.RecordsConsidered)
	suite.Equal(first.MatchesFound, second.MatchesFound)
	suite.Equal(first.MatchesByType, second.MatchesByType)
	suite.Equal(first.DiscrepanciesFound, second.DiscrepanciesFound)
	suite.Equal(first.DiscrepanciesByTier, second.DiscrepanciesByTier)
	suite.Equal(tiersByRecord(first), tiersByRecord(second))
	suite.NotEqual(first.Session.SessionID, second.Session.SessionID)

	suite.Equal(1, first.MatchesFound)
	suite.Equal(3, first.DiscrepanciesFound)
	suite.Equal(map[domain.ExceptionTier]int{
		domain.Tier0AutoClose: 1,
		domain.Tier2Route:     1,
		domain.Tier3Escalate:  1,
	}, first.DiscrepanciesByTier)
}

func tiersByRecord(result *domain.SessionResult) map[string]domain.ExceptionTier {
	tiers := make(map[string]domain.ExceptionTier, len(result.Discrepancies))
	for _, disc := range result.Discrepancies {
		tiers[disc.RecordID] = disc.ExceptionTier
	}
	return tiers
}

func (suite *ReconciliationServiceTestSuite) TestRunSession_ConfigLoadFailure() {
	ctx := context.Background()

	suite.mockConfigRepo.On("LoadConfigSnapshot", mock.Anything, "prop-1").
		Return(nil, assert.AnError).Once()

	result, err := suite.service.RunSession(ctx, "prop-1", domain.Period{Year: 2025, Month: 6}, "user-1")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrSessionFailed)
	suite.mockSessionRepo.AssertNotCalled(suite.T(), "SaveSessionResult", mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestRunSession_RecordLoadFailure() {
	ctx := context.Background()

	suite.mockConfigRepo.On("LoadConfigSnapshot", mock.Anything, "prop-1").
		Return(&domain.ConfigSnapshot{}, nil).Once()
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	result, err := suite.service.RunSession(ctx, "prop-1", domain.Period{Year: 2025, Month: 6}, "user-1")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrSessionFailed)
}

func (suite *ReconciliationServiceTestSuite) TestRunSession_PersistFailure() {
	ctx := context.Background()

	suite.mockConfigRepo.On("LoadConfigSnapshot", mock.Anything, "prop-1").
		Return(&domain.ConfigSnapshot{}, nil).Once()
	suite.mockRecordRepo.On("FindRecords", mock.Anything, "prop-1", mock.Anything, mock.Anything).
		Return([]domain.FinancialRecord(nil), nil)
	suite.mockSessionRepo.On("SaveSessionResult", mock.Anything, mock.Anything).
		Return(assert.AnError).Once()

	result, err := suite.service.RunSession(ctx, "prop-1", domain.Period{Year: 2025, Month: 6}, "user-1")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrSessionFailed)
}

func (suite *ReconciliationServiceTestSuite) TestResolveDiscrepancy_GovernanceTransitions() {
	ctx := context.Background()

	suite.mockSessionRepo.On("FindDiscrepancyByID", ctx, "disc-1").
		Return(&domain.Discrepancy{DiscrepancyID: "disc-1"}, nil).Once()
	suite.mockSessionRepo.On("UpdateDiscrepancyStatus", ctx, "disc-1", domain.ResolutionResolved, "user-1").
		Return(nil).Once()

	err := suite.service.ResolveDiscrepancy(ctx, "disc-1", domain.ResolutionResolved, "user-1")
	suite.Require().NoError(err)
	suite.mockSessionRepo.AssertExpectations(suite.T())
}

func (suite *ReconciliationServiceTestSuite) TestResolveDiscrepancy_EngineOwnedStatusRejected() {
	ctx := context.Background()

	for _, status := range []domain.ResolutionStatus{domain.ResolutionOpen, domain.ResolutionAutoClosed, domain.ResolutionSuggested} {
		err := suite.service.ResolveDiscrepancy(ctx, "disc-1", status, "user-1")
		suite.Require().Error(err)
		suite.ErrorIs(err, apperrors.ErrValidation)
	}
	suite.mockSessionRepo.AssertNotCalled(suite.T(), "UpdateDiscrepancyStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReconciliationServiceTestSuite) TestResolveDiscrepancy_NotFound() {
	ctx := context.Background()

	suite.mockSessionRepo.On("FindDiscrepancyByID", ctx, "missing").
		Return(nil, apperrors.ErrNotFound).Once()

	err := suite.service.ResolveDiscrepancy(ctx, "missing", domain.ResolutionAcknowledged, "user-1")
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestReconciliationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceTestSuite))
}
