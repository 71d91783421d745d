package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
	"github.com/crewledger/ledger_backend/internal/core/ports"
	portssvc "github.com/crewledger/ledger_backend/internal/core/ports/services"
	"github.com/crewledger/ledger_backend/internal/core/services"
	"github.com/crewledger/ledger_backend/internal/dto"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ ports.AccountRepository = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, tenantID, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListActiveAccounts(ctx context.Context, tenantID string) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SetAccountActive(ctx context.Context, tenantID, accountID string, active bool, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tenantID, accountID, active, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsByIDsForUpdate(ctx context.Context, tx pgx.Tx, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplyBalanceEffectsInTx(ctx context.Context, tx pgx.Tx, effects map[string]int64, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, effects, updatedBy, updatedAt)
	return args.Error(0)
}

// --- Test Suite Setup ---
type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.AccountSvcFacade
	tenantID string
	userID   string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockRepo)
	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		AccountNumber: "1000",
		Name:          "Cash",
		AccountType:   domain.Asset,
		Description:   "Operating cash",
	}

	suite.mockRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.TenantID == suite.tenantID &&
			a.AccountNumber == "1000" &&
			a.IsActive &&
			a.BalanceCents == 0 &&
			a.CreatedBy == suite.userID
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(account)
	suite.NotEmpty(account.AccountID)
	suite.Equal(domain.Asset, account.AccountType)
	suite.True(account.IsActive)
	suite.Equal(int64(0), account.BalanceCents)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_UnknownType() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		AccountNumber: "1000",
		Name:          "Cash",
		AccountType:   domain.AccountType("CONTRA"),
	}

	_, err := suite.service.CreateAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount")
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicateNumber() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		AccountNumber: "1000",
		Name:          "Cash",
		AccountType:   domain.Asset,
	}

	suite.mockRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateAccount(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *AccountServiceTestSuite) TestGetAccount_NotFound() {
	ctx := context.Background()
	accountID := uuid.NewString()

	suite.mockRepo.On("FindAccountByID", ctx, suite.tenantID, accountID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetAccount(ctx, suite.tenantID, accountID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()
	accountID := uuid.NewString()

	suite.mockRepo.On("SetAccountActive", ctx, suite.tenantID, accountID, false, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.DeactivateAccount(ctx, suite.tenantID, accountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestListActiveAccounts() {
	ctx := context.Background()
	accounts := []domain.Account{
		{AccountID: uuid.NewString(), TenantID: suite.tenantID, IsActive: true},
	}

	suite.mockRepo.On("ListActiveAccounts", ctx, suite.tenantID).Return(accounts, nil).Once()

	got, err := suite.service.ListActiveAccounts(ctx, suite.tenantID)

	suite.Require().NoError(err)
	suite.Len(got, 1)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
