package handlers_test

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/crewledger/ledger_backend/internal/apperrors"
	"github.com/crewledger/ledger_backend/internal/core/domain"
)

func (suite *LedgerHandlerTestSuite) TestCreateAccount_Success() {
	accountID := uuid.NewString()
	expected := &domain.Account{
		AccountID:     accountID,
		TenantID:      suite.tenantID,
		AccountNumber: "1000",
		Name:          "Cash",
		AccountType:   domain.Asset,
		IsActive:      true,
	}

	suite.mockAccountSvc.On("CreateAccount", mock.Anything, suite.tenantID, mock.AnythingOfType("dto.CreateAccountRequest"), suite.userID).Return(expected, nil).Once()

	body := map[string]interface{}{
		"accountNumber": "1000",
		"name":          "Cash",
		"accountType":   "ASSET",
	}
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts", body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(accountID, resp["accountID"])
	suite.Equal("1000", resp["accountNumber"])
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestCreateAccount_InvalidTypeRejectedByBinding() {
	body := map[string]interface{}{
		"accountNumber": "1000",
		"name":          "Cash",
		"accountType":   "PIGGY_BANK",
	}
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LedgerHandlerTestSuite) TestCreateAccount_DuplicateNumberReturns409() {
	suite.mockAccountSvc.On("CreateAccount", mock.Anything, suite.tenantID, mock.AnythingOfType("dto.CreateAccountRequest"), suite.userID).
		Return(nil, apperrors.ErrDuplicate).Once()

	body := map[string]interface{}{
		"accountNumber": "1000",
		"name":          "Cash",
		"accountType":   "ASSET",
	}
	w := suite.doRequest(http.MethodPost, "/api/v1/accounts", body)

	suite.Equal(http.StatusConflict, w.Code)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestGetAccount_NotFound() {
	accountID := uuid.NewString()
	suite.mockAccountSvc.On("GetAccount", mock.Anything, suite.tenantID, accountID).
		Return(nil, apperrors.ErrNotFound).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/accounts/"+accountID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestDeactivateAccount_Success() {
	accountID := uuid.NewString()
	suite.mockAccountSvc.On("DeactivateAccount", mock.Anything, suite.tenantID, accountID, suite.userID).
		Return(nil).Once()

	w := suite.doRequest(http.MethodDelete, "/api/v1/accounts/"+accountID, nil)

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *LedgerHandlerTestSuite) TestListAccounts_Success() {
	accounts := []domain.Account{
		{AccountID: uuid.NewString(), TenantID: suite.tenantID, AccountNumber: "1000", Name: "Cash", AccountType: domain.Asset, IsActive: true},
		{AccountID: uuid.NewString(), TenantID: suite.tenantID, AccountNumber: "4000", Name: "Revenue", AccountType: domain.Revenue, IsActive: true},
	}
	suite.mockAccountSvc.On("ListActiveAccounts", mock.Anything, suite.tenantID).Return(accounts, nil).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/accounts", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp []map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 2)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}
