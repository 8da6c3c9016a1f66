package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/bizledger/internal/apperrors"
	"github.com/SscSPs/bizledger/internal/core/domain"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/core/services"
	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ChartServiceTestSuite struct {
	suite.Suite
	mockRepo *MockAccountRepository
	service  portssvc.ChartSvcFacade
	ctx      context.Context
	now      time.Time
}

func (suite *ChartServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	suite.service = services.NewChartService(suite.mockRepo, time.Minute, services.WithClock(func() time.Time { return suite.now }))
	suite.ctx = context.Background()
}

func (suite *ChartServiceTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{Code: " 1000 ", Name: "Cash", AccountType: domain.Asset}

	suite.mockRepo.On("SaveAccount", suite.ctx, mock.MatchedBy(func(acc domain.Account) bool {
		return acc.Code == "1000" && acc.TenantID == "t1" && acc.ChartID == "default" && acc.IsActive && acc.CreatedAt.Equal(suite.now)
	})).Return(nil).Once()

	acc, err := suite.service.CreateAccount(suite.ctx, "t1", req, "u1")
	suite.NoError(err)
	suite.NotEmpty(acc.AccountID)
	suite.Equal("u1", acc.CreatedBy)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ChartServiceTestSuite) TestCreateAccount_InvalidType() {
	_, err := suite.service.CreateAccount(suite.ctx, "t1", dto.CreateAccountRequest{Code: "1", Name: "x", AccountType: "REVENUE"}, "u1")
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *ChartServiceTestSuite) TestCreateAccount_ParentInOtherChart() {
	parentID := "parent"
	suite.mockRepo.On("FindAccountByID", suite.ctx, "t1", parentID).
		Return(&domain.Account{AccountID: parentID, TenantID: "t1", ChartID: "legacy"}, nil).Once()

	_, err := suite.service.CreateAccount(suite.ctx, "t1", dto.CreateAccountRequest{
		Code: "1100", Name: "AR", AccountType: domain.Asset, ParentAccountID: &parentID,
	}, "u1")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ChartServiceTestSuite) TestCreateAccount_MissingParent() {
	parentID := "ghost"
	suite.mockRepo.On("FindAccountByID", suite.ctx, "t1", parentID).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.CreateAccount(suite.ctx, "t1", dto.CreateAccountRequest{
		Code: "1100", Name: "AR", AccountType: domain.Asset, ParentAccountID: &parentID,
	}, "u1")
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ChartServiceTestSuite) TestCreateAccount_DuplicateCode() {
	suite.mockRepo.On("SaveAccount", suite.ctx, mock.AnythingOfType("domain.Account")).Return(apperrors.ErrDuplicate).Once()

	_, err := suite.service.CreateAccount(suite.ctx, "t1", dto.CreateAccountRequest{Code: "1000", Name: "Cash", AccountType: domain.Asset}, "u1")
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *ChartServiceTestSuite) TestLoadChart_IsCachedUntilWrite() {
	accounts := []domain.Account{{AccountID: "a1", TenantID: "t1", Code: "1000", IsActive: true}}
	suite.mockRepo.On("ListAccounts", suite.ctx, "t1").Return(accounts, nil).Twice()

	chart, err := suite.service.LoadChart(suite.ctx, "t1")
	suite.NoError(err)
	_, ok := chart.ByCode("1000")
	suite.True(ok)

	_, err = suite.service.LoadChart(suite.ctx, "t1")
	suite.NoError(err)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "ListAccounts", 1)

	suite.mockRepo.On("FindAccountByID", suite.ctx, "t1", "a1").Return(&accounts[0], nil).Once()
	suite.mockRepo.On("DeactivateAccount", suite.ctx, "t1", "a1", "u1", suite.now).Return(nil).Once()
	suite.NoError(suite.service.DeactivateAccount(suite.ctx, "t1", "a1", "u1"))

	_, err = suite.service.LoadChart(suite.ctx, "t1")
	suite.NoError(err)
	suite.mockRepo.AssertNumberOfCalls(suite.T(), "ListAccounts", 2)
}

func (suite *ChartServiceTestSuite) TestDeleteAccount_Referenced() {
	suite.mockRepo.On("FindAccountByID", suite.ctx, "t1", "a1").Return(&domain.Account{AccountID: "a1", TenantID: "t1"}, nil).Once()
	suite.mockRepo.On("IsAccountReferenced", suite.ctx, "t1", "a1").Return(true, nil).Once()

	err := suite.service.DeleteAccount(suite.ctx, "t1", "a1", "u1")
	suite.ErrorIs(err, services.ErrAccountReferenced)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockRepo.AssertNotCalled(suite.T(), "DeleteAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ChartServiceTestSuite) TestDeleteAccount_HasChildren() {
	parent := "a1"
	suite.mockRepo.On("FindAccountByID", suite.ctx, "t1", "a1").Return(&domain.Account{AccountID: "a1", TenantID: "t1"}, nil).Once()
	suite.mockRepo.On("IsAccountReferenced", suite.ctx, "t1", "a1").Return(false, nil).Once()
	suite.mockRepo.On("ListAccounts", suite.ctx, "t1").Return([]domain.Account{
		{AccountID: "a1"}, {AccountID: "a2", ParentAccountID: &parent},
	}, nil).Once()

	err := suite.service.DeleteAccount(suite.ctx, "t1", "a1", "u1")
	suite.ErrorIs(err, services.ErrAccountHasChildren)
}

func (suite *ChartServiceTestSuite) TestDeleteAccount_Success() {
	suite.mockRepo.On("FindAccountByID", suite.ctx, "t1", "a1").Return(&domain.Account{AccountID: "a1", TenantID: "t1"}, nil).Once()
	suite.mockRepo.On("IsAccountReferenced", suite.ctx, "t1", "a1").Return(false, nil).Once()
	suite.mockRepo.On("ListAccounts", suite.ctx, "t1").Return([]domain.Account{{AccountID: "a1"}}, nil).Once()
	suite.mockRepo.On("DeleteAccount", suite.ctx, "t1", "a1").Return(nil).Once()

	suite.NoError(suite.service.DeleteAccount(suite.ctx, "t1", "a1", "u1"))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ChartServiceTestSuite) TestGetAccountByID_RepoError() {
	boom := errors.New("db down")
	suite.mockRepo.On("FindAccountByID", suite.ctx, "t1", "a1").Return(nil, boom).Once()

	_, err := suite.service.GetAccountByID(suite.ctx, "t1", "a1")
	suite.ErrorIs(err, boom)
}

func TestChartService(t *testing.T) {
	suite.Run(t, new(ChartServiceTestSuite))
}

func TestApprovalGateCheck(t *testing.T) {
	ctx := context.Background()
	repo := new(MockApprovalRepository)
	gate := services.NewApprovalService(repo, nil)

	repo.On("FindLatestApproval", ctx, "t1", domain.EntityTypeTransactionSet, "none").Return(nil, apperrors.ErrNotFound).Once()
	repo.On("FindLatestApproval", ctx, "t1", domain.EntityTypeTransactionSet, "pending").Return(&domain.Approval{Status: domain.ApprovalPending}, nil).Once()
	repo.On("FindLatestApproval", ctx, "t1", domain.EntityTypeTransactionSet, "broken").Return(nil, errors.New("db down")).Once()

	decision, err := gate.Check(ctx, "t1", domain.EntityTypeTransactionSet, "none")
	assert.NoError(t, err)
	assert.Equal(t, domain.GateClear, decision)

	decision, err = gate.Check(ctx, "t1", domain.EntityTypeTransactionSet, "pending")
	assert.NoError(t, err)
	assert.Equal(t, domain.GateBlockedPending, decision)

	_, err = gate.Check(ctx, "t1", domain.EntityTypeTransactionSet, "broken")
	assert.Error(t, err, "storage errors must not read as clear")
	repo.AssertExpectations(t)
}
