package balanceservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

const validAccount = "4539148803436467"

type mocks struct {
	userRepo       *MockUserRepo
	withdrawalRepo *MockWithdrawalRepo
	depositRepo    *MockDepositRepo
	checkInRepo    *MockCheckInRepo
	auditRepo      *MockAuditRepo
	notifier       *MockNotifier
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		userRepo:       NewMockUserRepo(ctrl),
		withdrawalRepo: NewMockWithdrawalRepo(ctrl),
		depositRepo:    NewMockDepositRepo(ctrl),
		checkInRepo:    NewMockCheckInRepo(ctrl),
		auditRepo:      NewMockAuditRepo(ctrl),
		notifier:       NewMockNotifier(ctrl),
	}
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error { return fn(ctx) }).
		AnyTimes()
	service := New(m.userRepo, m.withdrawalRepo, m.depositRepo, m.checkInRepo, m.auditRepo, txManager, m.notifier, 0.5)
	return service, m
}

func TestGetBalance(t *testing.T) {
	tests := []struct {
		name            string
		prepareMock     func(m *mocks)
		expectedBalance *domain.Balance
		expectedError   error
	}{
		{
			name: "Retrieve balance successfully",
			prepareMock: func(m *mocks) {
				m.userRepo.EXPECT().GetByID(gomock.Any(), 1).Return(&domain.User{ID: 1, Balance: 100}, nil)
				m.withdrawalRepo.EXPECT().Totals(gomock.Any(), 1).Return(50.0, 20.0, nil)
			},
			expectedBalance: &domain.Balance{UserID: 1, Current: 100, WithdrawnTotal: 50, PendingTotal: 20},
		},
		{
			name: "Unknown user",
			prepareMock: func(m *mocks) {
				m.userRepo.EXPECT().GetByID(gomock.Any(), 1).Return(nil, nil)
			},
			expectedError: domain.ErrUserNotFound,
		},
		{
			name: "Error retrieving totals",
			prepareMock: func(m *mocks) {
				m.userRepo.EXPECT().GetByID(gomock.Any(), 1).Return(&domain.User{ID: 1}, nil)
				m.withdrawalRepo.EXPECT().Totals(gomock.Any(), 1).Return(0.0, 0.0, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			balance, err := service.GetBalance(context.Background(), 1)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedBalance, balance)
			}
		})
	}
}

func TestWithdraw(t *testing.T) {
	actor := domain.Actor{UserID: 1}

	tests := []struct {
		name          string
		actor         domain.Actor
		amount        float64
		account       string
		realName      string
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name:     "Successful withdrawal",
			actor:    actor,
			amount:   30.004,
			account:  validAccount,
			realName: " Jane Doe ",
			prepareMock: func(m *mocks) {
				m.userRepo.EXPECT().AdjustBalance(gomock.Any(), 1, -30.0).Return(70.0, nil)
				m.withdrawalRepo.EXPECT().
					CreateWithdrawal(gomock.Any(), &domain.Withdrawal{UserID: 1, Amount: 30, RealName: "Jane Doe", Account: validAccount}).
					DoAndReturn(func(_ context.Context, wd *domain.Withdrawal) (*domain.Withdrawal, error) {
						wd.ID = 9
						wd.Status = domain.WithdrawalPending
						return wd, nil
					})
				m.auditRepo.EXPECT().Append(gomock.Any(), &domain.AuditLog{
					OperatorID: 1, Action: "withdrawal.request", TargetID: 9, Detail: `{"amount":"30.00"}`,
				}).Return(nil)
			},
		},
		{
			name:     "Insufficient balance",
			actor:    actor,
			amount:   300,
			account:  validAccount,
			realName: "Jane Doe",
			prepareMock: func(m *mocks) {
				m.userRepo.EXPECT().AdjustBalance(gomock.Any(), 1, -300.0).Return(0.0, domain.ErrInsufficientBalance)
			},
			expectedError: domain.ErrInsufficientBalance,
		},
		{
			name:          "Invalid account",
			actor:         actor,
			amount:        10,
			account:       "4539148803436468",
			realName:      "Jane Doe",
			expectedError: domain.ErrInvalidAccount,
		},
		{
			name:          "Zero amount",
			actor:         actor,
			amount:        0.001,
			account:       validAccount,
			realName:      "Jane Doe",
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:          "Missing real name",
			actor:         actor,
			amount:        10,
			account:       validAccount,
			expectedError: domain.ErrEmptyRealName,
		},
		{
			name:          "Banned user",
			actor:         domain.Actor{UserID: 1, Banned: true},
			amount:        10,
			account:       validAccount,
			realName:      "Jane Doe",
			expectedError: domain.ErrBanned,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			if tt.prepareMock != nil {
				tt.prepareMock(m)
			}

			wd, err := service.Withdraw(context.Background(), tt.actor, tt.amount, tt.realName, tt.account)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, wd)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 9, wd.ID)
				assert.Equal(t, 30.0, wd.Amount)
			}
		})
	}
}

func TestGetWithdrawals(t *testing.T) {
	service, m := NewMock(t)
	m.withdrawalRepo.EXPECT().GetWithdrawalsByUserID(gomock.Any(), 1).Return(nil, nil)

	withdrawals, err := service.GetWithdrawals(context.Background(), 1)
	assert.NoError(t, err)
	assert.NotNil(t, withdrawals)
	assert.Empty(t, withdrawals)
}

func TestReviewWithdrawal(t *testing.T) {
	pending := func() *domain.Withdrawal {
		return &domain.Withdrawal{ID: 9, UserID: 1, Amount: 30, Status: domain.WithdrawalPending}
	}

	tests := []struct {
		name           string
		decision       domain.Decision
		prepareMock    func(m *mocks)
		expectedStatus domain.WithdrawalStatus
		expectedError  error
	}{
		{
			name:     "Marked paid",
			decision: domain.DecisionApprove,
			prepareMock: func(m *mocks) {
				m.withdrawalRepo.EXPECT().GetForUpdate(gomock.Any(), 9).Return(pending(), nil)
				m.withdrawalRepo.EXPECT().Resolve(gomock.Any(), 9, domain.WithdrawalPaid, "sent").Return(true, nil)
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())
			},
			expectedStatus: domain.WithdrawalPaid,
		},
		{
			name:     "Rejected with refund",
			decision: domain.DecisionReject,
			prepareMock: func(m *mocks) {
				m.withdrawalRepo.EXPECT().GetForUpdate(gomock.Any(), 9).Return(pending(), nil)
				m.withdrawalRepo.EXPECT().Resolve(gomock.Any(), 9, domain.WithdrawalRejected, "sent").Return(true, nil)
				m.userRepo.EXPECT().AdjustBalance(gomock.Any(), 1, 30.0).Return(100.0, nil)
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, log *domain.AuditLog) error {
						assert.Equal(t, "withdrawal.rejected", log.Action)
						return nil
					})
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())
			},
			expectedStatus: domain.WithdrawalRejected,
		},
		{
			name:     "Already processed",
			decision: domain.DecisionReject,
			prepareMock: func(m *mocks) {
				m.withdrawalRepo.EXPECT().GetForUpdate(gomock.Any(), 9).
					Return(&domain.Withdrawal{ID: 9, UserID: 1, Amount: 30, Status: domain.WithdrawalPaid}, nil)
			},
			expectedError: domain.ErrAlreadyProcessed,
		},
		{
			name:     "Not found",
			decision: domain.DecisionApprove,
			prepareMock: func(m *mocks) {
				m.withdrawalRepo.EXPECT().GetForUpdate(gomock.Any(), 9).Return(nil, nil)
			},
			expectedError: domain.ErrWithdrawalNotFound,
		},
		{
			name:          "Unknown decision",
			prepareMock:   func(m *mocks) {},
			expectedError: domain.ErrUnknownDecision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			tt.prepareMock(m)

			wd, err := service.ReviewWithdrawal(context.Background(), 42, 9, tt.decision, "sent")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedStatus, wd.Status)
			}
		})
	}
}

func TestRequestDeposit(t *testing.T) {
	tests := []struct {
		name          string
		amount        float64
		proof         string
		prepareMock   func(m *mocks)
		expectedError error
	}{
		{
			name:   "Pending deposit recorded",
			amount: 50,
			proof:  "evidence/receipt.png",
			prepareMock: func(m *mocks) {
				m.depositRepo.EXPECT().Create(gomock.Any(), &domain.Deposit{UserID: 1, Amount: 50, ProofRef: "evidence/receipt.png"}).
					DoAndReturn(func(_ context.Context, d *domain.Deposit) (*domain.Deposit, error) {
						d.ID = 3
						d.Status = domain.DepositPending
						return d, nil
					})
				m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:          "Missing proof",
			amount:        50,
			expectedError: domain.ErrEmptyProof,
		},
		{
			name:          "Negative amount",
			amount:        -5,
			proof:         "evidence/receipt.png",
			expectedError: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			if tt.prepareMock != nil {
				tt.prepareMock(m)
			}

			dep, err := service.RequestDeposit(context.Background(), domain.Actor{UserID: 1}, tt.amount, tt.proof)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, domain.DepositPending, dep.Status)
			}
		})
	}
}

func TestReviewDeposit(t *testing.T) {
	t.Run("Approval credits the balance", func(t *testing.T) {
		service, m := NewMock(t)
		m.depositRepo.EXPECT().GetForUpdate(gomock.Any(), 3).
			Return(&domain.Deposit{ID: 3, UserID: 1, Amount: 50, Status: domain.DepositPending}, nil)
		m.depositRepo.EXPECT().Resolve(gomock.Any(), 3, domain.DepositApproved).Return(true, nil)
		m.userRepo.EXPECT().AdjustBalance(gomock.Any(), 1, 50.0).Return(150.0, nil)
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

		dep, err := service.ReviewDeposit(context.Background(), 42, 3, domain.DecisionApprove)
		assert.NoError(t, err)
		assert.Equal(t, domain.DepositApproved, dep.Status)
	})

	t.Run("Rejection credits nothing", func(t *testing.T) {
		service, m := NewMock(t)
		m.depositRepo.EXPECT().GetForUpdate(gomock.Any(), 3).
			Return(&domain.Deposit{ID: 3, UserID: 1, Amount: 50, Status: domain.DepositPending}, nil)
		m.depositRepo.EXPECT().Resolve(gomock.Any(), 3, domain.DepositRejected).Return(true, nil)
		m.auditRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

		dep, err := service.ReviewDeposit(context.Background(), 42, 3, domain.DecisionReject)
		assert.NoError(t, err)
		assert.Equal(t, domain.DepositRejected, dep.Status)
	})

	t.Run("Second review is refused", func(t *testing.T) {
		service, m := NewMock(t)
		m.depositRepo.EXPECT().GetForUpdate(gomock.Any(), 3).
			Return(&domain.Deposit{ID: 3, UserID: 1, Amount: 50, Status: domain.DepositApproved}, nil)

		_, err := service.ReviewDeposit(context.Background(), 42, 3, domain.DecisionApprove)
		assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	})

	t.Run("Not found", func(t *testing.T) {
		service, m := NewMock(t)
		m.depositRepo.EXPECT().GetForUpdate(gomock.Any(), 3).Return(nil, nil)

		_, err := service.ReviewDeposit(context.Background(), 42, 3, domain.DecisionApprove)
		assert.ErrorIs(t, err, domain.ErrDepositNotFound)
	})
}

func TestCheckIn(t *testing.T) {
	now := time.Date(2026, 10, 18, 23, 30, 0, 0, time.FixedZone("UTC+3", 3*60*60))
	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		actor           domain.Actor
		prepareMock     func(m *mocks)
		expectedBalance float64
		expectedError   error
	}{
		{
			name:  "First check-in of the day is credited",
			actor: domain.Actor{UserID: 1},
			prepareMock: func(m *mocks) {
				m.checkInRepo.EXPECT().Create(gomock.Any(), 1, day, 0.5).
					Return(&domain.CheckIn{UserID: 1, Day: day, Amount: 0.5}, nil)
				m.userRepo.EXPECT().AdjustBalance(gomock.Any(), 1, 0.5).Return(10.5, nil)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Cond(func(n domain.Notification) bool {
					return n.UserID == 1 && n.Kind == domain.NotifyBalance && n.Title == "Check-in reward"
				}))
			},
			expectedBalance: 10.5,
		},
		{
			name:  "Second check-in the same day",
			actor: domain.Actor{UserID: 1},
			prepareMock: func(m *mocks) {
				m.checkInRepo.EXPECT().Create(gomock.Any(), 1, day, 0.5).Return(nil, nil)
			},
			expectedError: domain.ErrAlreadyCheckedIn,
		},
		{
			name:          "Banned user",
			actor:         domain.Actor{UserID: 1, Banned: true},
			expectedError: domain.ErrBanned,
		},
		{
			name:  "Balance update fails",
			actor: domain.Actor{UserID: 1},
			prepareMock: func(m *mocks) {
				m.checkInRepo.EXPECT().Create(gomock.Any(), 1, day, 0.5).
					Return(&domain.CheckIn{UserID: 1, Day: day, Amount: 0.5}, nil)
				m.userRepo.EXPECT().AdjustBalance(gomock.Any(), 1, 0.5).Return(0.0, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := NewMock(t)
			service.now = func() time.Time { return now }
			if tt.prepareMock != nil {
				tt.prepareMock(m)
			}

			checkIn, err := service.CheckIn(context.Background(), tt.actor)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.EqualError(t, err, tt.expectedError.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, day, checkIn.Day)
			assert.Equal(t, tt.expectedBalance, checkIn.Balance)
		})
	}

	t.Run("Zero reward disables check-in", func(t *testing.T) {
		service, _ := NewMock(t)
		service.checkInReward = 0

		_, err := service.CheckIn(context.Background(), domain.Actor{UserID: 1})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
