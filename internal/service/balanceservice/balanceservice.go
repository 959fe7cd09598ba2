package balanceservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/GlebRadaev/bountyhub/internal/settlement"
	"github.com/GlebRadaev/bountyhub/pkg/validate"
	"go.uber.org/zap"
)

//go:generate mockgen -source=balanceservice.go -destination=mock_balanceservice.go -package=balanceservice

type UserRepo interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
	AdjustBalance(ctx context.Context, userID int, delta float64) (float64, error)
}

type WithdrawalRepo interface {
	CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error)
	GetWithdrawalsByUserID(ctx context.Context, userID int) ([]domain.Withdrawal, error)
	GetForUpdate(ctx context.Context, id int) (*domain.Withdrawal, error)
	Resolve(ctx context.Context, id int, status domain.WithdrawalStatus, note string) (bool, error)
	Totals(ctx context.Context, userID int) (paid, pending float64, err error)
}

type DepositRepo interface {
	Create(ctx context.Context, deposit *domain.Deposit) (*domain.Deposit, error)
	GetForUpdate(ctx context.Context, id int) (*domain.Deposit, error)
	Resolve(ctx context.Context, id int, status domain.DepositStatus) (bool, error)
}

type CheckInRepo interface {
	Create(ctx context.Context, userID int, day time.Time, amount float64) (*domain.CheckIn, error)
}

type AuditRepo interface {
	Append(ctx context.Context, log *domain.AuditLog) error
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Service struct {
	userRepo       UserRepo
	withdrawalRepo WithdrawalRepo
	depositRepo    DepositRepo
	checkInRepo    CheckInRepo
	auditRepo      AuditRepo
	txManager      pg.TXManager
	notifier       Notifier
	checkInReward  float64
	now            func() time.Time
}

func New(userRepo UserRepo, withdrawalRepo WithdrawalRepo, depositRepo DepositRepo, checkInRepo CheckInRepo, auditRepo AuditRepo, txManager pg.TXManager, notifier Notifier, checkInReward float64) *Service {
	return &Service{
		userRepo:       userRepo,
		withdrawalRepo: withdrawalRepo,
		depositRepo:    depositRepo,
		checkInRepo:    checkInRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		notifier:       notifier,
		checkInReward:  settlement.Cents(checkInReward),
		now:            time.Now,
	}
}

func (s *Service) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get user", zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	paid, pending, err := s.withdrawalRepo.Totals(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get withdrawal totals", zap.Error(err))
		return nil, err
	}
	return &domain.Balance{
		UserID:         userID,
		Current:        user.Balance,
		WithdrawnTotal: paid,
		PendingTotal:   pending,
	}, nil
}

// Withdraw debits the balance right away and files a request for an
// operator to pay out.
func (s *Service) Withdraw(ctx context.Context, actor domain.Actor, amount float64, realName, account string) (*domain.Withdrawal, error) {
	if actor.Banned {
		return nil, domain.ErrBanned
	}
	amount = settlement.Cents(amount)
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	realName = strings.TrimSpace(realName)
	if realName == "" {
		return nil, domain.ErrEmptyRealName
	}
	if !validate.IsLuhn(account) {
		return nil, domain.ErrInvalidAccount
	}

	var created *domain.Withdrawal
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.AdjustBalance(ctx, actor.UserID, -amount); err != nil {
			return err
		}

		var err error
		created, err = s.withdrawalRepo.CreateWithdrawal(ctx, &domain.Withdrawal{
			UserID:   actor.UserID,
			Amount:   amount,
			RealName: realName,
			Account:  account,
		})
		if err != nil {
			return err
		}
		return s.audit(ctx, actor.UserID, "withdrawal.request", created.ID, map[string]any{
			"amount": fmt.Sprintf("%.2f", amount),
		})
	})
	if err != nil {
		zap.L().Debug("withdrawal refused", zap.Int("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *Service) GetWithdrawals(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	withdrawals, err := s.withdrawalRepo.GetWithdrawalsByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	if withdrawals == nil {
		withdrawals = []domain.Withdrawal{}
	}
	return withdrawals, nil
}

// ReviewWithdrawal marks a pending withdrawal paid, or rejects it and
// refunds the amount.
func (s *Service) ReviewWithdrawal(ctx context.Context, operatorID, withdrawalID int, decision domain.Decision, note string) (*domain.Withdrawal, error) {
	if withdrawalID <= 0 {
		return nil, domain.ErrInvalidID
	}
	status, ok := map[domain.Decision]domain.WithdrawalStatus{
		domain.DecisionApprove: domain.WithdrawalPaid,
		domain.DecisionReject:  domain.WithdrawalRejected,
	}[decision]
	if !ok {
		return nil, domain.ErrUnknownDecision
	}

	var resolved *domain.Withdrawal
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		wd, err := s.withdrawalRepo.GetForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if wd == nil {
			return domain.ErrWithdrawalNotFound
		}
		if wd.Status != domain.WithdrawalPending {
			return domain.ErrAlreadyProcessed
		}

		updated, err := s.withdrawalRepo.Resolve(ctx, wd.ID, status, note)
		if err != nil {
			return err
		}
		if !updated {
			return domain.ErrAlreadyProcessed
		}
		if status == domain.WithdrawalRejected {
			if _, err := s.userRepo.AdjustBalance(ctx, wd.UserID, wd.Amount); err != nil {
				return err
			}
		}

		wd.Status = status
		wd.AdminNote = note
		resolved = wd
		return s.audit(ctx, operatorID, "withdrawal."+string(status), wd.ID, map[string]any{
			"user_id": wd.UserID,
			"amount":  fmt.Sprintf("%.2f", wd.Amount),
			"note":    note,
		})
	})
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Withdrawal #%d of %.2f was paid", resolved.ID, resolved.Amount)
	if status == domain.WithdrawalRejected {
		content = fmt.Sprintf("Withdrawal #%d of %.2f was rejected and refunded", resolved.ID, resolved.Amount)
	}
	s.notifier.Notify(ctx, domain.Notification{
		UserID:  resolved.UserID,
		Title:   "Withdrawal " + string(status),
		Content: content,
		Kind:    domain.NotifyBalance,
	})
	return resolved, nil
}

// RequestDeposit files a top-up backed by a payment proof. Nothing is
// credited until an operator approves it.
func (s *Service) RequestDeposit(ctx context.Context, actor domain.Actor, amount float64, proofRef string) (*domain.Deposit, error) {
	if actor.Banned {
		return nil, domain.ErrBanned
	}
	amount = settlement.Cents(amount)
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if proofRef == "" {
		return nil, domain.ErrEmptyProof
	}

	var created *domain.Deposit
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.depositRepo.Create(ctx, &domain.Deposit{UserID: actor.UserID, Amount: amount, ProofRef: proofRef})
		if err != nil {
			return err
		}
		return s.audit(ctx, actor.UserID, "deposit.request", created.ID, map[string]any{
			"amount": fmt.Sprintf("%.2f", amount),
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) ReviewDeposit(ctx context.Context, operatorID, depositID int, decision domain.Decision) (*domain.Deposit, error) {
	if depositID <= 0 {
		return nil, domain.ErrInvalidID
	}
	status, ok := map[domain.Decision]domain.DepositStatus{
		domain.DecisionApprove: domain.DepositApproved,
		domain.DecisionReject:  domain.DepositRejected,
	}[decision]
	if !ok {
		return nil, domain.ErrUnknownDecision
	}

	var resolved *domain.Deposit
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		dep, err := s.depositRepo.GetForUpdate(ctx, depositID)
		if err != nil {
			return err
		}
		if dep == nil {
			return domain.ErrDepositNotFound
		}
		if dep.Status != domain.DepositPending {
			return domain.ErrAlreadyProcessed
		}

		updated, err := s.depositRepo.Resolve(ctx, dep.ID, status)
		if err != nil {
			return err
		}
		if !updated {
			return domain.ErrAlreadyProcessed
		}
		if status == domain.DepositApproved {
			if _, err := s.userRepo.AdjustBalance(ctx, dep.UserID, dep.Amount); err != nil {
				return err
			}
		}

		dep.Status = status
		resolved = dep
		return s.audit(ctx, operatorID, "deposit."+string(status), dep.ID, map[string]any{
			"user_id": dep.UserID,
			"amount":  fmt.Sprintf("%.2f", dep.Amount),
		})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, domain.Notification{
		UserID:  resolved.UserID,
		Title:   "Deposit " + string(status),
		Content: fmt.Sprintf("Deposit #%d of %.2f was %s", resolved.ID, resolved.Amount, status),
		Kind:    domain.NotifyBalance,
	})
	return resolved, nil
}

// CheckIn credits the daily reward once per UTC day.
func (s *Service) CheckIn(ctx context.Context, actor domain.Actor) (*domain.CheckIn, error) {
	if actor.Banned {
		return nil, domain.ErrBanned
	}
	if s.checkInReward <= 0 {
		return nil, domain.ErrCheckInDisabled
	}
	day := s.now().UTC().Truncate(24 * time.Hour)

	var checkIn *domain.CheckIn
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		checkIn, err = s.checkInRepo.Create(ctx, actor.UserID, day, s.checkInReward)
		if err != nil {
			return err
		}
		if checkIn == nil {
			return domain.ErrAlreadyCheckedIn
		}
		checkIn.Balance, err = s.userRepo.AdjustBalance(ctx, actor.UserID, checkIn.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, domain.Notification{
		UserID:  actor.UserID,
		Title:   "Check-in reward",
		Content: fmt.Sprintf("Daily check-in credited %.2f", checkIn.Amount),
		Kind:    domain.NotifyBalance,
	})
	return checkIn, nil
}

func (s *Service) audit(ctx context.Context, operatorID int, action string, targetID int, detail map[string]any) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return s.auditRepo.Append(ctx, &domain.AuditLog{
		OperatorID: operatorID,
		Action:     action,
		TargetID:   targetID,
		Detail:     string(raw),
	})
}
