package reviewservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/config"
	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/metrics"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/GlebRadaev/bountyhub/internal/settlement"
	"go.uber.org/zap"
)

//go:generate mockgen -source=reviewservice.go -destination=mock_reviewservice.go -package=reviewservice

type SubmissionRepo interface {
	GetForUpdate(ctx context.Context, id int) (*domain.Submission, error)
	Settle(ctx context.Context, id int, amount float64, feedback string) (*domain.Submission, error)
	Reject(ctx context.Context, id int, feedback string) (*domain.Submission, error)
}

type TaskRepo interface {
	GetByID(ctx context.Context, id int) (*domain.Task, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
	AdjustBalance(ctx context.Context, userID int, delta float64) (float64, error)
	DecrementCredit(ctx context.Context, userID, penalty int) (int, error)
}

type AuditRepo interface {
	Append(ctx context.Context, log *domain.AuditLog) error
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Badges interface {
	Award(ctx context.Context, userID int) ([]domain.Medal, error)
}

type Repos struct {
	Submissions SubmissionRepo
	Tasks       TaskRepo
	Users       UserRepo
	Audit       AuditRepo
}

type Service struct {
	repos      Repos
	txManager  pg.TXManager
	calculator *settlement.Calculator
	notifier   Notifier
	badges     Badges
	metrics    *metrics.Metrics
	penalty    int
	now        func() time.Time
}

func New(cfg *config.Config, repos Repos, txManager pg.TXManager, notifier Notifier, badges Badges, m *metrics.Metrics) *Service {
	return &Service{
		repos:      repos,
		txManager:  txManager,
		calculator: settlement.New(cfg.VIPBonus, cfg.CommissionPercent),
		notifier:   notifier,
		badges:     badges,
		metrics:    m,
		penalty:    cfg.RejectPenalty,
		now:        time.Now,
	}
}

// ReviewSubmission applies the operator decision. Approval pays the reward
// and the inviter commission exactly once per submission; a repeated
// approval is refused with ErrAlreadySettled. Rejection only lowers the
// submitter's credit score.
func (s *Service) ReviewSubmission(ctx context.Context, operatorID, submissionID int, decision domain.Decision, amount *float64, feedback string) (*domain.Outcome, error) {
	if submissionID <= 0 {
		return nil, domain.ErrInvalidID
	}

	switch decision {
	case domain.DecisionApprove:
		return s.approve(ctx, operatorID, submissionID, amount, feedback)
	case domain.DecisionReject:
		return s.reject(ctx, operatorID, submissionID, feedback)
	}
	return nil, domain.ErrUnknownDecision
}

func (s *Service) approve(ctx context.Context, operatorID, submissionID int, amount *float64, feedback string) (*domain.Outcome, error) {
	var (
		outcome *domain.Outcome
		payeeID int
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		sub, err := s.repos.Submissions.GetForUpdate(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrSubmissionNotFound
		}
		if _, err := domain.Transition(sub.Status, domain.EventApprove); err != nil {
			return err
		}

		task, err := s.repos.Tasks.GetByID(ctx, sub.TaskID)
		if err != nil {
			return err
		}
		user, err := s.repos.Users.GetByID(ctx, sub.UserID)
		if err != nil {
			return err
		}
		if task == nil || user == nil {
			zap.L().Error("submission references missing rows", zap.Int("submission_id", sub.ID), zap.Int("task_id", sub.TaskID), zap.Int("user_id", sub.UserID))
			return fmt.Errorf("%w: submission %d lost its task or user", domain.ErrStorageInvariant, sub.ID)
		}

		reward, err := s.calculator.Reward(task, user, amount, s.now())
		if err != nil {
			return err
		}

		settled, err := s.repos.Submissions.Settle(ctx, sub.ID, reward, feedback)
		if err != nil {
			return err
		}
		if settled == nil {
			return domain.ErrAlreadySettled
		}
		if reward > 0 {
			if _, err := s.repos.Users.AdjustBalance(ctx, user.ID, reward); err != nil {
				return err
			}
		}

		payeeID = user.ID
		outcome = &domain.Outcome{
			SubmissionID: sub.ID,
			Status:       settled.Status,
			FinalAmount:  reward,
			CreditScore:  user.CreditScore,
		}
		if user.InviterID != nil && *user.InviterID != user.ID {
			commission := s.calculator.Commission(reward)
			if commission > 0 {
				if _, err := s.repos.Users.AdjustBalance(ctx, *user.InviterID, commission); err != nil {
					return err
				}
				outcome.InviterID = user.InviterID
				outcome.Commission = commission
			}
		}

		return s.audit(ctx, operatorID, "submission.approve", sub.ID, map[string]any{
			"user_id":    user.ID,
			"from":       sub.Status.String(),
			"amount":     fmt.Sprintf("%.2f", reward),
			"commission": fmt.Sprintf("%.2f", outcome.Commission),
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadySettled) {
			s.metrics.DoubleSettlement()
			zap.L().Error("attempted double settlement", zap.Int("submission_id", submissionID), zap.Int("operator_id", operatorID))
		}
		return nil, err
	}

	s.metrics.Review("approve")
	s.metrics.Settled(outcome.FinalAmount, outcome.Commission)
	zap.L().Info("submission approved",
		zap.Int("submission_id", submissionID),
		zap.Int("operator_id", operatorID),
		zap.Float64("amount", outcome.FinalAmount),
		zap.Float64("commission", outcome.Commission),
	)

	s.notifier.Notify(ctx, domain.Notification{
		UserID:  payeeID,
		Title:   "Submission approved",
		Content: fmt.Sprintf("Submission #%d was approved, %.2f credited", submissionID, outcome.FinalAmount),
		Kind:    domain.NotifySettlement,
	})
	if outcome.InviterID != nil {
		s.notifier.Notify(ctx, domain.Notification{
			UserID:  *outcome.InviterID,
			Title:   "Referral commission",
			Content: fmt.Sprintf("%.2f credited for submission #%d of an invited user", outcome.Commission, submissionID),
			Kind:    domain.NotifySettlement,
		})
	}

	// The payout is committed; a failed award is retried on the next approval.
	if _, err := s.badges.Award(ctx, payeeID); err != nil {
		zap.L().Warn("failed to award medals", zap.Int("user_id", payeeID), zap.Error(err))
	}
	return outcome, nil
}

func (s *Service) reject(ctx context.Context, operatorID, submissionID int, feedback string) (*domain.Outcome, error) {
	var (
		outcome *domain.Outcome
		userID  int
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		sub, err := s.repos.Submissions.GetForUpdate(ctx, submissionID)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrSubmissionNotFound
		}
		if _, err := domain.Transition(sub.Status, domain.EventReject); err != nil {
			return err
		}

		rejected, err := s.repos.Submissions.Reject(ctx, sub.ID, feedback)
		if err != nil {
			return err
		}
		if rejected == nil {
			return fmt.Errorf("%w: submission %d changed under lock", domain.ErrInvalidState, sub.ID)
		}

		score, err := s.repos.Users.DecrementCredit(ctx, sub.UserID, s.penalty)
		if err != nil {
			return err
		}

		userID = sub.UserID
		outcome = &domain.Outcome{
			SubmissionID: sub.ID,
			Status:       rejected.Status,
			CreditScore:  score,
		}
		return s.audit(ctx, operatorID, "submission.reject", sub.ID, map[string]any{
			"user_id":  sub.UserID,
			"feedback": feedback,
			"penalty":  s.penalty,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Review("reject")
	s.notifier.Notify(ctx, domain.Notification{
		UserID:  userID,
		Title:   "Submission rejected",
		Content: fmt.Sprintf("Submission #%d was rejected: %s", submissionID, feedback),
		Kind:    domain.NotifyReview,
	})
	return outcome, nil
}

func (s *Service) audit(ctx context.Context, operatorID int, action string, targetID int, detail map[string]any) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return s.repos.Audit.Append(ctx, &domain.AuditLog{
		OperatorID: operatorID,
		Action:     action,
		TargetID:   targetID,
		Detail:     string(raw),
	})
}
