package claimservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/config"
	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/fraud"
	"github.com/GlebRadaev/bountyhub/internal/metrics"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/GlebRadaev/bountyhub/pkg/lock"
	"go.uber.org/zap"
)

//go:generate mockgen -source=claimservice.go -destination=mock_claimservice.go -package=claimservice

type TaskRepo interface {
	GetByID(ctx context.Context, id int) (*domain.Task, error)
}

type MaterialRepo interface {
	Allocate(ctx context.Context, categoryID, userID int) (*domain.Material, error)
	Release(ctx context.Context, materialID int) (bool, error)
	MarkUsed(ctx context.Context, materialID int) error
}

type SubmissionRepo interface {
	Create(ctx context.Context, s *domain.Submission) (*domain.Submission, error)
	FindByUserAndTask(ctx context.Context, userID, taskID int) (*domain.Submission, error)
	GetForUpdate(ctx context.Context, id int) (*domain.Submission, error)
	AttachEvidence(ctx context.Context, id int, fingerprint, evidenceRef, link string) (*domain.Submission, error)
	Appeal(ctx context.Context, id int, reason string) (*domain.Submission, error)
	DeleteReservation(ctx context.Context, id int) (bool, error)
	ListByUser(ctx context.Context, userID int) ([]domain.Submission, error)
}

type AuditRepo interface {
	Append(ctx context.Context, log *domain.AuditLog) error
}

type FraudDetector interface {
	Check(ctx context.Context, fingerprint string, excludeID int) (fraud.Verdict, error)
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Repos struct {
	Tasks       TaskRepo
	Materials   MaterialRepo
	Submissions SubmissionRepo
	Audit       AuditRepo
}

type Service struct {
	repos     Repos
	txManager pg.TXManager
	locker    lock.Coordinator
	detector  FraudDetector
	notifier  Notifier
	metrics   *metrics.Metrics
	lockTTL   time.Duration
}

func New(cfg *config.Config, repos Repos, txManager pg.TXManager, locker lock.Coordinator, detector FraudDetector, notifier Notifier, m *metrics.Metrics) *Service {
	return &Service{
		repos:     repos,
		txManager: txManager,
		locker:    locker,
		detector:  detector,
		notifier:  notifier,
		metrics:   m,
		lockTTL:   cfg.LockTTL,
	}
}

// GrabTask claims taskID for the actor. For a pooled task one material is
// reserved and the submission waits for evidence; otherwise the submission
// is pending review right away. A failed claim leaves nothing behind.
func (s *Service) GrabTask(ctx context.Context, actor domain.Actor, taskID int) (*domain.Submission, error) {
	if taskID <= 0 {
		return nil, domain.ErrInvalidID
	}
	if actor.Banned {
		return nil, domain.ErrBanned
	}

	task, err := s.repos.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil || !task.VisibleTo(actor.Tags) {
		return nil, domain.ErrTaskNotFound
	}
	if !task.Active {
		return nil, domain.ErrTaskInactive
	}

	existing, err := s.repos.Submissions.FindByUserAndTask(ctx, actor.UserID, taskID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.metrics.Claim(metrics.ClaimDuplicate)
		return nil, domain.ErrAlreadyClaimed
	}

	var created *domain.Submission
	err = s.locker.WithLock(ctx, fmt.Sprintf("task:%d", taskID), s.lockTTL, func(ctx context.Context) error {
		return s.txManager.Begin(ctx, func(ctx context.Context) error {
			var err error
			created, err = s.claim(ctx, actor, task)
			return err
		})
	})
	if err != nil {
		err = s.claimError(err)
		zap.L().Debug("claim refused", zap.Int("task_id", taskID), zap.Int("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}

	s.metrics.Claim(metrics.ClaimGranted)
	zap.L().Info("task claimed",
		zap.Int("task_id", taskID),
		zap.Int("user_id", actor.UserID),
		zap.Int("submission_id", created.ID),
		zap.Stringer("status", created.Status),
	)
	return created, nil
}

func (s *Service) claim(ctx context.Context, actor domain.Actor, task *domain.Task) (*domain.Submission, error) {
	submission := &domain.Submission{UserID: actor.UserID, TaskID: task.ID}
	event := domain.EventClaimUnpooled

	if categoryID, pooled := task.Material.CategoryID(); pooled {
		material, err := s.repos.Materials.Allocate(ctx, categoryID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if material == nil {
			return nil, domain.ErrNoMaterial
		}
		submission.MaterialID = &material.ID
		event = domain.EventClaimPooled
	}

	status, err := domain.Transition(0, event)
	if err != nil {
		return nil, err
	}
	submission.Status = status

	created, err := s.repos.Submissions.Create(ctx, submission)
	if err != nil {
		return nil, err
	}

	detail := map[string]any{"task_id": task.ID}
	if created.MaterialID != nil {
		detail["material_id"] = *created.MaterialID
	}
	return created, s.audit(ctx, actor.UserID, "submission.claim", created.ID, detail)
}

func (s *Service) claimError(err error) error {
	switch {
	case errors.Is(err, lock.ErrBusy):
		s.metrics.Claim(metrics.ClaimBusy)
		return domain.ErrBusy
	case errors.Is(err, lock.ErrUnavailable):
		s.metrics.Claim(metrics.ClaimFailed)
		return fmt.Errorf("%w: task lock: %v", domain.ErrTransient, err)
	case errors.Is(err, domain.ErrNoMaterial):
		s.metrics.Claim(metrics.ClaimExhausted)
	case errors.Is(err, domain.ErrAlreadyClaimed):
		s.metrics.Claim(metrics.ClaimDuplicate)
	default:
		s.metrics.Claim(metrics.ClaimFailed)
	}
	return err
}

// SubmitEvidence attaches evidence to the actor's submission and sends it
// to review. Evidence whose fingerprint backs another live submission is
// refused and nothing is written.
func (s *Service) SubmitEvidence(ctx context.Context, actor domain.Actor, submissionID int, fingerprint, evidenceRef, link string) (*domain.Submission, error) {
	if submissionID <= 0 {
		return nil, domain.ErrInvalidID
	}
	if actor.Banned {
		return nil, domain.ErrBanned
	}
	if fingerprint == "" {
		return nil, domain.ErrEmptyFingerprint
	}
	if evidenceRef == "" {
		return nil, domain.ErrEmptyEvidence
	}

	var updated *domain.Submission
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		current, err := s.owned(ctx, actor, submissionID)
		if err != nil {
			return err
		}
		if _, err := domain.Transition(current.Status, domain.EventEvidence); err != nil {
			return err
		}

		verdict, err := s.detector.Check(ctx, fingerprint, current.ID)
		if err != nil {
			return err
		}
		if verdict == fraud.Duplicate {
			return domain.ErrDuplicateFingerprint
		}

		updated, err = s.repos.Submissions.AttachEvidence(ctx, current.ID, fingerprint, evidenceRef, link)
		if err != nil {
			return err
		}
		if updated == nil {
			return domain.ErrAlreadyApproved
		}

		if current.Status == domain.SubmissionPendingUpload && current.MaterialID != nil {
			if err := s.repos.Materials.MarkUsed(ctx, *current.MaterialID); err != nil {
				return err
			}
		}
		return s.audit(ctx, actor.UserID, "submission.evidence", current.ID, map[string]any{
			"fingerprint": fingerprint,
			"from":        current.Status.String(),
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateFingerprint) {
			s.metrics.DuplicateEvidence()
			zap.L().Warn("evidence blocked as duplicate", zap.Int("submission_id", submissionID), zap.Int("user_id", actor.UserID))
		}
		return nil, err
	}
	return updated, nil
}

// Appeal reopens a rejected submission for another review.
func (s *Service) Appeal(ctx context.Context, actor domain.Actor, submissionID int, reason string) (*domain.Submission, error) {
	if submissionID <= 0 {
		return nil, domain.ErrInvalidID
	}
	if actor.Banned {
		return nil, domain.ErrBanned
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrEmptyReason
	}

	var updated *domain.Submission
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		current, err := s.owned(ctx, actor, submissionID)
		if err != nil {
			return err
		}
		if _, err := domain.Transition(current.Status, domain.EventAppeal); err != nil {
			return err
		}
		if current.Fingerprint != "" {
			verdict, err := s.detector.Check(ctx, current.Fingerprint, current.ID)
			if err != nil {
				return err
			}
			if verdict == fraud.Duplicate {
				return domain.ErrEvidenceTaken
			}
		}

		updated, err = s.repos.Submissions.Appeal(ctx, current.ID, reason)
		if err != nil {
			return err
		}
		if updated == nil {
			return domain.ErrNotEligible
		}
		return s.audit(ctx, actor.UserID, "submission.appeal", current.ID, map[string]any{"reason": reason})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReleaseReservation lets the actor give up a claim that is still waiting
// for its first upload. The material goes back to the pool.
func (s *Service) ReleaseReservation(ctx context.Context, actor domain.Actor, submissionID int) error {
	if submissionID <= 0 {
		return domain.ErrInvalidID
	}

	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		current, err := s.owned(ctx, actor, submissionID)
		if err != nil {
			return err
		}
		if current.Status != domain.SubmissionPendingUpload {
			return fmt.Errorf("%w: only a reservation waiting for upload can be released", domain.ErrInvalidState)
		}
		return s.release(ctx, current, actor.UserID, "reservation.release")
	})
	if err != nil {
		return err
	}
	s.metrics.Released(metrics.ReleaseByUser)
	return nil
}

// ReleaseExpired drops a reservation whose evidence never arrived. It is a
// no-op when the submission is gone or has moved on.
func (s *Service) ReleaseExpired(ctx context.Context, submissionID int) (bool, error) {
	var released *domain.Submission
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		current, err := s.repos.Submissions.GetForUpdate(ctx, submissionID)
		if err != nil {
			return err
		}
		if current == nil || current.Status != domain.SubmissionPendingUpload {
			return nil
		}
		if err := s.release(ctx, current, domain.SystemOperator, "reservation.expire"); err != nil {
			return err
		}
		released = current
		return nil
	})
	if err != nil || released == nil {
		return false, err
	}

	s.metrics.Released(metrics.ReleaseExpired)
	s.notifier.Notify(ctx, domain.Notification{
		UserID:  released.UserID,
		Title:   "Reservation expired",
		Content: fmt.Sprintf("Your claim on task #%d was released because no evidence arrived in time.", released.TaskID),
		Kind:    domain.NotifySystem,
	})
	return true, nil
}

func (s *Service) ListSubmissions(ctx context.Context, actor domain.Actor) ([]domain.Submission, error) {
	submissions, err := s.repos.Submissions.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []domain.Submission{}
	}
	return submissions, nil
}

func (s *Service) release(ctx context.Context, sub *domain.Submission, operatorID int, action string) error {
	deleted, err := s.repos.Submissions.DeleteReservation(ctx, sub.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: reservation %d vanished under lock", domain.ErrStorageInvariant, sub.ID)
	}

	detail := map[string]any{"task_id": sub.TaskID, "user_id": sub.UserID}
	if sub.MaterialID != nil {
		released, err := s.repos.Materials.Release(ctx, *sub.MaterialID)
		if err != nil {
			return err
		}
		if !released {
			zap.L().Error("reserved material was not locked", zap.Int("material_id", *sub.MaterialID), zap.Int("submission_id", sub.ID))
			return fmt.Errorf("%w: material %d of reservation %d is not locked", domain.ErrStorageInvariant, *sub.MaterialID, sub.ID)
		}
		detail["material_id"] = *sub.MaterialID
	}
	return s.audit(ctx, operatorID, action, sub.ID, detail)
}

// owned loads and locks a submission of the actor. Other users' submissions
// are reported as missing.
func (s *Service) owned(ctx context.Context, actor domain.Actor, submissionID int) (*domain.Submission, error) {
	current, err := s.repos.Submissions.GetForUpdate(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.UserID != actor.UserID {
		return nil, domain.ErrSubmissionNotFound
	}
	return current, nil
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
