package badgeservice

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"go.uber.org/zap"
)

//go:generate mockgen -source=badgeservice.go -destination=mock_badgeservice.go -package=badgeservice

type Repo interface {
	Progress(ctx context.Context, userID int) (*domain.BadgeProgress, error)
	Grant(ctx context.Context, userID int, medal domain.Medal) (bool, error)
}

type AuditRepo interface {
	Append(ctx context.Context, log *domain.AuditLog) error
}

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type rule struct {
	medal domain.Medal
	title string
	met   func(p *domain.BadgeProgress) bool
}

var rules = []rule{
	{
		medal: domain.MedalFirstGold,
		title: "First gold",
		met:   func(p *domain.BadgeProgress) bool { return p.Earned >= 10 },
	},
	{
		medal: domain.MedalTaskMaster,
		title: "Task master",
		met:   func(p *domain.BadgeProgress) bool { return p.Approved >= 10 },
	},
}

type Service struct {
	repo      Repo
	auditRepo AuditRepo
	txManager pg.TXManager
	notifier  Notifier
}

func New(repo Repo, auditRepo AuditRepo, txManager pg.TXManager, notifier Notifier) *Service {
	return &Service{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		notifier:  notifier,
	}
}

// Award grants every medal the user now qualifies for and returns the ones
// that are new. Medals are never revoked.
func (s *Service) Award(ctx context.Context, userID int) ([]domain.Medal, error) {
	var granted []rule
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		granted = nil
		progress, err := s.repo.Progress(ctx, userID)
		if err != nil {
			return err
		}
		if progress == nil {
			return domain.ErrUserNotFound
		}

		for _, r := range rules {
			if progress.Has(r.medal) || !r.met(progress) {
				continue
			}
			ok, err := s.repo.Grant(ctx, userID, r.medal)
			if err != nil {
				return err
			}
			if ok {
				granted = append(granted, r)
			}
		}
		if len(granted) == 0 {
			return nil
		}

		medals := make([]string, 0, len(granted))
		for _, r := range granted {
			medals = append(medals, string(r.medal))
		}
		detail, err := json.Marshal(map[string]any{"medals": medals})
		if err != nil {
			return err
		}
		return s.auditRepo.Append(ctx, &domain.AuditLog{
			OperatorID: domain.SystemOperator,
			Action:     "medal.grant",
			TargetID:   userID,
			Detail:     string(detail),
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Medal, 0, len(granted))
	for _, r := range granted {
		zap.L().Info("medal granted", zap.Int("user_id", userID), zap.String("medal", string(r.medal)))
		s.notifier.Notify(ctx, domain.Notification{
			UserID:  userID,
			Title:   "New medal",
			Content: fmt.Sprintf("You earned the %q medal", r.title),
			Kind:    domain.NotifySystem,
		})
		out = append(out, r.medal)
	}
	return out, nil
}
