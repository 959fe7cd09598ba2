package service

import (
	"github.com/GlebRadaev/bountyhub/internal/config"
	"github.com/GlebRadaev/bountyhub/internal/fraud"
	"github.com/GlebRadaev/bountyhub/internal/metrics"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/GlebRadaev/bountyhub/internal/repo"
	"github.com/GlebRadaev/bountyhub/internal/service/auditservice"
	"github.com/GlebRadaev/bountyhub/internal/service/badgeservice"
	"github.com/GlebRadaev/bountyhub/internal/service/balanceservice"
	"github.com/GlebRadaev/bountyhub/internal/service/catalogservice"
	"github.com/GlebRadaev/bountyhub/internal/service/claimservice"
	"github.com/GlebRadaev/bountyhub/internal/service/notifyservice"
	"github.com/GlebRadaev/bountyhub/internal/service/reviewservice"
	"github.com/GlebRadaev/bountyhub/pkg/clients"
	"github.com/GlebRadaev/bountyhub/pkg/lock"
)

type Services struct {
	ClaimService   *claimservice.Service
	ReviewService  *reviewservice.Service
	BalanceService *balanceservice.Service
	CatalogService *catalogservice.Service
	NotifyService  *notifyservice.Service
	BadgeService   *badgeservice.Service
	AuditService   *auditservice.Service
}

func New(cfg *config.Config, repo *repo.Repositories, txManager pg.TXManager, locker lock.Coordinator, client clients.HTTPClientI, m *metrics.Metrics) *Services {
	notifyService := notifyservice.New(repo.NotificationRepo, client, cfg.NotifyWebhook)

	claimService := claimservice.New(cfg, claimservice.Repos{
		Tasks:       repo.TaskRepo,
		Materials:   repo.MaterialRepo,
		Submissions: repo.SubmissionRepo,
		Audit:       repo.AuditRepo,
	}, txManager, locker, fraud.New(repo.SubmissionRepo), notifyService, m)

	badgeService := badgeservice.New(repo.Badge, repo.AuditRepo, txManager, notifyService)

	reviewService := reviewservice.New(cfg, reviewservice.Repos{
		Submissions: repo.SubmissionRepo,
		Tasks:       repo.TaskRepo,
		Users:       repo.UserRepo,
		Audit:       repo.AuditRepo,
	}, txManager, notifyService, badgeService, m)

	balanceService := balanceservice.New(repo.UserRepo, repo.Withdrawal, repo.Deposit, repo.CheckIn, repo.AuditRepo, txManager, notifyService, cfg.CheckInReward)
	catalogService := catalogservice.New(repo.MaterialRepo, repo.TaskRepo, repo.AuditRepo, txManager)

	return &Services{
		ClaimService:   claimService,
		ReviewService:  reviewService,
		BalanceService: balanceService,
		CatalogService: catalogService,
		NotifyService:  notifyService,
		BadgeService:   badgeService,
		AuditService:   auditservice.New(repo.AuditRepo),
	}
}
