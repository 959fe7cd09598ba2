package repo

import (
	"github.com/GlebRadaev/bountyhub/internal/fraud"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	auditrepo "github.com/GlebRadaev/bountyhub/internal/repo/audit-repo"
	badgerepo "github.com/GlebRadaev/bountyhub/internal/repo/badge-repo"
	checkinrepo "github.com/GlebRadaev/bountyhub/internal/repo/checkin-repo"
	depositrepo "github.com/GlebRadaev/bountyhub/internal/repo/deposit-repo"
	materialrepo "github.com/GlebRadaev/bountyhub/internal/repo/material-repo"
	notificationrepo "github.com/GlebRadaev/bountyhub/internal/repo/notification-repo"
	submissionrepo "github.com/GlebRadaev/bountyhub/internal/repo/submission-repo"
	taskrepo "github.com/GlebRadaev/bountyhub/internal/repo/task-repo"
	userrepo "github.com/GlebRadaev/bountyhub/internal/repo/user-repo"
	withdrawalrepo "github.com/GlebRadaev/bountyhub/internal/repo/withdrawal-repo"
	"github.com/GlebRadaev/bountyhub/internal/service/auditservice"
	"github.com/GlebRadaev/bountyhub/internal/service/badgeservice"
	"github.com/GlebRadaev/bountyhub/internal/service/balanceservice"
	"github.com/GlebRadaev/bountyhub/internal/service/catalogservice"
	"github.com/GlebRadaev/bountyhub/internal/service/claimservice"
	"github.com/GlebRadaev/bountyhub/internal/service/notifyservice"
	"github.com/GlebRadaev/bountyhub/internal/service/reviewservice"
	"github.com/GlebRadaev/bountyhub/internal/sweeper"
)

type MaterialRepo interface {
	claimservice.MaterialRepo
	catalogservice.MaterialRepo
}

type TaskRepo interface {
	claimservice.TaskRepo
	catalogservice.TaskRepo
}

type SubmissionRepo interface {
	claimservice.SubmissionRepo
	reviewservice.SubmissionRepo
	sweeper.Repo
	fraud.Store
}

type AuditRepo interface {
	claimservice.AuditRepo
	auditservice.Repo
}

type Repositories struct {
	UserRepo         reviewservice.UserRepo
	MaterialRepo     MaterialRepo
	TaskRepo         TaskRepo
	SubmissionRepo   SubmissionRepo
	Withdrawal       balanceservice.WithdrawalRepo
	Deposit          balanceservice.DepositRepo
	CheckIn          balanceservice.CheckInRepo
	Badge            badgeservice.Repo
	AuditRepo        AuditRepo
	NotificationRepo notifyservice.Repo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		UserRepo:         userrepo.New(conn),
		MaterialRepo:     materialrepo.New(conn, txManager),
		TaskRepo:         taskrepo.New(conn),
		SubmissionRepo:   submissionrepo.New(conn),
		Withdrawal:       withdrawalrepo.New(conn),
		Deposit:          depositrepo.New(conn),
		CheckIn:          checkinrepo.New(conn),
		Badge:            badgerepo.New(conn),
		AuditRepo:        auditrepo.New(conn),
		NotificationRepo: notificationrepo.New(conn),
	}
}
