package repo

import (
	"testing"

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
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Repositories, pgxmock.PgxPoolIface) {
	ctrl := gomock.NewController(t)
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)
	mockTxManager := pg.NewMockTXManager(ctrl)

	return New(mockDB, mockTxManager), mockDB
}

func TestNew(t *testing.T) {
	repo, mock := NewMock(t)

	assert.IsType(t, &userrepo.Repository{}, repo.UserRepo)
	assert.IsType(t, &materialrepo.Repository{}, repo.MaterialRepo)
	assert.IsType(t, &taskrepo.Repository{}, repo.TaskRepo)
	assert.IsType(t, &submissionrepo.Repository{}, repo.SubmissionRepo)
	assert.IsType(t, &withdrawalrepo.Repository{}, repo.Withdrawal)
	assert.IsType(t, &depositrepo.Repository{}, repo.Deposit)
	assert.IsType(t, &checkinrepo.Repository{}, repo.CheckIn)
	assert.IsType(t, &badgerepo.Repository{}, repo.Badge)
	assert.IsType(t, &auditrepo.Repository{}, repo.AuditRepo)
	assert.IsType(t, &notificationrepo.Repository{}, repo.NotificationRepo)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}
