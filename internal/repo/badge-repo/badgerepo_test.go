package badgerepo

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)
	return New(mockDB), mockDB
}

func TestRepository_Progress(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`
		SELECT u.medals,
			COALESCE(SUM(s.final_amount) FILTER (WHERE s.status = 'approved'), 0),
			COUNT(s.id) FILTER (WHERE s.status = 'approved')
		FROM users u`)
	repo, mock := NewMock(t)

	mock.ExpectQuery(query).WithArgs(7).
		WillReturnRows(pgxmock.NewRows([]string{"medals", "earned", "approved"}).AddRow([]string{"first_gold"}, 12.5, 3))
	progress, err := repo.Progress(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, &domain.BadgeProgress{UserID: 7, Earned: 12.5, Approved: 3, Medals: []domain.Medal{domain.MedalFirstGold}}, progress)

	mock.ExpectQuery(query).WithArgs(8).WillReturnError(pgx.ErrNoRows)
	progress, err = repo.Progress(ctx, 8)
	assert.NoError(t, err)
	assert.Nil(t, progress)

	mock.ExpectQuery(query).WithArgs(9).WillReturnError(errors.New("database error"))
	_, err = repo.Progress(ctx, 9)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Grant(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SET medals = array_append(medals, $2)`)
	repo, mock := NewMock(t)

	mock.ExpectExec(query).WithArgs(7, "task_master").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	granted, err := repo.Grant(ctx, 7, domain.MedalTaskMaster)
	require.NoError(t, err)
	assert.True(t, granted)

	mock.ExpectExec(query).WithArgs(7, "task_master").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	granted, err = repo.Grant(ctx, 7, domain.MedalTaskMaster)
	require.NoError(t, err)
	assert.False(t, granted)

	mock.ExpectExec(query).WithArgs(7, "first_gold").WillReturnError(errors.New("database error"))
	_, err = repo.Grant(ctx, 7, domain.MedalFirstGold)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
