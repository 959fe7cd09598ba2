package auditrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Append(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mock.Close)
	repo := New(mock)

	now := time.Now()
	query := regexp.QuoteMeta(`
		INSERT INTO audit_logs (operator_id, action, target_id, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`)

	log := &domain.AuditLog{OperatorID: 9, Action: "submission.approve", TargetID: 5, Detail: `{"amount":"8.00"}`}
	mock.ExpectQuery(query).WithArgs(9, "submission.approve", 5, `{"amount":"8.00"}`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), now))
	assert.NoError(t, repo.Append(ctx, log))
	assert.Equal(t, int64(1), log.ID)
	assert.Equal(t, now, log.CreatedAt)

	mock.ExpectQuery(query).WithArgs(0, "reservation.expire", 6, "").WillReturnError(errors.New("database error"))
	assert.Error(t, repo.Append(ctx, &domain.AuditLog{OperatorID: domain.SystemOperator, Action: "reservation.expire", TargetID: 6}))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	repo := New(mock)

	now := time.Now()
	query := regexp.QuoteMeta(`
		SELECT id, operator_id, action, target_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`)
	columns := []string{"id", "operator_id", "action", "target_id", "detail", "created_at"}

	mock.ExpectQuery(query).WithArgs(20, 20).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(22), 9, "deposit.approve", 4, `{"amount":"50.00"}`, now).
			AddRow(int64(21), 0, "medal.grant", 7, `{"medals":["first_gold"]}`, now.Add(-time.Minute)))
	logs, err := repo.List(ctx, 20, 20)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, int64(22), logs[0].ID)
	assert.Equal(t, "medal.grant", logs[1].Action)
	assert.Equal(t, domain.SystemOperator, logs[1].OperatorID)

	mock.ExpectQuery(query).WithArgs(20, 0).WillReturnRows(pgxmock.NewRows(columns))
	logs, err = repo.List(ctx, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	mock.ExpectQuery(query).WithArgs(20, 0).WillReturnError(errors.New("database error"))
	_, err = repo.List(ctx, 20, 0)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
