package withdrawalrepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CreateWithdrawal(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (user_id, amount, real_name, account)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at
	`
	var status string
	err := r.db.QueryRow(ctx, query, withdrawal.UserID, withdrawal.Amount, withdrawal.RealName, withdrawal.Account).
		Scan(&withdrawal.ID, &status, &withdrawal.CreatedAt)
	if err != nil {
		zap.L().Error("can't save withdrawal", zap.Error(err))
		return nil, err
	}
	withdrawal.Status = domain.WithdrawalStatus(status)
	return withdrawal, nil
}

func (r *Repository) GetWithdrawalsByUserID(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, real_name, account, status, admin_note, created_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		wd, err := scanWithdrawal(rows)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, *wd)
	}

	return withdrawals, rows.Err()
}

func (r *Repository) GetForUpdate(ctx context.Context, id int) (*domain.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, real_name, account, status, admin_note, created_at
		FROM withdrawals
		WHERE id = $1
		FOR UPDATE
	`
	wd, err := scanWithdrawal(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock withdrawal", zap.Int("withdrawal_id", id), zap.Error(err))
		return nil, err
	}
	return wd, nil
}

// Resolve moves a pending withdrawal to status. It reports false when the
// withdrawal was already resolved.
func (r *Repository) Resolve(ctx context.Context, id int, status domain.WithdrawalStatus, note string) (bool, error) {
	query := `
		UPDATE withdrawals
		SET status = $2, admin_note = $3
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := r.db.Exec(ctx, query, id, string(status), note)
	if err != nil {
		zap.L().Error("failed to resolve withdrawal", zap.Int("withdrawal_id", id), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Totals sums paid and still pending withdrawals of the user.
func (r *Repository) Totals(ctx context.Context, userID int) (paid, pending float64, err error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0)
		FROM withdrawals
		WHERE user_id = $1
	`
	if err = r.db.QueryRow(ctx, query, userID).Scan(&paid, &pending); err != nil {
		zap.L().Error("failed to sum withdrawals", zap.Int("user_id", userID), zap.Error(err))
		return 0, 0, err
	}
	return paid, pending, nil
}

func scanWithdrawal(row pgx.Row) (*domain.Withdrawal, error) {
	var (
		wd     domain.Withdrawal
		status string
	)
	if err := row.Scan(&wd.ID, &wd.UserID, &wd.Amount, &wd.RealName, &wd.Account, &status, &wd.AdminNote, &wd.CreatedAt); err != nil {
		return nil, err
	}
	wd.Status = domain.WithdrawalStatus(status)
	return &wd, nil
}
