package depositrepo

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

func (r *Repository) Create(ctx context.Context, deposit *domain.Deposit) (*domain.Deposit, error) {
	query := `
		INSERT INTO deposits (user_id, amount, proof_ref)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at
	`
	var status string
	err := r.db.QueryRow(ctx, query, deposit.UserID, deposit.Amount, deposit.ProofRef).Scan(&deposit.ID, &status, &deposit.CreatedAt)
	if err != nil {
		zap.L().Error("can't save deposit", zap.Error(err))
		return nil, err
	}
	deposit.Status = domain.DepositStatus(status)
	return deposit, nil
}

func (r *Repository) GetForUpdate(ctx context.Context, id int) (*domain.Deposit, error) {
	query := `
		SELECT id, user_id, amount, proof_ref, status, created_at
		FROM deposits
		WHERE id = $1
		FOR UPDATE
	`
	var (
		deposit domain.Deposit
		status  string
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&deposit.ID, &deposit.UserID, &deposit.Amount, &deposit.ProofRef, &status, &deposit.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't lock deposit", zap.Int("deposit_id", id), zap.Error(err))
		return nil, err
	}
	deposit.Status = domain.DepositStatus(status)
	return &deposit, nil
}

// Resolve moves a pending deposit to status and reports whether it did.
func (r *Repository) Resolve(ctx context.Context, id int, status domain.DepositStatus) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE deposits SET status = $2 WHERE id = $1 AND status = 'pending'`, id, string(status))
	if err != nil {
		zap.L().Error("can't resolve deposit", zap.Int("deposit_id", id), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
