package userrepo

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

func (repo *Repository) GetByID(ctx context.Context, id int) (*domain.User, error) {
	query := `
		SELECT id, username, balance, credit_score, is_banned, is_admin, tags, inviter_id, vip_until, created_at
		FROM users
		WHERE id = $1
	`
	var user domain.User
	err := repo.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Balance, &user.CreditScore, &user.Banned,
		&user.Admin, &user.Tags, &user.InviterID, &user.VIPUntil, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find user", zap.Int("user_id", id), zap.Error(err))
		return nil, err
	}
	return &user, nil
}

// AdjustBalance adds delta to the balance in a single guarded statement and
// returns the new balance. A change that would leave the balance negative
// affects no row and yields ErrInsufficientBalance.
func (repo *Repository) AdjustBalance(ctx context.Context, userID int, delta float64) (float64, error) {
	query := `
		UPDATE users
		SET balance = balance + $1
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING balance
	`
	var balance float64
	err := repo.db.QueryRow(ctx, query, delta, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrInsufficientBalance
		}
		zap.L().Error("can't adjust balance", zap.Int("user_id", userID), zap.Float64("delta", delta), zap.Error(err))
		return 0, err
	}
	return balance, nil
}

// DecrementCredit lowers the credit score by penalty, never below zero.
func (repo *Repository) DecrementCredit(ctx context.Context, userID, penalty int) (int, error) {
	query := `
		UPDATE users
		SET credit_score = GREATEST(credit_score - $1, 0)
		WHERE id = $2
		RETURNING credit_score
	`
	var score int
	err := repo.db.QueryRow(ctx, query, penalty, userID).Scan(&score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrUserNotFound
		}
		zap.L().Error("can't decrement credit score", zap.Int("user_id", userID), zap.Error(err))
		return 0, err
	}
	return score, nil
}
