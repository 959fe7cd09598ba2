package checkinrepo

import (
	"context"
	"errors"
	"time"

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

// Create records the check-in for day. nil means the user already checked
// in that day and nothing was written.
func (r *Repository) Create(ctx context.Context, userID int, day time.Time, amount float64) (*domain.CheckIn, error) {
	query := `
		INSERT INTO checkins (user_id, day, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, day) DO NOTHING
		RETURNING user_id, day, amount, created_at
	`
	var checkIn domain.CheckIn
	err := r.db.QueryRow(ctx, query, userID, day, amount).
		Scan(&checkIn.UserID, &checkIn.Day, &checkIn.Amount, &checkIn.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't save check-in", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &checkIn, nil
}
