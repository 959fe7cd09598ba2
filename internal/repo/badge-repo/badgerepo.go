package badgerepo

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

// Progress sums what the user has earned from approved submissions and
// returns the medals already held. nil means the user does not exist.
func (r *Repository) Progress(ctx context.Context, userID int) (*domain.BadgeProgress, error) {
	query := `
		SELECT u.medals,
			COALESCE(SUM(s.final_amount) FILTER (WHERE s.status = 'approved'), 0),
			COUNT(s.id) FILTER (WHERE s.status = 'approved')
		FROM users u
		LEFT JOIN submissions s ON s.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id
	`
	var (
		medals   []string
		progress = domain.BadgeProgress{UserID: userID}
	)
	err := r.db.QueryRow(ctx, query, userID).Scan(&medals, &progress.Earned, &progress.Approved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't load badge progress", zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}
	for _, m := range medals {
		progress.Medals = append(progress.Medals, domain.Medal(m))
	}
	return &progress, nil
}

// Grant adds medal unless the user already holds it. It reports whether
// the medal was new.
func (r *Repository) Grant(ctx context.Context, userID int, medal domain.Medal) (bool, error) {
	query := `
		UPDATE users
		SET medals = array_append(medals, $2)
		WHERE id = $1 AND NOT ($2 = ANY(medals))
	`
	tag, err := r.db.Exec(ctx, query, userID, string(medal))
	if err != nil {
		zap.L().Error("can't grant medal", zap.Int("user_id", userID), zap.String("medal", string(medal)), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
