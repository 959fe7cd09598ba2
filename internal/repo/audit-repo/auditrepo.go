package auditrepo

import (
	"context"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"go.uber.org/zap"
)

// Repository only appends. The table rejects updates and deletes with a
// trigger.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Append(ctx context.Context, log *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (operator_id, action, target_id, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, log.OperatorID, log.Action, log.TargetID, log.Detail).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		zap.L().Error("can't append audit log", zap.String("action", log.Action), zap.Error(err))
		return err
	}
	return nil
}

// List returns one page of entries, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	query := `
		SELECT id, operator_id, action, target_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		zap.L().Error("can't list audit logs", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		if err := rows.Scan(&log.ID, &log.OperatorID, &log.Action, &log.TargetID, &log.Detail, &log.CreatedAt); err != nil {
			zap.L().Error("can't scan audit log", zap.Error(err))
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
