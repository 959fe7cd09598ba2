package taskrepo

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

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.Task, error) {
	query := `
		SELECT id, title, description, price_mode, price, material_category_id, required_tags, is_active, created_at
		FROM tasks
		WHERE id = $1
	`
	task, err := scanTask(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find task", zap.Int("task_id", id), zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (r *Repository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	query := `
		INSERT INTO tasks (title, description, price_mode, price, material_category_id, required_tags, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	tags := task.RequiredTags
	if tags == nil {
		tags = []string{}
	}
	err := r.db.QueryRow(ctx, query,
		task.Title, task.Description, task.PricingMode.String(), task.Price,
		task.Material.Column(), tags, task.Active,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		zap.L().Error("can't save task", zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]domain.Task, error) {
	query := `
		SELECT id, title, description, price_mode, price, material_category_id, required_tags, is_active, created_at
		FROM tasks
		WHERE is_active
		ORDER BY id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("can't list tasks", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			zap.L().Error("can't scan task row", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task       domain.Task
		mode       string
		categoryID *int
	)
	err := row.Scan(&task.ID, &task.Title, &task.Description, &mode, &task.Price, &categoryID, &task.RequiredTags, &task.Active, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	task.PricingMode, err = domain.ParsePricingMode(mode)
	if err != nil {
		zap.L().Error("unexpected pricing mode", zap.Int("task_id", task.ID), zap.String("mode", mode))
		return nil, domain.ErrStorageInvariant
	}
	task.Material = domain.PolicyFromColumn(categoryID)
	return &task, nil
}
