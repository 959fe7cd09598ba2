package materialrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const categoryNameKey = "material_categories_name_key"

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

// Allocate locks the first unused material of the category for userID and
// counts it as used. Picking and locking happen in one conditional UPDATE;
// rows already locked by a concurrent claimant are skipped rather than
// waited on. A nil material means the pool is empty and nothing changed.
func (r *Repository) Allocate(ctx context.Context, categoryID, userID int) (*domain.Material, error) {
	query := `
		UPDATE materials
		SET status = 'locked', assigned_user_id = $2, assigned_at = now()
		WHERE id = (
			SELECT id FROM materials
			WHERE category_id = $1 AND status = 'unused' AND NOT is_deleted
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, category_id, title, content, images, status, is_deleted, assigned_user_id, assigned_at, created_at
	`
	var material *domain.Material
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		m, err := scanMaterial(r.db.QueryRow(ctx, query, categoryID, userID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			zap.L().Error("can't allocate material", zap.Int("category_id", categoryID), zap.Error(err))
			return err
		}

		_, err = r.db.Exec(ctx, `UPDATE material_categories SET used_count = used_count + 1 WHERE id = $1`, categoryID)
		if err != nil {
			zap.L().Error("can't increment used count", zap.Int("category_id", categoryID), zap.Error(err))
			return err
		}
		material = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return material, nil
}

// Release puts a locked material back into the pool. It reports false when
// the material was not locked, in which case nothing changes.
func (r *Repository) Release(ctx context.Context, materialID int) (bool, error) {
	query := `
		UPDATE materials
		SET status = 'unused', assigned_user_id = NULL, assigned_at = NULL
		WHERE id = $1 AND status = 'locked'
		RETURNING category_id
	`
	released := false
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		var categoryID int
		err := r.db.QueryRow(ctx, query, materialID).Scan(&categoryID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			zap.L().Error("can't release material", zap.Int("material_id", materialID), zap.Error(err))
			return err
		}

		_, err = r.db.Exec(ctx, `UPDATE material_categories SET used_count = GREATEST(used_count - 1, 0) WHERE id = $1`, categoryID)
		if err != nil {
			zap.L().Error("can't decrement used count", zap.Int("category_id", categoryID), zap.Error(err))
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return released, nil
}

func (r *Repository) MarkUsed(ctx context.Context, materialID int) error {
	tag, err := r.db.Exec(ctx, `UPDATE materials SET status = 'used' WHERE id = $1 AND status = 'locked'`, materialID)
	if err != nil {
		zap.L().Error("can't mark material used", zap.Int("material_id", materialID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		zap.L().Error("reserved material is not locked", zap.Int("material_id", materialID))
		return fmt.Errorf("%w: material %d is not locked", domain.ErrStorageInvariant, materialID)
	}
	return nil
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (*domain.MaterialCategory, error) {
	query := `
		INSERT INTO material_categories (name)
		VALUES ($1)
		RETURNING id, name, total_count, used_count, created_at
	`
	var category domain.MaterialCategory
	err := r.db.QueryRow(ctx, query, name).Scan(&category.ID, &category.Name, &category.TotalCount, &category.UsedCount, &category.CreatedAt)
	if err != nil {
		if pg.IsUniqueViolation(err, categoryNameKey) {
			return nil, domain.ErrCategoryExists
		}
		zap.L().Error("can't save category", zap.Error(err))
		return nil, err
	}
	return &category, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int) (*domain.MaterialCategory, error) {
	query := `
		SELECT id, name, total_count, used_count, created_at
		FROM material_categories
		WHERE id = $1
	`
	var category domain.MaterialCategory
	err := r.db.QueryRow(ctx, query, id).Scan(&category.ID, &category.Name, &category.TotalCount, &category.UsedCount, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find category", zap.Int("category_id", id), zap.Error(err))
		return nil, err
	}
	return &category, nil
}

// BulkImport inserts materials into the category and grows total_count by
// the number inserted.
func (r *Repository) BulkImport(ctx context.Context, categoryID int, materials []domain.Material) (int, error) {
	query := `
		INSERT INTO materials (category_id, title, content, images)
		VALUES ($1, $2, $3, $4)
	`
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		for _, m := range materials {
			images := m.Images
			if images == nil {
				images = []string{}
			}
			if _, err := r.db.Exec(ctx, query, categoryID, m.Title, m.Content, images); err != nil {
				zap.L().Error("can't import material", zap.Int("category_id", categoryID), zap.Error(err))
				return err
			}
		}
		_, err := r.db.Exec(ctx, `UPDATE material_categories SET total_count = total_count + $1 WHERE id = $2`, len(materials), categoryID)
		if err != nil {
			zap.L().Error("can't increment total count", zap.Int("category_id", categoryID), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return len(materials), nil
}

// SoftDelete flags the given materials deleted and shrinks total_count of
// each affected category. Already deleted ids are skipped.
func (r *Repository) SoftDelete(ctx context.Context, ids []int) (int, error) {
	query := `
		UPDATE materials
		SET is_deleted = TRUE
		WHERE id = ANY($1) AND NOT is_deleted
		RETURNING category_id
	`
	deleted := 0
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, ids)
		if err != nil {
			zap.L().Error("can't delete materials", zap.Error(err))
			return err
		}
		perCategory := make(map[int]int)
		var order []int
		for rows.Next() {
			var categoryID int
			if err := rows.Scan(&categoryID); err != nil {
				rows.Close()
				zap.L().Error("can't scan deleted material", zap.Error(err))
				return err
			}
			if _, seen := perCategory[categoryID]; !seen {
				order = append(order, categoryID)
			}
			perCategory[categoryID]++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			zap.L().Error("can't delete materials", zap.Error(err))
			return err
		}

		for _, categoryID := range order {
			n := perCategory[categoryID]
			_, err := r.db.Exec(ctx, `UPDATE material_categories SET total_count = GREATEST(total_count - $1, 0) WHERE id = $2`, n, categoryID)
			if err != nil {
				zap.L().Error("can't decrement total count", zap.Int("category_id", categoryID), zap.Error(err))
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func scanMaterial(row pgx.Row) (*domain.Material, error) {
	var (
		m      domain.Material
		status string
	)
	err := row.Scan(&m.ID, &m.CategoryID, &m.Title, &m.Content, &m.Images, &status, &m.Deleted, &m.AssignedUserID, &m.AssignedAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Status, err = domain.ParseMaterialStatus(status)
	if err != nil {
		zap.L().Error("unexpected material status", zap.Int("material_id", m.ID), zap.Error(err))
		return nil, err
	}
	return &m, nil
}
