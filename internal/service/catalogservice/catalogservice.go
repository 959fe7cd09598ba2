package catalogservice

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"go.uber.org/zap"
)

//go:generate mockgen -source=catalogservice.go -destination=mock_catalogservice.go -package=catalogservice

type MaterialRepo interface {
	CreateCategory(ctx context.Context, name string) (*domain.MaterialCategory, error)
	GetCategory(ctx context.Context, id int) (*domain.MaterialCategory, error)
	BulkImport(ctx context.Context, categoryID int, materials []domain.Material) (int, error)
	SoftDelete(ctx context.Context, ids []int) (int, error)
}

type TaskRepo interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	ListActive(ctx context.Context) ([]domain.Task, error)
}

type AuditRepo interface {
	Append(ctx context.Context, log *domain.AuditLog) error
}

// Batch is one upload of material images. A carousel batch becomes a single
// material holding every image; otherwise each image is its own material.
type Batch struct {
	Title    string
	Content  string
	Images   []string
	Carousel bool
}

type Service struct {
	materialRepo MaterialRepo
	taskRepo     TaskRepo
	auditRepo    AuditRepo
	txManager    pg.TXManager
}

func New(materialRepo MaterialRepo, taskRepo TaskRepo, auditRepo AuditRepo, txManager pg.TXManager) *Service {
	return &Service{
		materialRepo: materialRepo,
		taskRepo:     taskRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *Service) CreateCategory(ctx context.Context, operatorID int, name string) (*domain.MaterialCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}

	var category *domain.MaterialCategory
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		category, err = s.materialRepo.CreateCategory(ctx, name)
		if err != nil {
			return err
		}
		return s.audit(ctx, operatorID, "category.create", category.ID, map[string]any{"name": name})
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Service) GetCategory(ctx context.Context, id int) (*domain.MaterialCategory, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidID
	}
	category, err := s.materialRepo.GetCategory(ctx, id)
	if err != nil {
		zap.L().Error("failed to get category", zap.Error(err))
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

// ImportMaterials adds a batch to the category pool and returns how many
// materials were created.
func (s *Service) ImportMaterials(ctx context.Context, operatorID, categoryID int, batch Batch) (int, error) {
	images := make([]string, 0, len(batch.Images))
	for _, img := range batch.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	if len(images) == 0 {
		return 0, domain.ErrNoMaterials
	}
	if _, err := s.GetCategory(ctx, categoryID); err != nil {
		return 0, err
	}

	var materials []domain.Material
	if batch.Carousel {
		materials = []domain.Material{{Title: batch.Title, Content: batch.Content, Images: images}}
	} else {
		for _, img := range images {
			materials = append(materials, domain.Material{Title: batch.Title, Content: batch.Content, Images: []string{img}})
		}
	}

	var imported int
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		imported, err = s.materialRepo.BulkImport(ctx, categoryID, materials)
		if err != nil {
			return err
		}
		return s.audit(ctx, operatorID, "material.import", categoryID, map[string]any{
			"count":    imported,
			"carousel": batch.Carousel,
		})
	})
	if err != nil {
		return 0, err
	}

	zap.L().Info("materials imported", zap.Int("category_id", categoryID), zap.Int("count", imported))
	return imported, nil
}

// DeleteMaterials soft-deletes materials by id. Ids that are unknown or
// already deleted are skipped; the result counts the rows actually removed.
func (s *Service) DeleteMaterials(ctx context.Context, operatorID int, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, domain.ErrNoMaterials
	}
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)
	if unique[0] <= 0 {
		return 0, domain.ErrInvalidID
	}

	var deleted int
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.materialRepo.SoftDelete(ctx, unique)
		if err != nil {
			return err
		}
		return s.audit(ctx, operatorID, "material.delete", 0, map[string]any{
			"ids":     unique,
			"deleted": deleted,
		})
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (s *Service) CreateTask(ctx context.Context, operatorID int, task *domain.Task) (*domain.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, domain.ErrEmptyName
	}
	switch task.PricingMode {
	case domain.PricingFixed:
		if task.Price <= 0 {
			return nil, domain.ErrInvalidAmount
		}
	case domain.PricingDynamic:
		task.Price = 0
	default:
		return nil, domain.ErrPricingMode
	}
	if categoryID, pooled := task.Material.CategoryID(); pooled {
		if _, err := s.GetCategory(ctx, categoryID); err != nil {
			return nil, err
		}
	}

	var created *domain.Task
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.taskRepo.Create(ctx, task)
		if err != nil {
			return err
		}
		detail := map[string]any{"title": created.Title, "mode": created.PricingMode.String()}
		if categoryID, pooled := created.Material.CategoryID(); pooled {
			detail["category_id"] = categoryID
		}
		return s.audit(ctx, operatorID, "task.create", created.ID, detail)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListTasks returns the active tasks the actor's tags unlock.
func (s *Service) ListTasks(ctx context.Context, actor domain.Actor) ([]domain.Task, error) {
	tasks, err := s.taskRepo.ListActive(ctx)
	if err != nil {
		zap.L().Error("failed to list tasks", zap.Error(err))
		return nil, err
	}

	visible := make([]domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.VisibleTo(actor.Tags) {
			visible = append(visible, task)
		}
	}
	return visible, nil
}

func (s *Service) audit(ctx context.Context, operatorID int, action string, targetID int, detail map[string]any) error {
	raw, err := json.Marshal(detail)
	if err != nil {
		return err
	}
	return s.auditRepo.Append(ctx, &domain.AuditLog{
		OperatorID: operatorID,
		Action:     action,
		TargetID:   targetID,
		Detail:     string(raw),
	})
}
