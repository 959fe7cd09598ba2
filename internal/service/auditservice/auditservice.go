package auditservice

import (
	"context"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"go.uber.org/zap"
)

//go:generate mockgen -source=auditservice.go -destination=mock_auditservice.go -package=auditservice

const PageSize = 20

type Repo interface {
	List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error)
}

type Service struct {
	repo Repo
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

// ListAuditLogs returns page (1-based) of the audit trail, newest first.
func (s *Service) ListAuditLogs(ctx context.Context, page int) ([]domain.AuditLog, error) {
	if page < 1 {
		return nil, domain.ErrInvalidPage
	}
	logs, err := s.repo.List(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		zap.L().Error("failed to list audit logs", zap.Int("page", page), zap.Error(err))
		return nil, err
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	return logs, nil
}
