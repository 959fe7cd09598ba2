package notifyservice

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/pkg/clients"
	"go.uber.org/zap"
)

//go:generate mockgen -source=notifyservice.go -destination=mock_notifyservice.go -package=notifyservice

const webhookTimeout = 3 * time.Second

type Repo interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID int) ([]domain.Notification, error)
}

type webhookPayload struct {
	UserID  int    `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Kind    string `json:"kind"`
}

type Service struct {
	repo    Repo
	client  clients.HTTPClientI
	webhook string
}

func New(repo Repo, client clients.HTTPClientI, webhook string) *Service {
	return &Service{
		repo:    repo,
		client:  client,
		webhook: webhook,
	}
}

// Notify records a notification and forwards it to the webhook when one is
// configured. Failures are logged and never reach the caller, which has
// already committed the change being announced.
func (s *Service) Notify(ctx context.Context, n domain.Notification) {
	ctx = context.WithoutCancel(ctx)
	if n.Kind == "" {
		n.Kind = domain.NotifySystem
	}

	if _, err := s.repo.Create(ctx, &n); err != nil {
		zap.L().Warn("notification dropped", zap.Int("user_id", n.UserID), zap.String("title", n.Title), zap.Error(err))
		return
	}
	if s.webhook == "" {
		return
	}

	body, err := json.Marshal(webhookPayload{UserID: n.UserID, Title: n.Title, Content: n.Content, Kind: n.Kind})
	if err != nil {
		zap.L().Warn("can't encode webhook payload", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	status, _, err := s.client.Post(ctx, s.webhook, http.Header{"Content-Type": {"application/json"}}, body)
	if err != nil {
		zap.L().Warn("webhook delivery failed", zap.Int("user_id", n.UserID), zap.Error(err))
		return
	}
	if status >= http.StatusBadRequest {
		zap.L().Warn("webhook rejected notification", zap.Int("user_id", n.UserID), zap.Int("status", status))
	}
}

func (s *Service) ListNotifications(ctx context.Context, userID int) ([]domain.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}
