package notifications

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/internal/handlers/httperr"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/utils"
)

//go:generate mockgen -source=notifications.go -destination=mock_notifications.go -package=notifications

type Service interface {
	ListNotifications(ctx context.Context, userID int) ([]domain.Notification, error)
}

type NotificationHandler struct {
	notifyService Service
}

func New(notifyService Service) *NotificationHandler {
	return &NotificationHandler{
		notifyService: notifyService,
	}
}

// ListNotifications godoc
//
//	@Summary		List notifications
//	@Tags			Notifications
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.NotificationResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/notifications [get]
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	notifications, err := h.notifyService.ListNotifications(r.Context(), actor.UserID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	response := make([]dto.NotificationResponseDTO, len(notifications))
	for i, n := range notifications {
		response[i] = dto.NotificationResponseDTO{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			Kind:      n.Kind,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
