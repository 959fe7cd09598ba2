package audit

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/internal/handlers/httperr"
	"github.com/GlebRadaev/bountyhub/pkg/utils"
)

//go:generate mockgen -source=audit.go -destination=mock_audit.go -package=audit

type Service interface {
	ListAuditLogs(ctx context.Context, page int) ([]domain.AuditLog, error)
}

type AuditHandler struct {
	auditService Service
}

func New(auditService Service) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// ListAuditLogs godoc
//
//	@Summary		List audit log entries
//	@Description	Twenty entries per page, newest first.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			page	query		int	false	"Page number, starting at 1"
//	@Success		200		{array}		dto.AuditLogResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid page"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		403		{object}	utils.Response	"Operator only"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page, ok := utils.PageParam(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid page")
		return
	}

	logs, err := h.auditService.ListAuditLogs(r.Context(), page)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	response := make([]dto.AuditLogResponseDTO, len(logs))
	for i, l := range logs {
		response[i] = dto.AuditLogResponseDTO{
			ID:         l.ID,
			OperatorID: l.OperatorID,
			Action:     l.Action,
			TargetID:   l.TargetID,
			Detail:     l.Detail,
			CreatedAt:  l.CreatedAt,
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
