package review

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/internal/handlers/httperr"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/utils"
)

//go:generate mockgen -source=review.go -destination=mock_review.go -package=review

type Service interface {
	ReviewSubmission(ctx context.Context, operatorID, submissionID int, decision domain.Decision, amount *float64, feedback string) (*domain.Outcome, error)
}

type ReviewHandler struct {
	reviewService Service
}

func New(reviewService Service) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// ReviewSubmission godoc
//
//	@Summary		Approve or reject a submission
//	@Description	Approval credits the reward (VIP bonus applied) and the inviter commission exactly once. Rejection lowers the submitter credit score.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Submission ID"
//	@Param			request	body		dto.ReviewRequestDTO	true	"Decision"
//	@Success		200		{object}	dto.ReviewResponseDTO	"Review outcome"
//	@Failure		400		{object}	utils.Response			"Invalid request body"
//	@Failure		403		{object}	utils.Response			"Operator only"
//	@Failure		404		{object}	utils.Response			"Submission not found"
//	@Failure		409		{object}	utils.Response			"Already settled or not reviewable"
//	@Failure		422		{object}	utils.Response			"Unknown decision or missing amount"
//	@Router			/api/admin/submissions/{id}/review [post]
func (h *ReviewHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	submissionID, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	var req dto.ReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	outcome, err := h.reviewService.ReviewSubmission(r.Context(), actor.UserID, submissionID, decision, req.Amount, req.Feedback)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ReviewResponseDTO{
		SubmissionID: outcome.SubmissionID,
		Status:       outcome.Status.String(),
		FinalAmount:  outcome.FinalAmount,
		InviterID:    outcome.InviterID,
		Commission:   outcome.Commission,
		CreditScore:  outcome.CreditScore,
	})
}
