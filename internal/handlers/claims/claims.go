package claims

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/internal/handlers/httperr"
	"github.com/GlebRadaev/bountyhub/internal/handlers/upload"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"github.com/GlebRadaev/bountyhub/pkg/utils"
)

//go:generate mockgen -source=claims.go -destination=mock_claims.go -package=claims

type Service interface {
	GrabTask(ctx context.Context, actor domain.Actor, taskID int) (*domain.Submission, error)
	SubmitEvidence(ctx context.Context, actor domain.Actor, submissionID int, fingerprint, evidenceRef, link string) (*domain.Submission, error)
	Appeal(ctx context.Context, actor domain.Actor, submissionID int, reason string) (*domain.Submission, error)
	ReleaseReservation(ctx context.Context, actor domain.Actor, submissionID int) error
	ListSubmissions(ctx context.Context, actor domain.Actor) ([]domain.Submission, error)
}

type ClaimHandler struct {
	claimService Service
	store        evidence.Store
	maxBytes     int64
}

func New(claimService Service, store evidence.Store, maxBytes int64) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
		store:        store,
		maxBytes:     maxBytes,
	}
}

// GrabTask godoc
//
//	@Summary		Claim a task
//	@Description	Reserve one material unit of the task for the caller and open a submission.
//	@Tags			Claims
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int							true	"Task ID"
//	@Success		201	{object}	dto.SubmissionResponseDTO	"Submission opened"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		404	{object}	utils.Response				"Task not found"
//	@Failure		409	{object}	utils.Response				"Task already claimed by the caller"
//	@Failure		410	{object}	utils.Response				"No material left"
//	@Failure		423	{object}	utils.Response				"Task is busy"
//	@Failure		503	{object}	utils.Response				"Lock service unavailable"
//	@Router			/api/tasks/{id}/grab [post]
func (h *ClaimHandler) GrabTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	taskID, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	sub, err := h.claimService.GrabTask(r.Context(), actor, taskID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toSubmissionDTO(sub))
}

// ListSubmissions godoc
//
//	@Summary		List own submissions
//	@Tags			Claims
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.SubmissionResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/submissions [get]
func (h *ClaimHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	subs, err := h.claimService.ListSubmissions(r.Context(), actor)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	response := make([]dto.SubmissionResponseDTO, len(subs))
	for i := range subs {
		response[i] = toSubmissionDTO(&subs[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// SubmitEvidence godoc
//
//	@Summary		Upload evidence
//	@Description	Store the screenshot, fingerprint it and move the submission to review. Reuse of evidence already attached to another live submission is refused.
//	@Tags			Claims
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			id			path		int							true	"Submission ID"
//	@Param			evidence	formData	file						true	"Screenshot"
//	@Param			link		formData	string						false	"Published post link"
//	@Success		200			{object}	dto.SubmissionResponseDTO	"Submission pending review"
//	@Failure		400			{object}	utils.Response				"Evidence missing"
//	@Failure		404			{object}	utils.Response				"Submission not found"
//	@Failure		409			{object}	utils.Response				"Duplicate evidence or wrong state"
//	@Failure		413			{object}	utils.Response				"Evidence too large"
//	@Router			/api/submissions/{id}/evidence [post]
func (h *ClaimHandler) SubmitEvidence(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	submissionID, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	object, err := upload.ReadFile(w, r, "evidence", "submissions", h.maxBytes)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	stored, err := h.store.Save(r.Context(), object)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	sub, err := h.claimService.SubmitEvidence(r.Context(), actor, submissionID, stored.Fingerprint, stored.Ref, r.FormValue("link"))
	if err != nil {
		upload.Discard(r.Context(), h.store, stored.Ref)
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toSubmissionDTO(sub))
}

// Release godoc
//
//	@Summary		Give up a claim
//	@Description	Return the reserved material to the pool. Only submissions still waiting for evidence can be released.
//	@Tags			Claims
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Submission ID"
//	@Success		204
//	@Failure		404	{object}	utils.Response	"Submission not found"
//	@Failure		409	{object}	utils.Response	"Evidence already uploaded"
//	@Router			/api/submissions/{id} [delete]
func (h *ClaimHandler) Release(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	submissionID, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	if err := h.claimService.ReleaseReservation(r.Context(), actor, submissionID); err != nil {
		httperr.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Appeal godoc
//
//	@Summary		Appeal a rejection
//	@Tags			Claims
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Submission ID"
//	@Param			request	body		dto.AppealRequestDTO		true	"Appeal reason"
//	@Success		200		{object}	dto.SubmissionResponseDTO	"Submission appealing"
//	@Failure		400		{object}	utils.Response				"Invalid request body"
//	@Failure		404		{object}	utils.Response				"Submission not found"
//	@Failure		409		{object}	utils.Response				"Submission is not rejected"
//	@Failure		422		{object}	utils.Response				"Reason is empty"
//	@Router			/api/submissions/{id}/appeal [post]
func (h *ClaimHandler) Appeal(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	submissionID, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid submission id")
		return
	}

	var req dto.AppealRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.claimService.Appeal(r.Context(), actor, submissionID, req.Reason)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toSubmissionDTO(sub))
}

func toSubmissionDTO(s *domain.Submission) dto.SubmissionResponseDTO {
	return dto.SubmissionResponseDTO{
		ID:           s.ID,
		TaskID:       s.TaskID,
		MaterialID:   s.MaterialID,
		Status:       s.Status.String(),
		EvidenceRef:  s.EvidenceRef,
		PostLink:     s.PostLink,
		Feedback:     s.Feedback,
		AppealReason: s.AppealReason,
		FinalAmount:  s.FinalAmount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}
