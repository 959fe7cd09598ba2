package balance

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/internal/handlers/httperr"
	"github.com/GlebRadaev/bountyhub/internal/handlers/upload"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"github.com/GlebRadaev/bountyhub/pkg/utils"
)

//go:generate mockgen -source=balance.go -destination=mock_balance.go -package=balance

type Service interface {
	GetBalance(ctx context.Context, userID int) (*domain.Balance, error)
	Withdraw(ctx context.Context, actor domain.Actor, amount float64, realName, account string) (*domain.Withdrawal, error)
	GetWithdrawals(ctx context.Context, userID int) ([]domain.Withdrawal, error)
	ReviewWithdrawal(ctx context.Context, operatorID, withdrawalID int, decision domain.Decision, note string) (*domain.Withdrawal, error)
	RequestDeposit(ctx context.Context, actor domain.Actor, amount float64, proofRef string) (*domain.Deposit, error)
	ReviewDeposit(ctx context.Context, operatorID, depositID int, decision domain.Decision) (*domain.Deposit, error)
	CheckIn(ctx context.Context, actor domain.Actor) (*domain.CheckIn, error)
}

type BalanceHandler struct {
	balanceService Service
	store          evidence.Store
	maxBytes       int64
}

func New(balanceService Service, store evidence.Store, maxBytes int64) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
		store:          store,
		maxBytes:       maxBytes,
	}
}

// GetBalance godoc
//
//	@Summary		Get current user balance
//	@Description	Current balance, total paid out and withdrawals still waiting for review.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO	"Current balance and withdrawn amount"
//	@Failure		401	{object}	utils.Response			"User not authorized"
//	@Failure		500	{object}	utils.Response			"Internal server error"
//	@Router			/api/balance [get]
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	balance, err := h.balanceService.GetBalance(r.Context(), actor.UserID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.BalanceResponseDTO{
		Current:   balance.Current,
		Withdrawn: balance.WithdrawnTotal,
		Pending:   balance.PendingTotal,
	})
}

// Withdraw godoc
//
//	@Summary		Request funds withdrawal
//	@Description	The amount is held from the balance until an operator pays or rejects the request.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.BalanceWithdrawRequestDTO	true	"Withdrawal request payload"
//	@Success		201		{object}	dto.WithdrawalResponseDTO		"Withdrawal requested"
//	@Failure		400		{object}	utils.Response					"Invalid request body"
//	@Failure		401		{object}	utils.Response					"User not authorized"
//	@Failure		409		{object}	utils.Response					"Insufficient balance"
//	@Failure		422		{object}	utils.Response					"Invalid amount or account number"
//	@Failure		500		{object}	utils.Response					"Internal server error"
//	@Router			/api/balance/withdraw [post]
func (h *BalanceHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req dto.BalanceWithdrawRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	withdrawal, err := h.balanceService.Withdraw(r.Context(), actor, req.Amount, req.RealName, req.Account)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toWithdrawalDTO(withdrawal))
}

// GetWithdrawals godoc
//
//	@Summary		Get withdrawals history
//	@Description	Withdrawals of the authenticated user, newest first.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.WithdrawalResponseDTO	"Withdrawals history"
//	@Success		204	{object}	utils.Response				"Withdrawals not found"
//	@Failure		401	{object}	utils.Response				"User not authorized"
//	@Failure		500	{object}	utils.Response				"Internal server error"
//	@Router			/api/withdrawals [get]
func (h *BalanceHandler) GetWithdrawals(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	withdrawals, err := h.balanceService.GetWithdrawals(r.Context(), actor.UserID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	if len(withdrawals) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Withdrawals not found")
		return
	}

	response := make([]dto.WithdrawalResponseDTO, len(withdrawals))
	for i := range withdrawals {
		response[i] = toWithdrawalDTO(&withdrawals[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Deposit godoc
//
//	@Summary		Request a deposit
//	@Description	Upload a payment proof; the balance is credited once an operator approves it.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			amount	formData	number					true	"Deposited amount"
//	@Param			proof	formData	file					true	"Payment proof"
//	@Success		201		{object}	dto.DepositResponseDTO	"Deposit pending review"
//	@Failure		400		{object}	utils.Response			"Proof missing"
//	@Failure		413		{object}	utils.Response			"Proof too large"
//	@Failure		422		{object}	utils.Response			"Invalid amount"
//	@Router			/api/balance/deposit [post]
func (h *BalanceHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	object, err := upload.ReadFile(w, r, "proof", "deposits", h.maxBytes)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
	if err != nil || amount <= 0 {
		httperr.Respond(w, domain.ErrInvalidAmount)
		return
	}

	stored, err := h.store.Save(r.Context(), object)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	deposit, err := h.balanceService.RequestDeposit(r.Context(), actor, amount, stored.Ref)
	if err != nil {
		upload.Discard(r.Context(), h.store, stored.Ref)
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toDepositDTO(deposit))
}

// CheckIn godoc
//
//	@Summary		Daily check-in
//	@Description	Credits the check-in reward once per UTC day.
//	@Tags			Balance
//	@Security		BearerAuth
//	@Produce		json
//	@Success		201	{object}	dto.CheckInResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		403	{object}	utils.Response	"Account banned or check-in disabled"
//	@Failure		409	{object}	utils.Response	"Already checked in today"
//	@Router			/api/balance/checkin [post]
func (h *BalanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	checkIn, err := h.balanceService.CheckIn(r.Context(), actor)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.CheckInResponseDTO{
		Day:     checkIn.Day.Format("2006-01-02"),
		Amount:  checkIn.Amount,
		Balance: checkIn.Balance,
	})
}

// ReviewWithdrawal godoc
//
//	@Summary		Pay or reject a withdrawal
//	@Description	Rejection returns the held amount to the user.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Withdrawal ID"
//	@Param			request	body		dto.LedgerReviewRequestDTO	true	"Decision"
//	@Success		200		{object}	dto.WithdrawalResponseDTO
//	@Failure		404		{object}	utils.Response	"Withdrawal not found"
//	@Failure		409		{object}	utils.Response	"Already processed"
//	@Router			/api/admin/withdrawals/{id}/review [post]
func (h *BalanceHandler) ReviewWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, req, ok := h.ledgerReview(w, r)
	if !ok {
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	withdrawal, err := h.balanceService.ReviewWithdrawal(r.Context(), actor.UserID, id, decision, req.Note)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toWithdrawalDTO(withdrawal))
}

// ReviewDeposit godoc
//
//	@Summary		Approve or reject a deposit
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Deposit ID"
//	@Param			request	body		dto.LedgerReviewRequestDTO	true	"Decision"
//	@Success		200		{object}	dto.DepositResponseDTO
//	@Failure		404		{object}	utils.Response	"Deposit not found"
//	@Failure		409		{object}	utils.Response	"Already processed"
//	@Router			/api/admin/deposits/{id}/review [post]
func (h *BalanceHandler) ReviewDeposit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, req, ok := h.ledgerReview(w, r)
	if !ok {
		return
	}
	decision, err := domain.ParseDecision(req.Decision)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	deposit, err := h.balanceService.ReviewDeposit(r.Context(), actor.UserID, id, decision)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toDepositDTO(deposit))
}

func (h *BalanceHandler) ledgerReview(w http.ResponseWriter, r *http.Request) (int, dto.LedgerReviewRequestDTO, bool) {
	var req dto.LedgerReviewRequestDTO
	id, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return 0, req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return 0, req, false
	}
	return id, req, true
}

func toWithdrawalDTO(wd *domain.Withdrawal) dto.WithdrawalResponseDTO {
	return dto.WithdrawalResponseDTO{
		ID:        wd.ID,
		Amount:    wd.Amount,
		Account:   wd.Account,
		Status:    string(wd.Status),
		AdminNote: wd.AdminNote,
		CreatedAt: wd.CreatedAt,
	}
}

func toDepositDTO(d *domain.Deposit) dto.DepositResponseDTO {
	return dto.DepositResponseDTO{
		ID:        d.ID,
		Amount:    d.Amount,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
	}
}
