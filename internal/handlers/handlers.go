package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/bountyhub/docs"
	audithandlers "github.com/GlebRadaev/bountyhub/internal/handlers/audit"
	balancehandlers "github.com/GlebRadaev/bountyhub/internal/handlers/balance"
	cataloghandlers "github.com/GlebRadaev/bountyhub/internal/handlers/catalog"
	claimhandlers "github.com/GlebRadaev/bountyhub/internal/handlers/claims"
	notificationhandlers "github.com/GlebRadaev/bountyhub/internal/handlers/notifications"
	reviewhandlers "github.com/GlebRadaev/bountyhub/internal/handlers/review"
	"github.com/GlebRadaev/bountyhub/internal/service"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type ClaimHandler interface {
	GrabTask(w http.ResponseWriter, r *http.Request)
	ListSubmissions(w http.ResponseWriter, r *http.Request)
	SubmitEvidence(w http.ResponseWriter, r *http.Request)
	Release(w http.ResponseWriter, r *http.Request)
	Appeal(w http.ResponseWriter, r *http.Request)
}

type CatalogHandler interface {
	ListTasks(w http.ResponseWriter, r *http.Request)
	CreateTask(w http.ResponseWriter, r *http.Request)
	CreateCategory(w http.ResponseWriter, r *http.Request)
	GetCategory(w http.ResponseWriter, r *http.Request)
	ImportMaterials(w http.ResponseWriter, r *http.Request)
	DeleteMaterials(w http.ResponseWriter, r *http.Request)
}

type ReviewHandler interface {
	ReviewSubmission(w http.ResponseWriter, r *http.Request)
}

type BalanceHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	Withdraw(w http.ResponseWriter, r *http.Request)
	GetWithdrawals(w http.ResponseWriter, r *http.Request)
	Deposit(w http.ResponseWriter, r *http.Request)
	ReviewWithdrawal(w http.ResponseWriter, r *http.Request)
	ReviewDeposit(w http.ResponseWriter, r *http.Request)
	CheckIn(w http.ResponseWriter, r *http.Request)
}

type NotificationHandler interface {
	ListNotifications(w http.ResponseWriter, r *http.Request)
}

type AuditHandler interface {
	ListAuditLogs(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	ClaimHandler        ClaimHandler
	CatalogHandler      CatalogHandler
	ReviewHandler       ReviewHandler
	BalanceHandler      BalanceHandler
	NotificationHandler NotificationHandler
	AuditHandler        AuditHandler

	jwtService auth.JWTServiceInterface
	gatherer   prometheus.Gatherer
}

func New(s *service.Services, jwtService auth.JWTServiceInterface, store evidence.Store, maxBytes int64, gatherer prometheus.Gatherer) *Handlers {
	return &Handlers{
		ClaimHandler:        claimhandlers.New(s.ClaimService, store, maxBytes),
		CatalogHandler:      cataloghandlers.New(s.CatalogService),
		ReviewHandler:       reviewhandlers.New(s.ReviewService),
		BalanceHandler:      balancehandlers.New(s.BalanceService, store, maxBytes),
		NotificationHandler: notificationhandlers.New(s.NotifyService),
		AuditHandler:        audithandlers.New(s.AuditService),
		jwtService:          jwtService,
		gatherer:            gatherer,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(h.jwtService))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.CatalogHandler.ListTasks)
			r.Post("/{id}/grab", h.ClaimHandler.GrabTask)
		})
		r.Route("/submissions", func(r chi.Router) {
			r.Get("/", h.ClaimHandler.ListSubmissions)
			r.Delete("/{id}", h.ClaimHandler.Release)
			r.Post("/{id}/evidence", h.ClaimHandler.SubmitEvidence)
			r.Post("/{id}/appeal", h.ClaimHandler.Appeal)
		})
		r.Route("/balance", func(r chi.Router) {
			r.Get("/", h.BalanceHandler.GetBalance)
			r.Post("/withdraw", h.BalanceHandler.Withdraw)
			r.Post("/deposit", h.BalanceHandler.Deposit)
			r.Post("/checkin", h.BalanceHandler.CheckIn)
		})
		r.Get("/withdrawals", h.BalanceHandler.GetWithdrawals)
		r.Get("/notifications", h.NotificationHandler.ListNotifications)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.AdminOnly)
			r.Post("/submissions/{id}/review", h.ReviewHandler.ReviewSubmission)
			r.Post("/withdrawals/{id}/review", h.BalanceHandler.ReviewWithdrawal)
			r.Post("/deposits/{id}/review", h.BalanceHandler.ReviewDeposit)
			r.Post("/categories", h.CatalogHandler.CreateCategory)
			r.Get("/categories/{id}", h.CatalogHandler.GetCategory)
			r.Post("/categories/{id}/materials", h.CatalogHandler.ImportMaterials)
			r.Post("/materials/delete", h.CatalogHandler.DeleteMaterials)
			r.Post("/tasks", h.CatalogHandler.CreateTask)
			r.Get("/audit-logs", h.AuditHandler.ListAuditLogs)
		})
	})

	return r
}
