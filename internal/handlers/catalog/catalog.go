package catalog

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/internal/handlers/httperr"
	"github.com/GlebRadaev/bountyhub/internal/service/catalogservice"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/utils"
)

//go:generate mockgen -source=catalog.go -destination=mock_catalog.go -package=catalog

type Service interface {
	ListTasks(ctx context.Context, actor domain.Actor) ([]domain.Task, error)
	CreateTask(ctx context.Context, operatorID int, task *domain.Task) (*domain.Task, error)
	CreateCategory(ctx context.Context, operatorID int, name string) (*domain.MaterialCategory, error)
	GetCategory(ctx context.Context, id int) (*domain.MaterialCategory, error)
	ImportMaterials(ctx context.Context, operatorID, categoryID int, batch catalogservice.Batch) (int, error)
	DeleteMaterials(ctx context.Context, operatorID int, ids []int) (int, error)
}

type CatalogHandler struct {
	catalogService Service
}

func New(catalogService Service) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// ListTasks godoc
//
//	@Summary		List available tasks
//	@Description	Active tasks whose required tags are all carried by the caller.
//	@Tags			Tasks
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.TaskResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/tasks [get]
func (h *CatalogHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	tasks, err := h.catalogService.ListTasks(r.Context(), actor)
	if err != nil {
		httperr.Respond(w, err)
		return
	}

	response := make([]dto.TaskResponseDTO, len(tasks))
	for i := range tasks {
		response[i] = toTaskDTO(&tasks[i])
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// CreateTask godoc
//
//	@Summary		Publish a task
//	@Description	Fixed tasks need a positive price; dynamic tasks are priced at review time.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateTaskRequestDTO	true	"Task"
//	@Success		201		{object}	dto.TaskResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		403		{object}	utils.Response	"Operator only"
//	@Failure		404		{object}	utils.Response	"Category not found"
//	@Failure		422		{object}	utils.Response	"Invalid task"
//	@Router			/api/admin/tasks [post]
func (h *CatalogHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req dto.CreateTaskRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := domain.ParsePricingMode(req.PricingMode)
	if err != nil {
		httperr.Respond(w, domain.ErrPricingMode)
		return
	}

	task, err := h.catalogService.CreateTask(r.Context(), actor.UserID, &domain.Task{
		Title:        req.Title,
		Description:  req.Description,
		PricingMode:  mode,
		Price:        req.Price,
		Material:     domain.PolicyFromColumn(req.CategoryID),
		RequiredTags: req.RequiredTags,
		Active:       true,
	})
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toTaskDTO(task))
}

// CreateCategory godoc
//
//	@Summary		Create a material category
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.CreateCategoryRequestDTO	true	"Category"
//	@Success		201		{object}	dto.CategoryResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		409		{object}	utils.Response	"Category exists"
//	@Failure		422		{object}	utils.Response	"Name is empty"
//	@Router			/api/admin/categories [post]
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req dto.CreateCategoryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), actor.UserID, req.Name)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toCategoryDTO(category))
}

// GetCategory godoc
//
//	@Summary		Material category counters
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Category ID"
//	@Success		200	{object}	dto.CategoryResponseDTO
//	@Failure		404	{object}	utils.Response	"Category not found"
//	@Router			/api/admin/categories/{id} [get]
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	category, err := h.catalogService.GetCategory(r.Context(), id)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toCategoryDTO(category))
}

// ImportMaterials godoc
//
//	@Summary		Import materials into a category
//	@Description	A carousel batch becomes one material with every image; otherwise each image is a material.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Category ID"
//	@Param			request	body		dto.ImportMaterialsRequestDTO	true	"Batch"
//	@Success		201		{object}	dto.CountResponseDTO			"Materials created"
//	@Failure		404		{object}	utils.Response					"Category not found"
//	@Failure		422		{object}	utils.Response					"Nothing to import"
//	@Router			/api/admin/categories/{id}/materials [post]
func (h *CatalogHandler) ImportMaterials(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	categoryID, ok := utils.IDParam(r, "id")
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req dto.ImportMaterialsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.catalogService.ImportMaterials(r.Context(), actor.UserID, categoryID, catalogservice.Batch{
		Title:    req.Title,
		Content:  req.Content,
		Images:   req.Images,
		Carousel: req.Carousel,
	})
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.CountResponseDTO{Count: count})
}

// DeleteMaterials godoc
//
//	@Summary		Soft delete materials
//	@Description	Assigned materials are kept so running claims are not disturbed.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.DeleteMaterialsRequestDTO	true	"Material IDs"
//	@Success		200		{object}	dto.CountResponseDTO			"Materials deleted"
//	@Failure		400		{object}	utils.Response					"Invalid request body"
//	@Failure		422		{object}	utils.Response					"Invalid id"
//	@Router			/api/admin/materials/delete [post]
func (h *CatalogHandler) DeleteMaterials(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req dto.DeleteMaterialsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.catalogService.DeleteMaterials(r.Context(), actor.UserID, req.IDs)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.CountResponseDTO{Count: count})
}

func toTaskDTO(t *domain.Task) dto.TaskResponseDTO {
	return dto.TaskResponseDTO{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		PricingMode:  t.PricingMode.String(),
		Price:        t.Price,
		CategoryID:   t.Material.Column(),
		RequiredTags: t.RequiredTags,
		CreatedAt:    t.CreatedAt,
	}
}

func toCategoryDTO(c *domain.MaterialCategory) dto.CategoryResponseDTO {
	return dto.CategoryResponseDTO{
		ID:         c.ID,
		Name:       c.Name,
		TotalCount: c.TotalCount,
		UsedCount:  c.UsedCount,
	}
}
