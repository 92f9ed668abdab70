package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"pipeline/internal/services"
)

type StageHandler struct {
	Service *services.StageService
}

func NewStageHandler(service *services.StageService) *StageHandler {
	return &StageHandler{Service: service}
}

// @Summary      List stages
// @Description  Returns the tenant's pipeline stages ordered by position
// @Tags         Stages
// @Produce      json
// @Success      200  {array}   models.Stage
// @Failure      503  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /stages [get]
func (h *StageHandler) List(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	stages, err := h.Service.List(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, "stage", "list", err)
		return
	}
	c.JSON(http.StatusOK, stages)
}

// @Summary      Create stage
// @Tags         Stages
// @Accept       json
// @Produce      json
// @Param        stage  body      services.CreateStageInput  true  "Stage"
// @Success      201    {object}  models.Stage
// @Failure      400    {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /stages [post]
func (h *StageHandler) Create(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var in services.CreateStageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	stage, err := h.Service.Create(c.Request.Context(), tenant, in)
	if err != nil {
		respondError(c, "stage", "create", err)
		return
	}
	log.Printf("[stage][create][ok] tenant=%d stage=%d", tenant.ID, stage.ID)
	c.JSON(http.StatusCreated, stage)
}

// @Summary      Update stage
// @Description  Partial update of name, color or position
// @Tags         Stages
// @Accept       json
// @Produce      json
// @Param        id     path      int                        true  "Stage ID"
// @Param        stage  body      services.UpdateStageInput  true  "Fields to change"
// @Success      200    {object}  models.Stage
// @Failure      400    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /stages/{id} [put]
func (h *StageHandler) Update(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateStageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	stage, err := h.Service.Update(c.Request.Context(), tenant, id, in)
	if err != nil {
		respondError(c, "stage", "update", err)
		return
	}
	c.JSON(http.StatusOK, stage)
}

// @Summary      Delete stage
// @Description  Deletes the stage and detaches its deals. Unknown ids are a no-op.
// @Tags         Stages
// @Produce      json
// @Param        id   path      int  true  "Stage ID"
// @Success      200  {object}  map[string]int64
// @Security     BearerAuth
// @Router       /stages/{id} [delete]
func (h *StageHandler) Delete(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	detached, err := h.Service.Delete(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, "stage", "delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detached_deals": detached})
}

// @Summary      Bootstrap default stages
// @Description  Creates the default pipeline when the tenant has no stages
// @Tags         Stages
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Success      201  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /stages/bootstrap [post]
func (h *StageHandler) Bootstrap(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	created, stages, err := h.Service.BootstrapDefaults(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, "stage", "bootstrap", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"created": created, "stages": stages})
}
