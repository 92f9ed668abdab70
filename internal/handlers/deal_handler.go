package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pipeline/internal/models"
	"pipeline/internal/services"
)

type DealHandler struct {
	Service *services.DealService
}

func NewDealHandler(service *services.DealService) *DealHandler {
	return &DealHandler{Service: service}
}

type moveDealRequest struct {
	StageID int64 `json:"stage_id" binding:"required"`
}

type updateDealStatusRequest struct {
	Status     string  `json:"status" binding:"required"`
	LostReason *string `json:"lost_reason"`
}

// @Summary      List deals
// @Description  Lists the tenant's deals, newest first by default
// @Tags         Deals
// @Produce      json
// @Param        status     query     string  false  "open, won or lost"
// @Param        stage_id   query     int     false  "Current stage"
// @Param        client_id  query     int     false  "Client"
// @Param        from       query     string  false  "Created on or after (RFC3339 or YYYY-MM-DD)"
// @Param        to         query     string  false  "Created on or before (RFC3339 or YYYY-MM-DD)"
// @Param        sort_by    query     string  false  "created_at, updated_at, title, status, expected_close_date"
// @Param        order      query     string  false  "asc or desc"
// @Param        page       query     int     false  "Page, from 1"
// @Param        size       query     int     false  "Page size"
// @Success      200  {array}   models.Deal
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /deals [get]
func (h *DealHandler) List(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	rng, err := parseDateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	stageID, _ := strconv.ParseInt(c.DefaultQuery("stage_id", "0"), 10, 64)
	clientID, _ := strconv.ParseInt(c.DefaultQuery("client_id", "0"), 10, 64)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "100"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 100
	}

	deals, err := h.Service.List(c.Request.Context(), tenant, models.DealFilter{
		Status:   models.DealStatus(c.Query("status")),
		StageID:  stageID,
		ClientID: clientID,
		From:     rng.Start,
		To:       rng.End,
		SortBy:   c.DefaultQuery("sort_by", "created_at"),
		Order:    c.DefaultQuery("order", "desc"),
		Limit:    size,
		Offset:   (page - 1) * size,
	})
	if err != nil {
		respondError(c, "deal", "list", err)
		return
	}
	c.JSON(http.StatusOK, deals)
}

// @Summary      List a client's deals
// @Tags         Deals
// @Produce      json
// @Param        id   path      int  true  "Client ID"
// @Success      200  {array}   models.Deal
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id}/deals [get]
func (h *DealHandler) ListByClient(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	clientID, ok := parseID(c, "id")
	if !ok {
		return
	}
	deals, err := h.Service.ListByClient(c.Request.Context(), tenant, clientID)
	if err != nil {
		respondError(c, "deal", "list_by_client", err)
		return
	}
	c.JSON(http.StatusOK, deals)
}

// @Summary      Get deal
// @Tags         Deals
// @Produce      json
// @Param        id   path      int  true  "Deal ID"
// @Success      200  {object}  models.Deal
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /deals/{id} [get]
func (h *DealHandler) GetByID(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	deal, err := h.Service.Get(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, "deal", "get", err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// @Summary      Create deal
// @Description  Creates an open deal, optionally placed in a stage
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        deal  body      services.CreateDealInput  true  "Deal"
// @Success      201   {object}  models.Deal
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /deals [post]
func (h *DealHandler) Create(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var in services.CreateDealInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	deal, err := h.Service.Create(c.Request.Context(), tenant, in)
	if err != nil {
		respondError(c, "deal", "create", err)
		return
	}
	c.JSON(http.StatusCreated, deal)
}

// @Summary      Update deal
// @Description  Edits title, value, expected close date and notes
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        id    path      int                       true  "Deal ID"
// @Param        deal  body      services.UpdateDealInput  true  "Fields to change"
// @Success      200   {object}  models.Deal
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /deals/{id} [put]
func (h *DealHandler) Update(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateDealInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	deal, err := h.Service.Update(c.Request.Context(), tenant, id, in)
	if err != nil {
		respondError(c, "deal", "update", err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// @Summary      Move deal to stage
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        id    path      int              true  "Deal ID"
// @Param        move  body      moveDealRequest  true  "Target stage"
// @Success      200   {object}  models.Deal
// @Failure      404   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /deals/{id}/move [post]
func (h *DealHandler) Move(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req moveDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	deal, err := h.Service.MoveToStage(c.Request.Context(), tenant, id, req.StageID)
	if err != nil {
		respondError(c, "deal", "move", err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// @Summary      Change deal status
// @Description  open->won, open->lost and reopening are allowed; won<->lost is a conflict
// @Tags         Deals
// @Accept       json
// @Produce      json
// @Param        id      path      int                      true  "Deal ID"
// @Param        status  body      updateDealStatusRequest  true  "New status"
// @Success      200     {object}  models.Deal
// @Failure      400     {object}  ErrorResponse
// @Failure      404     {object}  ErrorResponse
// @Failure      409     {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /deals/{id}/status [post]
func (h *DealHandler) UpdateStatus(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateDealStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	deal, err := h.Service.UpdateStatus(c.Request.Context(), tenant, id, models.DealStatus(req.Status), req.LostReason)
	if err != nil {
		respondError(c, "deal", "status", err)
		return
	}
	c.JSON(http.StatusOK, deal)
}

// @Summary      Deal stage history
// @Description  Stage moves of the deal, newest first
// @Tags         Deals
// @Produce      json
// @Param        id   path      int  true  "Deal ID"
// @Success      200  {array}   models.TransitionRecord
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /deals/{id}/history [get]
func (h *DealHandler) History(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	records, err := h.Service.History(c.Request.Context(), tenant, id)
	if err != nil {
		respondError(c, "deal", "history", err)
		return
	}
	c.JSON(http.StatusOK, records)
}
