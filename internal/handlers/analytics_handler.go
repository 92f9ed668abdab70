package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pipeline/internal/services"
)

type AnalyticsHandler struct {
	Service *services.AnalyticsService
}

func NewAnalyticsHandler(service *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{Service: service}
}

// @Summary      Deal statistics
// @Description  Totals per status and conversion rate for deals created in the window
// @Tags         Analytics
// @Produce      json
// @Param        from  query     string  false  "Created on or after"
// @Param        to    query     string  false  "Created on or before"
// @Success      200   {object}  models.DealStats
// @Failure      400   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /analytics/deals [get]
func (h *AnalyticsHandler) DealStats(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	rng, err := parseDateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	stats, err := h.Service.DealStats(c.Request.Context(), tenant, rng)
	if err != nil {
		respondError(c, "analytics", "deals", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary      Revenue
// @Description  Exact sums of negotiated value per status
// @Tags         Analytics
// @Produce      json
// @Param        from  query     string  false  "Created on or after"
// @Param        to    query     string  false  "Created on or before"
// @Success      200   {object}  models.RevenueSummary
// @Security     BearerAuth
// @Router       /analytics/revenue [get]
func (h *AnalyticsHandler) Revenue(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	rng, err := parseDateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	rev, err := h.Service.Revenue(c.Request.Context(), tenant, rng)
	if err != nil {
		respondError(c, "analytics", "revenue", err)
		return
	}
	c.JSON(http.StatusOK, rev)
}

// @Summary      Open pipeline per stage
// @Tags         Analytics
// @Produce      json
// @Success      200  {array}  models.StageLoad
// @Security     BearerAuth
// @Router       /analytics/stages [get]
func (h *AnalyticsHandler) Stages(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	loads, err := h.Service.StageBreakdown(c.Request.Context(), tenant)
	if err != nil {
		respondError(c, "analytics", "stages", err)
		return
	}
	c.JSON(http.StatusOK, loads)
}

// @Summary      Activity log
// @Tags         Analytics
// @Produce      json
// @Param        limit  query    int  false  "Entries, default 50, max 500"
// @Success      200    {array}  models.ActivityEntry
// @Security     BearerAuth
// @Router       /analytics/activity [get]
func (h *AnalyticsHandler) Activity(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultActivityLimit)))
	entries, err := h.Service.ActivityLog(c.Request.Context(), tenant, limit)
	if err != nil {
		respondError(c, "analytics", "activity", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary      Pipeline report
// @Description  PDF summary of deals, revenue and open pipeline
// @Tags         Analytics
// @Produce      application/pdf
// @Param        from  query  string  false  "Created on or after"
// @Param        to    query  string  false  "Created on or before"
// @Success      200   {file}  file
// @Security     BearerAuth
// @Router       /analytics/report.pdf [get]
func (h *AnalyticsHandler) Report(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	rng, err := parseDateRange(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.Service.Report(c.Request.Context(), tenant, rng, &buf); err != nil {
		respondError(c, "analytics", "report", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pipeline_%d.pdf"`, tenant.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
