package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pipeline/internal/middleware"
	"pipeline/internal/models"
	"pipeline/internal/services"
)

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// more tolerant of types (int / int64 / float64 / string)
func getInt64FromCtx(c *gin.Context, key string) (int64, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// tenantFromCtx builds the tenant context set by the auth middleware.
func tenantFromCtx(c *gin.Context) (models.Tenant, bool) {
	tenantID, ok := getInt64FromCtx(c, middleware.CtxTenantID)
	if !ok || tenantID <= 0 {
		return models.Tenant{}, false
	}
	userID, _ := getInt64FromCtx(c, middleware.CtxUserID)
	roleID, _ := getInt64FromCtx(c, middleware.CtxRoleID)
	return models.Tenant{ID: tenantID, UserID: userID, RoleID: int(roleID)}, true
}

func requireTenant(c *gin.Context) (models.Tenant, bool) {
	tenant, ok := tenantFromCtx(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "no tenant in context", Code: "UNAUTHORIZED"})
	}
	return tenant, ok
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name, Code: services.CodeValidation})
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: services.CodeValidation})
}

// respondError maps service errors to status codes in one place.
func respondError(c *gin.Context, scope, action string, err error) {
	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		se *services.StorageError
	)
	switch {
	case errors.As(err, &ve):
		status := http.StatusBadRequest
		if ve.Code == services.CodeInvalidTransition {
			status = http.StatusConflict
		}
		c.JSON(status, ErrorResponse{Error: ve.Message, Code: ve.Code})
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: nf.Error(), Code: services.CodeNotFound})
	case errors.As(err, &se):
		log.Printf("[%s][%s][error] request=%s err=%v", scope, action, c.GetString(middleware.CtxRequestID), err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable", Code: services.CodeStorage})
	default:
		log.Printf("[%s][%s][error] request=%s err=%v", scope, action, c.GetString(middleware.CtxRequestID), err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "INTERNAL"})
	}
}

// parseTimeParam accepts RFC3339 or a plain date. A plain date used as an
// upper bound covers the whole day.
func parseTimeParam(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, errors.New("dates must be RFC3339 or YYYY-MM-DD, got " + raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Microsecond)
	}
	return &t, nil
}

func parseDateRange(c *gin.Context) (models.DateRange, error) {
	from, err := parseTimeParam(c.Query("from"), false)
	if err != nil {
		return models.DateRange{}, err
	}
	to, err := parseTimeParam(c.Query("to"), true)
	if err != nil {
		return models.DateRange{}, err
	}
	return models.DateRange{Start: from, End: to}, nil
}
