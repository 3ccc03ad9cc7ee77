package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ksohaib16/Test-Generator/internal/dto"
	"github.com/Ksohaib16/Test-Generator/internal/middleware"
	appErrors "github.com/Ksohaib16/Test-Generator/pkg/errors"
	"github.com/Ksohaib16/Test-Generator/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, teacherID string) (*dto.DashboardStats, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats godoc
// @Summary Teacher dashboard counters
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	stats, cacheHit, err := h.service.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, middleware.ExtractMeta(c))
}
