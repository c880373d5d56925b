package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	domainCompliance "fleet-compliance-monitor/internal/domain/compliance"
	domainGroup "fleet-compliance-monitor/internal/domain/group"
	"fleet-compliance-monitor/pkg/utils"
)

// DashboardService is the read surface the dashboard needs.
type DashboardService interface {
	ListGroups(ctx context.Context) ([]*domainGroup.Group, error)
	GroupStats(ctx context.Context, groupID uuid.UUID, now time.Time) (*domainCheckin.DailyStats, error)
	GroupLastReset(ctx context.Context, groupID uuid.UUID, now time.Time) (*domainCheckin.ResetEntry, error)
	GroupPending(ctx context.Context, groupID uuid.UUID, now time.Time) ([]*domainCheckin.PendingDriver, error)
	DriverHistory(ctx context.Context, driverID uuid.UUID, days int, now time.Time) ([]*domainCheckin.CheckIn, error)
	DriverTracking(ctx context.Context, driverID uuid.UUID) (*domainCompliance.Tracking, error)
	DriverNotes(ctx context.Context, driverID uuid.UUID, limit int) ([]*domainCompliance.Note, error)
}

type DashboardHandler struct {
	service DashboardService
}

func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/groups", h.ListGroups)
		dashboard.GET("/groups/:id/summary", h.GroupSummary)
		dashboard.GET("/groups/:id/pending", h.GroupPending)
		dashboard.GET("/drivers/:id/history", h.DriverHistory)
	}
}

func (h *DashboardHandler) ListGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Groups retrieved successfully", groups)
}

func (h *DashboardHandler) GroupSummary(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid group ID")
		return
	}

	stats, err := h.service.GroupStats(c.Request.Context(), groupID, time.Now())
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	lastReset, err := h.service.GroupLastReset(c.Request.Context(), groupID, time.Now())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Summary retrieved successfully", gin.H{
		"stats":      stats,
		"last_reset": lastReset,
	})
}

func (h *DashboardHandler) GroupPending(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid group ID")
		return
	}

	pending, err := h.service.GroupPending(c.Request.Context(), groupID, time.Now())
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Pending drivers retrieved successfully", pending)
}

func (h *DashboardHandler) DriverHistory(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid driver ID")
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 90 {
			days = parsed
		}
	}

	history, err := h.service.DriverHistory(c.Request.Context(), driverID, days, time.Now())
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}

	tracking, err := h.service.DriverTracking(c.Request.Context(), driverID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	notes, err := h.service.DriverNotes(c.Request.Context(), driverID, 5)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "History retrieved successfully", gin.H{
		"history":  history,
		"tracking": tracking,
		"notes":    notes,
	})
}
