package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainCheckin "fleet-compliance-monitor/internal/domain/checkin"
	domainDriver "fleet-compliance-monitor/internal/domain/driver"
	domainGroup "fleet-compliance-monitor/internal/domain/group"
	checkinUC "fleet-compliance-monitor/internal/usecase/checkin"
	complianceUC "fleet-compliance-monitor/internal/usecase/compliance"
	driverUC "fleet-compliance-monitor/internal/usecase/driver"
	groupUC "fleet-compliance-monitor/internal/usecase/group"
	"fleet-compliance-monitor/pkg/utils"
)

// Reminder delivers a manual reminder to one driver.
type Reminder interface {
	SendReminder(ctx context.Context, d *domainDriver.Driver) error
}

// CommandHandler exposes the dispatcher commands over HTTP: group and
// driver administration, manual reminders, verdicts and resets.
type CommandHandler struct {
	groups     *groupUC.Service
	drivers    *driverUC.Service
	checkins   *checkinUC.Service
	compliance *complianceUC.Service
	reminder   Reminder
}

func NewCommandHandler(
	groups *groupUC.Service,
	drivers *driverUC.Service,
	checkins *checkinUC.Service,
	compliance *complianceUC.Service,
	reminder Reminder,
) *CommandHandler {
	return &CommandHandler{
		groups:     groups,
		drivers:    drivers,
		checkins:   checkins,
		compliance: compliance,
		reminder:   reminder,
	}
}

func (h *CommandHandler) RegisterRoutes(router *gin.RouterGroup) {
	groups := router.Group("/groups")
	{
		groups.POST("", h.RegisterGroup)
		groups.PUT("/:id/timezone", h.SetTimezone)
		groups.PUT("/:id/autosend", h.SetAutosend)
		groups.PUT("/:id/digest", h.SetDigestTime)
		groups.PUT("/:id/topics", h.SetTopics)
		groups.DELETE("/:id", h.DeactivateGroup)
		groups.POST("/:id/reset-today", h.ResetToday)
		groups.POST("/:id/report", h.TriggerReport)
		groups.POST("/:id/compliance/clear", h.ClearCompliance)
	}

	drivers := router.Group("/drivers")
	{
		drivers.POST("", h.EnrollDriver)
		drivers.POST("/:id/chat", h.LinkChat)
		drivers.PUT("/:id/active", h.SetDriverActive)
		drivers.POST("/:id/notify", h.NotifyDriver)
		drivers.POST("/:id/excuse", h.ExcuseDriver)
		drivers.POST("/:id/notes", h.AddNote)
	}

	checkins := router.Group("/checkins")
	{
		checkins.POST("/:id/review", h.ReviewCheckin)
		checkins.POST("/:id/reopen", h.ReopenCheckin)
		checkins.POST("/:id/reset", h.ResetCheckin)
	}
}

type registerGroupRequest struct {
	ChatID         int64  `json:"chat_id" binding:"required"`
	Title          string `json:"title" binding:"required"`
	Timezone       string `json:"timezone"`
	RollingTopicID int64  `json:"rolling_topic_id"`
}

func (h *CommandHandler) RegisterGroup(c *gin.Context) {
	var req registerGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.groups.Register(c.Request.Context(), req.ChatID, req.Title, req.Timezone, req.RollingTopicID)
	if err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Group registered successfully", g)
}

type setTimezoneRequest struct {
	Timezone string `json:"timezone" binding:"required"`
}

func (h *CommandHandler) SetTimezone(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	var req setTimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.groups.SetTimezone(c.Request.Context(), groupID, req.Timezone)
	if err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Timezone updated successfully", g)
}

type setAutosendRequest struct {
	Enabled bool    `json:"enabled"`
	Time    *string `json:"time"`
}

func (h *CommandHandler) SetAutosend(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	var req setAutosendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.groups.SetAutosend(c.Request.Context(), groupID, req.Enabled, req.Time)
	if err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Autosend updated successfully", g)
}

type setDigestRequest struct {
	Time string `json:"time" binding:"required"`
}

func (h *CommandHandler) SetDigestTime(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	var req setDigestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.groups.SetDigestTime(c.Request.Context(), groupID, req.Time)
	if err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Digest time updated successfully", g)
}

type setTopicsRequest struct {
	RollingTopicID    int64  `json:"rolling_topic_id"`
	ComplianceTopicID *int64 `json:"compliance_topic_id"`
	TrailerTopicID    *int64 `json:"trailer_topic_id"`
}

func (h *CommandHandler) SetTopics(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	var req setTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := h.groups.SetTopics(c.Request.Context(), groupID, req.RollingTopicID, req.ComplianceTopicID, req.TrailerTopicID)
	if err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Topics updated successfully", g)
}

func (h *CommandHandler) DeactivateGroup(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.groups.Deactivate(c.Request.Context(), groupID); err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Group deactivated successfully", nil)
}

type resetTodayRequest struct {
	ResetBy *int64 `json:"reset_by"`
}

func (h *CommandHandler) ResetToday(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	var req resetTodayRequest
	_ = c.ShouldBindJSON(&req)

	affected, err := h.checkins.ResetAllToday(c.Request.Context(), groupID, req.ResetBy, time.Now())
	if err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Check-ins reset successfully", gin.H{"reset": affected})
}

func (h *CommandHandler) TriggerReport(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	g, err := h.groups.Get(c.Request.Context(), groupID)
	if err != nil {
		utils.ErrorResponse(c, groupErrStatus(err), err.Error())
		return
	}

	if err := h.compliance.RunReport(c.Request.Context(), g, time.Now()); err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Compliance report delivered", nil)
}

func (h *CommandHandler) ClearCompliance(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	var req resetTodayRequest
	_ = c.ShouldBindJSON(&req)

	removed, err := h.compliance.ClearTracking(c.Request.Context(), groupID, req.ResetBy)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Compliance tracking cleared", gin.H{"removed": removed})
}

type enrollDriverRequest struct {
	GroupID     uuid.UUID `json:"group_id" binding:"required"`
	ExternalID  int64     `json:"external_id" binding:"required"`
	Username    *string   `json:"username"`
	DisplayName *string   `json:"display_name"`
}

func (h *CommandHandler) EnrollDriver(c *gin.Context) {
	var req enrollDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := h.drivers.Enroll(c.Request.Context(), req.GroupID, req.ExternalID, req.Username, req.DisplayName)
	if err != nil {
		utils.ErrorResponse(c, driverErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Driver enrolled successfully", d)
}

type linkChatRequest struct {
	ChatID    int64   `json:"chat_id" binding:"required"`
	ChatTitle *string `json:"chat_title"`
}

func (h *CommandHandler) LinkChat(c *gin.Context) {
	driverID, ok := parseID(c)
	if !ok {
		return
	}

	var req linkChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.drivers.LinkChat(c.Request.Context(), driverID, req.ChatID, req.ChatTitle); err != nil {
		utils.ErrorResponse(c, driverErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Chat linked successfully", nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *CommandHandler) SetDriverActive(c *gin.Context) {
	driverID, ok := parseID(c)
	if !ok {
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.drivers.SetActive(c.Request.Context(), driverID, *req.Active); err != nil {
		utils.ErrorResponse(c, driverErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Driver updated successfully", nil)
}

func (h *CommandHandler) NotifyDriver(c *gin.Context) {
	driverID, ok := parseID(c)
	if !ok {
		return
	}

	d, err := h.drivers.Get(c.Request.Context(), driverID)
	if err != nil {
		utils.ErrorResponse(c, driverErrStatus(err), err.Error())
		return
	}

	if err := h.reminder.SendReminder(c.Request.Context(), d); err != nil {
		// A paused chat is a skip, not a failure.
		if errors.Is(err, domainDriver.ErrChatPaused) {
			utils.SuccessResponse(c, http.StatusOK, "Reminder skipped, driver chat is paused", gin.H{"skipped": true})
			return
		}
		if errors.Is(err, domainDriver.ErrNoChatLinked) {
			utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		utils.ErrorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Reminder sent successfully", nil)
}

type reviewRequest struct {
	Status     string  `json:"status" binding:"required"`
	ReviewerID *int64  `json:"reviewer_id"`
	Reason     *string `json:"reason"`
}

func (h *CommandHandler) ReviewCheckin(c *gin.Context) {
	checkinID, ok := parseID(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ci, err := h.checkins.Review(c.Request.Context(), checkinID, domainCheckin.Status(req.Status), req.ReviewerID, req.Reason, time.Now())
	if err != nil {
		utils.ErrorResponse(c, checkinErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Review recorded successfully", ci)
}

type excuseRequest struct {
	ReviewerID *int64  `json:"reviewer_id"`
	Reason     *string `json:"reason"`
}

func (h *CommandHandler) ExcuseDriver(c *gin.Context) {
	driverID, ok := parseID(c)
	if !ok {
		return
	}

	var req excuseRequest
	_ = c.ShouldBindJSON(&req)

	ci, err := h.checkins.Excuse(c.Request.Context(), driverID, req.ReviewerID, req.Reason, time.Now())
	if err != nil {
		utils.ErrorResponse(c, checkinErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Driver excused successfully", ci)
}

func (h *CommandHandler) ReopenCheckin(c *gin.Context) {
	checkinID, ok := parseID(c)
	if !ok {
		return
	}

	ci, err := h.checkins.Reopen(c.Request.Context(), checkinID, time.Now())
	if err != nil {
		utils.ErrorResponse(c, checkinErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Check-in reopened successfully", ci)
}

func (h *CommandHandler) ResetCheckin(c *gin.Context) {
	checkinID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.checkins.Reset(c.Request.Context(), checkinID); err != nil {
		utils.ErrorResponse(c, checkinErrStatus(err), err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Check-in reset successfully", nil)
}

type addNoteRequest struct {
	AuthorID int64  `json:"author_id" binding:"required"`
	Text     string `json:"text" binding:"required"`
}

func (h *CommandHandler) AddNote(c *gin.Context) {
	driverID, ok := parseID(c)
	if !ok {
		return
	}

	var req addNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.compliance.AddNote(c.Request.Context(), driverID, req.AuthorID, req.Text); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	utils.SuccessResponse(c, http.StatusCreated, "Note added successfully", nil)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func groupErrStatus(err error) int {
	switch {
	case errors.Is(err, domainGroup.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainGroup.ErrUnknownTimezone), errors.Is(err, domainGroup.ErrInvalidTime):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func driverErrStatus(err error) int {
	switch {
	case errors.Is(err, domainDriver.ErrDriverNotFound), errors.Is(err, domainGroup.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainDriver.ErrChatTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func checkinErrStatus(err error) int {
	switch {
	case errors.Is(err, domainCheckin.ErrCheckinNotFound), errors.Is(err, domainDriver.ErrDriverNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainCheckin.ErrInvalidTransition), errors.Is(err, domainCheckin.ErrInvalidStatus):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
