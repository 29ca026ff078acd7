package schedule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	scheduleService "github.com/jwalitptl/hms-api/internal/service/schedule"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

type Handler struct {
	service   scheduleService.ScheduleServicer
	validator validator.Validator
}

func NewHandler(service scheduleService.ScheduleServicer, v validator.Validator) *Handler {
	return &Handler{service: service, validator: v}
}

// RegisterRoutes mounts the schedule endpoints. Writes go through admin.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	schedules := r.Group("/schedules")
	{
		schedules.POST("/check", h.CheckConflicts)
		schedules.POST("", admin, h.CreateSchedule)
		schedules.GET("", h.ListSchedules)
		schedules.GET("/:id", h.GetSchedule)
		schedules.PUT("/:id", admin, h.UpdateSchedule)
		schedules.PATCH("/:id/status", admin, h.SetStatus)
		schedules.DELETE("/:id", admin, h.DeleteSchedule)
	}
	r.GET("/doctors/:id/availability", h.WeeklyAvailability)
}

func (h *Handler) CheckConflicts(c *gin.Context) {
	var req model.ConflictCheckRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	conflicts, err := h.service.CheckConflicts(c.Request.Context(), req.ScheduleDraft, req.ExcludeID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"conflicts":    conflicts,
		"has_conflict": len(conflicts) > 0,
	}))
}

func (h *Handler) CreateSchedule(c *gin.Context) {
	var req model.ScheduleRequest
	if !handler.BindJSON(c, &req) || !handler.Validate(c, h.validator, &req) {
		return
	}

	sched, err := h.service.CreateSchedule(c.Request.Context(), req.ToSchedule())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(sched))
}

func (h *Handler) ListSchedules(c *gin.Context) {
	filters := &model.ScheduleFilters{}

	if v := c.Query("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handler.RespondError(c, apperrors.BadRequest("invalid doctor_id", err))
			return
		}
		filters.DoctorID = id
	}
	if v := c.Query("status"); v != "" {
		status := model.ScheduleStatus(v)
		if status != model.ScheduleStatusActive && status != model.ScheduleStatusInactive {
			handler.RespondError(c, apperrors.BadRequest("invalid status", nil))
			return
		}
		filters.Status = status
	}
	if v := c.Query("day"); v != "" {
		day, err := model.ParseWeekday(v)
		if err != nil {
			handler.RespondError(c, apperrors.BadRequest("invalid day", err))
			return
		}
		filters.Day = day
	}

	schedules, err := h.service.ListSchedules(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if schedules == nil {
		schedules = []*model.Schedule{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(schedules))
}

func (h *Handler) GetSchedule(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	sched, err := h.service.GetSchedule(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(sched))
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.ScheduleRequest
	if !handler.BindJSON(c, &req) || !handler.Validate(c, h.validator, &req) {
		return
	}

	sched, err := h.service.UpdateSchedule(c.Request.Context(), id, req.ToSchedule())
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(sched))
}

func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.StatusRequest
	if !handler.BindJSON(c, &req) || !handler.Validate(c, h.validator, &req) {
		return
	}

	sched, err := h.service.SetStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(sched))
}

func (h *Handler) DeleteSchedule(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteSchedule(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) WeeklyAvailability(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	week, err := h.service.WeeklyAvailability(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(week))
}
