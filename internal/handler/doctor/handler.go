package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	doctorService "github.com/jwalitptl/hms-api/internal/service/doctor"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type Handler struct {
	service doctorService.DoctorServicer
}

func NewHandler(service doctorService.DoctorServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	doctors := r.Group("/doctors")
	{
		doctors.POST("", admin, h.CreateDoctor)
		doctors.GET("", h.ListDoctors)
		doctors.GET("/:id", h.GetDoctor)
		doctors.PUT("/:id", admin, h.UpdateDoctor)
		doctors.DELETE("/:id", admin, h.DeleteDoctor)
	}
}

type doctorRequest struct {
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	Specialization  string             `json:"specialization"`
	DepartmentID    *uuid.UUID         `json:"department_id"`
	LicenseNumber   string             `json:"license_number"`
	ConsultationFee float64            `json:"consultation_fee"`
	Status          model.DoctorStatus `json:"status"`
}

func (r *doctorRequest) toModel() *model.Doctor {
	return &model.Doctor{
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Specialization:  r.Specialization,
		DepartmentID:    r.DepartmentID,
		LicenseNumber:   r.LicenseNumber,
		ConsultationFee: r.ConsultationFee,
		Status:          r.Status,
	}
}

func (h *Handler) CreateDoctor(c *gin.Context) {
	var req doctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d := req.toModel()
	if err := h.service.CreateDoctor(c.Request.Context(), d); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(d))
}

func (h *Handler) GetDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetDoctor(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) UpdateDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req doctorRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d := req.toModel()
	d.ID = id
	if err := h.service.UpdateDoctor(c.Request.Context(), d); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDoctor(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

// ListDoctors supports department_id, status, specialization and q filters.
func (h *Handler) ListDoctors(c *gin.Context) {
	filters := &model.DoctorFilters{
		Status:         model.DoctorStatus(c.Query("status")),
		Specialization: c.Query("specialization"),
		Search:         c.Query("q"),
	}
	if v := c.Query("department_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handler.RespondError(c, apperrors.BadRequest("invalid department_id", err))
			return
		}
		filters.DepartmentID = id
	}

	doctors, err := h.service.ListDoctors(c.Request.Context(), filters)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if doctors == nil {
		doctors = []*model.Doctor{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(doctors))
}
