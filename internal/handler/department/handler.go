package department

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	departmentService "github.com/jwalitptl/hms-api/internal/service/department"
)

type Handler struct {
	service departmentService.DepartmentServicer
}

func NewHandler(service departmentService.DepartmentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	departments := r.Group("/departments")
	{
		departments.POST("", admin, h.CreateDepartment)
		departments.GET("", h.ListDepartments)
		departments.GET("/:id", h.GetDepartment)
		departments.PUT("/:id", admin, h.UpdateDepartment)
		departments.DELETE("/:id", admin, h.DeleteDepartment)
	}
}

type departmentRequest struct {
	Name         string                 `json:"name"`
	Code         string                 `json:"code"`
	Description  string                 `json:"description"`
	HeadDoctorID *uuid.UUID             `json:"head_doctor_id"`
	Status       model.DepartmentStatus `json:"status"`
}

func (r *departmentRequest) toModel() *model.Department {
	return &model.Department{
		Name:         r.Name,
		Code:         r.Code,
		Description:  r.Description,
		HeadDoctorID: r.HeadDoctorID,
		Status:       r.Status,
	}
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req departmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d := req.toModel()
	if err := h.service.CreateDepartment(c.Request.Context(), d); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(d))
}

func (h *Handler) GetDepartment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetDepartment(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) UpdateDepartment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req departmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	d := req.toModel()
	d.ID = id
	if err := h.service.UpdateDepartment(c.Request.Context(), d); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}

func (h *Handler) DeleteDepartment(c *gin.Context) {
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteDepartment(c.Request.Context(), id); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListDepartments(c *gin.Context) {
	list, err := h.service.ListDepartments(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if list == nil {
		list = []*model.Department{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}
