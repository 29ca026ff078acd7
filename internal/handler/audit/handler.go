package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/handler"
	"github.com/jwalitptl/hms-api/internal/model"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// HistoryService is the read side of the audit trail.
type HistoryService interface {
	History(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
}

var entityTypes = map[string]bool{
	"schedule":   true,
	"doctor":     true,
	"department": true,
}

type Handler struct {
	service HistoryService
}

func NewHandler(service HistoryService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, admin gin.HandlerFunc) {
	r.GET("/audit/:entity_type/:id", admin, h.GetEntityLogs)
}

func (h *Handler) GetEntityLogs(c *gin.Context) {
	entityType := c.Param("entity_type")
	if !entityTypes[entityType] {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid entity_type"))
		return
	}
	entityID, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "json")
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("unsupported format"))
		return
	}

	logs, err := h.service.History(c.Request.Context(), entityType, entityID)
	if err != nil {
		handler.RespondError(c, apperrors.Internal(fmt.Errorf("failed to load audit history: %w", err)))
		return
	}
	if logs == nil {
		logs = []*model.AuditLog{}
	}

	if format == "json" {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
		return
	}

	filename := fmt.Sprintf("audit_%s_%s.csv", entityType, entityID)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Status(http.StatusOK)

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"ID", "Actor", "Action", "Entity Type", "Entity ID", "Request ID", "Created At"})
	for _, l := range logs {
		_ = writer.Write([]string{
			l.ID.String(),
			l.Actor,
			l.Action,
			l.EntityType,
			l.EntityID.String(),
			l.RequestID,
			l.CreatedAt.Format(time.RFC3339),
		})
	}
	writer.Flush()
}
