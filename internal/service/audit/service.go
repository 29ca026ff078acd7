package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionActivate   = "activate"
	ActionDeactivate = "deactivate"
)

type Service struct {
	repo repository.AuditRepository
	now  func() time.Time
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Log creates an audit log entry. Actor and request id come from ctx.
func (s *Service) Log(ctx context.Context, action, entityType string, entityID uuid.UUID, changes interface{}) error {
	var raw json.RawMessage
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("failed to marshal audit changes: %w", err)
		}
		raw = b
	}

	entry := &model.AuditLog{
		ID:         uuid.New(),
		Actor:      ActorFromContext(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    raw,
		RequestID:  RequestIDFromContext(ctx),
		CreatedAt:  s.now().UTC(),
	}

	return s.repo.Create(ctx, entry)
}

// Record is Log for callers that must not fail because auditing did.
func (s *Service) Record(ctx context.Context, action, entityType string, entityID uuid.UUID, changes interface{}) {
	if err := s.Log(ctx, action, entityType, entityID, changes); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Str("entity_id", entityID.String()).
			Msg("failed to write audit log")
	}
}

func (s *Service) History(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	return s.repo.ListByEntity(ctx, entityType, entityID)
}
