package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type auditRepository struct {
	mu   sync.Mutex
	logs []*model.AuditLog
}

func NewAuditRepository() repository.AuditRepository {
	return &auditRepository{}
}

func (r *auditRepository) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *log
	r.logs = append(r.logs, &c)
	return nil
}

func (r *auditRepository) ListByEntity(_ context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.AuditLog
	for _, l := range r.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			c := *l
			out = append(out, &c)
		}
	}
	return out, nil
}
