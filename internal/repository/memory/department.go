package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type departmentRepository struct {
	mu    sync.RWMutex
	depts map[uuid.UUID]*model.Department
}

func NewDepartmentRepository() repository.DepartmentRepository {
	return &departmentRepository{depts: make(map[uuid.UUID]*model.Department)}
}

func (r *departmentRepository) taken(d *model.Department) bool {
	for id, other := range r.depts {
		if id == d.ID {
			continue
		}
		if strings.EqualFold(other.Name, d.Name) || other.Code == d.Code {
			return true
		}
	}
	return false
}

func (r *departmentRepository) Create(_ context.Context, d *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if r.taken(d) {
		return repository.ErrDuplicate
	}
	d.Touch(time.Now().UTC())
	c := *d
	r.depts[d.ID] = &c
	return nil
}

func (r *departmentRepository) Get(_ context.Context, id uuid.UUID) (*model.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.depts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *departmentRepository) Update(_ context.Context, d *model.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.depts[d.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.taken(d) {
		return repository.ErrDuplicate
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	c := *d
	r.depts[d.ID] = &c
	return nil
}

func (r *departmentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.depts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.depts, id)
	return nil
}

func (r *departmentRepository) List(_ context.Context) ([]*model.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Department, 0, len(r.depts))
	for _, d := range r.depts {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
