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

type doctorRepository struct {
	mu      sync.RWMutex
	doctors map[uuid.UUID]*model.Doctor
}

func NewDoctorRepository() repository.DoctorRepository {
	return &doctorRepository{doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *doctorRepository) emailTaken(email string, except uuid.UUID) bool {
	for id, d := range r.doctors {
		if id != except && strings.EqualFold(d.Email, email) {
			return true
		}
	}
	return false
}

func (r *doctorRepository) Create(_ context.Context, d *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(d.Email, uuid.Nil) {
		return repository.ErrDuplicate
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Touch(time.Now().UTC())
	c := *d
	r.doctors[d.ID] = &c
	return nil
}

func (r *doctorRepository) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *doctorRepository) Update(_ context.Context, d *model.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.doctors[d.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.emailTaken(d.Email, d.ID) {
		return repository.ErrDuplicate
	}
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = time.Now().UTC()
	c := *d
	r.doctors[d.ID] = &c
	return nil
}

func (r *doctorRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.doctors[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.doctors, id)
	return nil
}

func (r *doctorRepository) List(_ context.Context, filters *model.DoctorFilters) ([]*model.Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Doctor
	for _, d := range r.doctors {
		if filters != nil && !matchDoctor(d, filters) {
			continue
		}
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func matchDoctor(d *model.Doctor, f *model.DoctorFilters) bool {
	if f.DepartmentID != uuid.Nil && (d.DepartmentID == nil || *d.DepartmentID != f.DepartmentID) {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Specialization != "" && !strings.EqualFold(d.Specialization, f.Specialization) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(strings.ToLower(d.Email), q) {
			return false
		}
	}
	return true
}

func (r *doctorRepository) CountByDepartment(_ context.Context, departmentID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, d := range r.doctors {
		if d.DepartmentID != nil && *d.DepartmentID == departmentID {
			n++
		}
	}
	return n, nil
}
