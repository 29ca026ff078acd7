// Package memory holds map-backed repositories used by tests and by the
// "memory" storage mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type scheduleRepository struct {
	mu        sync.RWMutex
	schedules map[uuid.UUID]*model.Schedule

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewScheduleRepository() repository.ScheduleRepository {
	return &scheduleRepository{
		schedules: make(map[uuid.UUID]*model.Schedule),
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func cloneSchedule(s *model.Schedule) *model.Schedule {
	c := *s
	c.WorkingDays = append(model.Weekdays(nil), s.WorkingDays...)
	if s.ValidTo != nil {
		v := *s.ValidTo
		c.ValidTo = &v
	}
	return &c
}

func (r *scheduleRepository) Get(_ context.Context, id uuid.UUID) (*model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSchedule(s), nil
}

func (r *scheduleRepository) List(_ context.Context, filters *model.ScheduleFilters) ([]*model.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Schedule, 0, len(r.schedules))
	for _, s := range r.schedules {
		if filters != nil {
			if filters.DoctorID != uuid.Nil && s.DoctorID != filters.DoctorID {
				continue
			}
			if filters.Status != "" && s.Status != filters.Status {
				continue
			}
			if filters.Day != "" && !s.WorkingDays.Contains(filters.Day) {
				continue
			}
		}
		out = append(out, cloneSchedule(s))
	}
	sortSchedules(out)
	return out, nil
}

func (r *scheduleRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Schedule, error) {
	return r.List(ctx, &model.ScheduleFilters{DoctorID: doctorID})
}

func (r *scheduleRepository) CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	active, err := r.List(ctx, &model.ScheduleFilters{DoctorID: doctorID, Status: model.ScheduleStatusActive})
	if err != nil {
		return 0, err
	}
	return len(active), nil
}

func (r *scheduleRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.schedules, id)
	return nil
}

func (r *scheduleRepository) doctorLock(doctorID uuid.UUID) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l, ok := r.locks[doctorID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[doctorID] = l
	}
	return l
}

func (r *scheduleRepository) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(tx repository.ScheduleTx) error) error {
	l := r.doctorLock(doctorID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&scheduleTx{repo: r})
}

// scheduleTx writes straight through; the doctor lock is what serializes writers.
type scheduleTx struct {
	repo *scheduleRepository
}

func (tx *scheduleTx) Get(ctx context.Context, id uuid.UUID) (*model.Schedule, error) {
	return tx.repo.Get(ctx, id)
}

func (tx *scheduleTx) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Schedule, error) {
	return tx.repo.ListByDoctor(ctx, doctorID)
}

func (tx *scheduleTx) Create(_ context.Context, s *model.Schedule) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	tx.repo.schedules[s.ID] = cloneSchedule(s)
	return nil
}

func (tx *scheduleTx) Update(_ context.Context, s *model.Schedule) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()

	existing, ok := tx.repo.schedules[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	tx.repo.schedules[s.ID] = cloneSchedule(s)
	return nil
}

// sortSchedules orders by doctor, then start time, then id, so listings are stable.
func sortSchedules(list []*model.Schedule) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.DoctorID != b.DoctorID {
			return a.DoctorID.String() < b.DoctorID.String()
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID.String() < b.ID.String()
	})
}
