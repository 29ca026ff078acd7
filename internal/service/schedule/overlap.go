package schedule

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/hms-api/internal/model"
)

// CheckOverlaps returns the schedules in existing that would double-book the
// doctor if draft were saved, in the order they appear in existing.
//
// A schedule conflicts when it belongs to the same doctor, is not the one named
// by excludeID, is active, shares at least one working day with the draft and
// its hours overlap the draft's. Ranges are half-open, so a block ending at
// 10:00 does not collide with one starting at 10:00. The draft's own status is
// not consulted. Inputs are never modified.
func CheckOverlaps(draft model.ScheduleDraft, existing []*model.Schedule, excludeID *uuid.UUID) []*model.Schedule {
	var conflicts []*model.Schedule
	for _, e := range existing {
		if collides(draft, e, excludeID) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

func collides(draft model.ScheduleDraft, e *model.Schedule, excludeID *uuid.UUID) bool {
	if e == nil || e.DoctorID != draft.DoctorID {
		return false
	}
	if excludeID != nil && e.ID == *excludeID {
		return false
	}
	if !e.IsActive() {
		return false
	}
	if !sharesDay(draft.WorkingDays, e.WorkingDays) {
		return false
	}
	return draft.StartTime < e.EndTime && draft.EndTime > e.StartTime
}

func sharesDay(a, b model.Weekdays) bool {
	for _, d := range a {
		if b.Contains(d) {
			return true
		}
	}
	return false
}

// CommonDays lists the weekdays both schedules run on, in week order.
func CommonDays(a, b model.Weekdays) model.Weekdays {
	return a.Intersect(b)
}

// Window returns the stretch of the day during which both time ranges are open.
// ok is false when they do not overlap.
func Window(aStart, aEnd, bStart, bEnd model.TimeOfDay) (from, to model.TimeOfDay, ok bool) {
	from, to = aStart, aEnd
	if bStart > from {
		from = bStart
	}
	if bEnd < to {
		to = bEnd
	}
	return from, to, from < to
}

// Describe attaches the shared days and overlapping hours to each conflict.
func Describe(draft model.ScheduleDraft, conflicts []*model.Schedule) []model.Conflict {
	out := make([]model.Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		from, to, _ := Window(draft.StartTime, draft.EndTime, c.StartTime, c.EndTime)
		out = append(out, model.Conflict{
			Schedule:   c,
			CommonDays: CommonDays(draft.WorkingDays, c.WorkingDays),
			From:       from,
			To:         to,
		})
	}
	return out
}
