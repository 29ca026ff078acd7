package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hms-api/internal/model"
)

func days(t *testing.T, tokens ...string) model.Weekdays {
	t.Helper()
	ds, err := model.NewWeekdays(tokens...)
	require.NoError(t, err)
	return ds
}

func existingSchedule(t *testing.T, doctorID uuid.UUID, start, end string, status model.ScheduleStatus, tokens ...string) *model.Schedule {
	t.Helper()
	s := &model.Schedule{
		DoctorID:    doctorID,
		WorkingDays: days(t, tokens...),
		StartTime:   model.MustTimeOfDay(start),
		EndTime:     model.MustTimeOfDay(end),
		Status:      status,
	}
	s.ID = uuid.New()
	return s
}

func draftFor(t *testing.T, doctorID uuid.UUID, start, end string, tokens ...string) model.ScheduleDraft {
	t.Helper()
	return model.ScheduleDraft{
		DoctorID:    doctorID,
		WorkingDays: days(t, tokens...),
		StartTime:   model.MustTimeOfDay(start),
		EndTime:     model.MustTimeOfDay(end),
		Status:      model.ScheduleStatusActive,
	}
}

func TestCheckOverlapsScenarios(t *testing.T) {
	doctor := uuid.New()
	monWed := existingSchedule(t, doctor, "09:00", "12:00", model.ScheduleStatusActive, "Mon", "Wed")
	existing := []*model.Schedule{monWed}

	tests := []struct {
		name  string
		draft model.ScheduleDraft
		want  []*model.Schedule
	}{
		{
			name:  "shared wednesday with overlapping hours",
			draft: draftFor(t, doctor, "11:00", "13:00", "Wed", "Fri"),
			want:  []*model.Schedule{monWed},
		},
		{
			name:  "no common day",
			draft: draftFor(t, doctor, "09:00", "12:00", "Tue", "Thu"),
		},
		{
			name:  "touching at the boundary",
			draft: draftFor(t, doctor, "12:00", "15:00", "Mon"),
		},
		{
			name:  "touching before the start",
			draft: draftFor(t, doctor, "07:00", "09:00", "Mon"),
		},
		{
			name:  "another doctor",
			draft: draftFor(t, uuid.New(), "09:00", "12:00", "Mon"),
		},
		{
			name:  "draft inside existing",
			draft: draftFor(t, doctor, "10:00", "10:30", "Wed"),
			want:  []*model.Schedule{monWed},
		},
		{
			name:  "draft covers existing",
			draft: draftFor(t, doctor, "08:00", "13:00", "Mon"),
			want:  []*model.Schedule{monWed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckOverlaps(tt.draft, existing, nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckOverlapsScenarioDescription(t *testing.T) {
	doctor := uuid.New()
	monWed := existingSchedule(t, doctor, "09:00", "12:00", model.ScheduleStatusActive, "Mon", "Wed")
	draft := draftFor(t, doctor, "11:00", "13:00", "Wed", "Fri")

	described := Describe(draft, CheckOverlaps(draft, []*model.Schedule{monWed}, nil))
	require.Len(t, described, 1)
	assert.Equal(t, monWed, described[0].Schedule)
	assert.Equal(t, model.Weekdays{model.Wednesday}, described[0].CommonDays)
	assert.Equal(t, "11:00", described[0].From.String())
	assert.Equal(t, "12:00", described[0].To.String())
}

func TestCheckOverlapsDisjointDaysNeverConflict(t *testing.T) {
	doctor := uuid.New()
	for _, split := range []int{1, 3, 6} {
		left := make([]string, 0, split)
		right := make([]string, 0, 7-split)
		for i, d := range model.AllWeekdays {
			if i < split {
				left = append(left, string(d))
			} else {
				right = append(right, string(d))
			}
		}
		existing := []*model.Schedule{existingSchedule(t, doctor, "00:00", "23:59", model.ScheduleStatusActive, left...)}
		draft := draftFor(t, doctor, "00:00", "23:59", right...)

		assert.Empty(t, CheckOverlaps(draft, existing, nil), "split at %d", split)
	}
}

func TestCheckOverlapsBoundaries(t *testing.T) {
	doctor := uuid.New()
	ranges := [][2]string{
		{"08:00", "09:00"}, {"09:00", "10:00"}, {"10:00", "11:00"}, {"13:30", "17:45"},
	}

	for _, a := range ranges {
		for _, b := range ranges {
			existing := existingSchedule(t, doctor, b[0], b[1], model.ScheduleStatusActive, "fri")
			draft := draftFor(t, doctor, a[0], a[1], "fri")

			aStart, aEnd := model.MustTimeOfDay(a[0]), model.MustTimeOfDay(a[1])
			bStart, bEnd := model.MustTimeOfDay(b[0]), model.MustTimeOfDay(b[1])
			strict := aStart < bEnd && aEnd > bStart

			got := CheckOverlaps(draft, []*model.Schedule{existing}, nil)
			if strict {
				assert.Len(t, got, 1, "%v vs %v", a, b)
			} else {
				assert.Empty(t, got, "%v vs %v", a, b)
			}
		}
	}
}

func TestCheckOverlapsIgnoresInactive(t *testing.T) {
	doctor := uuid.New()
	inactive := existingSchedule(t, doctor, "09:00", "12:00", model.ScheduleStatusInactive, "mon")
	draft := draftFor(t, doctor, "09:00", "12:00", "mon")

	assert.Empty(t, CheckOverlaps(draft, []*model.Schedule{inactive}, nil))
}

func TestCheckOverlapsExcludesEditedSchedule(t *testing.T) {
	doctor := uuid.New()
	self := existingSchedule(t, doctor, "09:00", "12:00", model.ScheduleStatusActive, "mon")
	other := existingSchedule(t, doctor, "11:00", "14:00", model.ScheduleStatusActive, "mon")
	draft := draftFor(t, doctor, "09:00", "13:00", "mon")

	got := CheckOverlaps(draft, []*model.Schedule{self, other}, &self.ID)
	assert.Equal(t, []*model.Schedule{other}, got)
}

func TestCheckOverlapsKeepsInputOrderAndDoesNotMutate(t *testing.T) {
	doctor := uuid.New()
	a := existingSchedule(t, doctor, "10:00", "11:00", model.ScheduleStatusActive, "tue")
	b := existingSchedule(t, doctor, "08:00", "09:30", model.ScheduleStatusActive, "tue")
	c := existingSchedule(t, doctor, "15:00", "16:00", model.ScheduleStatusActive, "tue")
	existing := []*model.Schedule{a, b, c}
	snapshot := []model.Schedule{*a, *b, *c}

	draft := draftFor(t, doctor, "09:00", "10:30", "tue")
	got := CheckOverlaps(draft, existing, nil)

	assert.Equal(t, []*model.Schedule{a, b}, got)
	assert.Equal(t, []*model.Schedule{a, b, c}, existing)
	assert.Equal(t, snapshot, []model.Schedule{*a, *b, *c})
}

func TestCheckOverlapsEmptyInput(t *testing.T) {
	draft := draftFor(t, uuid.New(), "09:00", "10:00", "mon")
	assert.Nil(t, CheckOverlaps(draft, nil, nil))
}

func TestWindow(t *testing.T) {
	from, to, ok := Window(model.MustTimeOfDay("09:00"), model.MustTimeOfDay("12:00"), model.MustTimeOfDay("11:00"), model.MustTimeOfDay("13:00"))
	assert.True(t, ok)
	assert.Equal(t, "11:00", from.String())
	assert.Equal(t, "12:00", to.String())

	_, _, ok = Window(model.MustTimeOfDay("09:00"), model.MustTimeOfDay("12:00"), model.MustTimeOfDay("12:00"), model.MustTimeOfDay("13:00"))
	assert.False(t, ok)
}

func TestCommonDays(t *testing.T) {
	got := CommonDays(days(t, "sun", "wed", "mon"), days(t, "Wednesday", "SUNDAY", "fri"))
	assert.Equal(t, model.Weekdays{model.Wednesday, model.Sunday}, got)
}
