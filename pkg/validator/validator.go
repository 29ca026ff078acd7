package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/hms-api/internal/model"
)

// FieldError is a single failed rule, keyed by the JSON field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Validate when one or more fields fail.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// Validator provides validation functionality
type Validator interface {
	Validate(interface{}) error
	Engine() *validator.Validate
}

type structValidator struct {
	v *validator.Validate
}

var messages = map[string]string{
	"required":  "is required",
	"email":     "must be a valid email",
	"weekday":   "must be a weekday such as monday",
	"timeofday": "must be a time of day between 00:00 and 23:59",
	"deptcode":  "must be 2-10 upper-case letters",
}

func New() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "weekday", func(fl validator.FieldLevel) bool {
		return model.Weekday(fl.Field().String()).Valid()
	})
	mustRegister(v, "timeofday", func(fl validator.FieldLevel) bool {
		return model.TimeOfDay(fl.Field().Int()).Valid()
	})
	mustRegister(v, "deptcode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) < 2 || len(code) > 10 {
			return false
		}
		for _, r := range code {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	})

	v.RegisterStructValidation(scheduleRules, model.Schedule{})
	v.RegisterStructValidation(draftRules, model.ScheduleDraft{})

	return &structValidator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// scheduleRules holds the cross-field invariants of a schedule.
func scheduleRules(sl validator.StructLevel) {
	s := sl.Current().Interface().(model.Schedule)

	if !s.StartTime.Before(s.EndTime) {
		sl.ReportError(s.EndTime, "end_time", "EndTime", "after_start", "")
	}
	if s.ConsultationMode.RequiresRoom() && strings.TrimSpace(s.RoomNumber) == "" {
		sl.ReportError(s.RoomNumber, "room_number", "RoomNumber", "room_required", "")
	}
	if s.ValidFrom.IsZero() {
		sl.ReportError(s.ValidFrom, "valid_from", "ValidFrom", "required", "")
	}
	if s.ValidTo != nil && s.ValidTo.Before(s.ValidFrom.Time) {
		sl.ReportError(s.ValidTo, "valid_to", "ValidTo", "not_before_valid_from", "")
	}
}

func draftRules(sl validator.StructLevel) {
	d := sl.Current().Interface().(model.ScheduleDraft)
	if !d.StartTime.Before(d.EndTime) {
		sl.ReportError(d.EndTime, "end_time", "EndTime", "after_start", "")
	}
}

func (sv *structValidator) Engine() *validator.Validate {
	return sv.v
}

// Validate runs the struct rules and flattens failures into Errors.
func (sv *structValidator) Validate(obj interface{}) error {
	err := sv.v.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return out
}

// fieldPath drops the top-level struct name: "Schedule.working_days[0]" -> "working_days[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "after_start":
		return "must be after start_time"
	case "room_required":
		return "is required for in-person consultations"
	case "not_before_valid_from":
		return "must not be before valid_from"
	}
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
