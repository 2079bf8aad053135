package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"atsumaru/pkg/logger"
	"atsumaru/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// CalendarValidator checks every inbound record type of the calendar service.
// Struct tags cover field-level rules; cross-field rules (time ordering, date
// ordering) live in the typed Validate methods.
type CalendarValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCalendarValidator(log *logger.Logger) *CalendarValidator {
	v := validator.New()

	if err := v.RegisterValidation("valid_date", validateDate); err != nil {
		log.Fatal("Failed to register 'valid_date' validator", "error", err)
	}
	if err := v.RegisterValidation("valid_clock", validateClock); err != nil {
		log.Fatal("Failed to register 'valid_clock' validator", "error", err)
	}

	log.Info("Calendar validator initialized successfully")

	return &CalendarValidator{
		validate: v,
		logger:   log,
	}
}

func validateDate(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func validateClock(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

func (v *CalendarValidator) ValidateCalendar(cal *model.Calendar) error {
	if err := v.structErrors(cal); err != nil {
		return err
	}

	var errs ValidationErrors
	if cal.StartDate != "" && cal.EndDate != "" && cal.EndDate < cal.StartDate {
		errs = append(errs, ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}
	errs = append(errs, windowErrors("weekday_times", cal.WeekdayTimes)...)
	errs = append(errs, windowPtrErrors("holiday_window", cal.HolidayWindow)...)
	errs = append(errs, windowPtrErrors("holiday_eve_window", cal.HolidayEveWindow)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *CalendarValidator) ValidateParticipant(p *model.Participant) error {
	return v.structErrors(p)
}

func (v *CalendarValidator) ValidateAvailability(av *model.Availability) error {
	if err := v.structErrors(av); err != nil {
		return err
	}
	return timeOrderError(av.StartTime, av.EndTime)
}

func (v *CalendarValidator) ValidateRecurrence(rec *model.Recurrence) error {
	if err := v.structErrors(rec); err != nil {
		return err
	}

	var errs ValidationErrors
	if rec.EndDate != "" && rec.EndDate < rec.StartDate {
		errs = append(errs, ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}
	if err := timeOrderError(rec.StartTime, rec.EndTime); err != nil {
		var orderErrs ValidationErrors
		if errors.As(err, &orderErrs) {
			errs = append(errs, orderErrs...)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *CalendarValidator) ValidateException(ex *model.RecurrenceException) error {
	return v.structErrors(ex)
}

func (v *CalendarValidator) structErrors(record any) error {
	if err := v.validate.Struct(record); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// timeOrderError rejects records where only one bound is set or the bounds
// are inverted. HH:MM strings order correctly under string comparison.
func timeOrderError(start, end string) error {
	if start == "" && end == "" {
		return nil
	}
	if start == "" || end == "" {
		return ValidationErrors{{
			Field:   "start_time",
			Message: "start_time and end_time must be set together",
		}}
	}
	if end <= start {
		return ValidationErrors{{
			Field:   "end_time",
			Message: "end_time must be after start_time",
		}}
	}
	return nil
}

func windowErrors(field string, windows map[string]model.TimeWindow) ValidationErrors {
	var errs ValidationErrors
	for day, w := range windows {
		if day < "0" || day > "6" || len(day) != 1 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid weekday key %q, want \"0\" through \"6\"", day),
			})
			continue
		}
		if w.MaxTime <= w.MinTime {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("weekday %s: max_time must be after min_time", day),
			})
		}
	}
	return errs
}

func windowPtrErrors(field string, w *model.TimeWindow) ValidationErrors {
	if w == nil {
		return nil
	}
	if w.MaxTime <= w.MinTime {
		return ValidationErrors{{
			Field:   field,
			Message: "max_time must be after min_time",
		}}
	}
	return nil
}

func (v *CalendarValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "valid_date":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		case "valid_clock":
			message = fmt.Sprintf("%s must be an HH:MM 24-hour time", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "timezone":
			message = fmt.Sprintf("%s must be a valid IANA timezone name", err.Field())
		case "iso3166_1_alpha2":
			message = fmt.Sprintf("%s must be an ISO 3166-1 alpha-2 country code", err.Field())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid object id", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
