package model

import "time"

// HolidaysPolicy controls how public holidays affect date admissibility.
type HolidaysPolicy string

const (
	// HolidaysIgnore leaves holiday status without effect; normal weekday rules apply.
	HolidaysIgnore HolidaysPolicy = "ignore"
	// HolidaysAllow admits holidays even when their weekday is not allowed,
	// with the calendar's holiday time window.
	HolidaysAllow HolidaysPolicy = "allow"
	// HolidaysBlock rejects holidays regardless of weekday.
	HolidaysBlock HolidaysPolicy = "block"
)

// Weekday is a day of week in the 0-6 range, 0 = Sunday, matching time.Weekday.
type Weekday int

// TimeWindow bounds availability on a date. Both fields are "HH:MM" 24-hour
// strings; HH:MM compares correctly as plain strings.
type TimeWindow struct {
	MinTime string `json:"min_time" bson:"min_time" validate:"required,valid_clock"`
	MaxTime string `json:"max_time" bson:"max_time" validate:"required,valid_clock"`
}

// Calendar is the aggregate root: identity, share token and the policy that
// governs which dates and time windows participants may be available on.
// Policy fields are mutated only through the settings update command.
type Calendar struct {
	ID               string         `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Token            string         `json:"token" bson:"token" validate:"omitempty,min=8,max=64"`
	Title            string         `json:"title" bson:"title" validate:"required,min=1,max=100"`
	TimeZone         string         `json:"time_zone" bson:"time_zone" validate:"omitempty,timezone"`
	HolidayCountry   string         `json:"holiday_country,omitempty" bson:"holiday_country" validate:"omitempty,iso3166_1_alpha2"`
	Threshold        int            `json:"threshold" bson:"threshold" validate:"required,min=1"`
	AllowedWeekdays  []Weekday      `json:"allowed_weekdays" bson:"allowed_weekdays" validate:"required,min=1,max=7,dive,min=0,max=6"`
	MinDurationHours int            `json:"min_duration_hours" bson:"min_duration_hours" validate:"min=0,max=24"`
	StartDate        string         `json:"start_date,omitempty" bson:"start_date" validate:"omitempty,valid_date"`
	EndDate          string         `json:"end_date,omitempty" bson:"end_date" validate:"omitempty,valid_date"`
	HolidaysPolicy   HolidaysPolicy `json:"holidays_policy" bson:"holidays_policy" validate:"required,oneof=ignore allow block"`
	AllowHolidayEves bool           `json:"allow_holiday_eves" bson:"allow_holiday_eves"`

	// WeekdayTimes restricts availability per weekday. Keys are the string
	// form of the 0-6 weekday number (Mongo map keys must be strings).
	WeekdayTimes map[string]TimeWindow `json:"weekday_times,omitempty" bson:"weekday_times" validate:"omitempty,dive"`

	HolidayWindow    *TimeWindow `json:"holiday_window,omitempty" bson:"holiday_window" validate:"omitempty"`
	HolidayEveWindow *TimeWindow `json:"holiday_eve_window,omitempty" bson:"holiday_eve_window" validate:"omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// CalendarSettingsUpdate carries a partial policy change. Nil/empty fields
// keep their current value.
type CalendarSettingsUpdate struct {
	Title            string                 `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	TimeZone         string                 `json:"time_zone,omitempty" validate:"omitempty,timezone"`
	HolidayCountry   string                 `json:"holiday_country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
	Threshold        *int                   `json:"threshold,omitempty" validate:"omitempty,min=1"`
	AllowedWeekdays  []Weekday              `json:"allowed_weekdays,omitempty" validate:"omitempty,min=1,max=7,dive,min=0,max=6"`
	MinDurationHours *int                   `json:"min_duration_hours,omitempty" validate:"omitempty,min=0,max=24"`
	StartDate        *string                `json:"start_date,omitempty" validate:"omitempty"`
	EndDate          *string                `json:"end_date,omitempty" validate:"omitempty"`
	HolidaysPolicy   HolidaysPolicy         `json:"holidays_policy,omitempty" validate:"omitempty,oneof=ignore allow block"`
	AllowHolidayEves *bool                  `json:"allow_holiday_eves,omitempty"`
	WeekdayTimes     *map[string]TimeWindow `json:"weekday_times,omitempty" validate:"omitempty"`
	HolidayWindow    *TimeWindow            `json:"holiday_window,omitempty" validate:"omitempty"`
	HolidayEveWindow *TimeWindow            `json:"holiday_eve_window,omitempty" validate:"omitempty"`
}

// AllowsWeekday reports whether the weekday passes the calendar's filter.
func (c *Calendar) AllowsWeekday(day time.Weekday) bool {
	for _, wd := range c.AllowedWeekdays {
		if time.Weekday(wd) == day {
			return true
		}
	}
	return false
}

// AllowsAllWeekdays reports whether every day of the week is allowed, in
// which case holiday-eve carve-outs have nothing to add.
func (c *Calendar) AllowsAllWeekdays() bool {
	seen := map[Weekday]struct{}{}
	for _, wd := range c.AllowedWeekdays {
		seen[wd] = struct{}{}
	}
	return len(seen) == 7
}

// Location resolves the calendar's timezone, falling back to UTC.
func (c *Calendar) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
