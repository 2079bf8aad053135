package engine

import (
	"context"
	"strconv"
	"time"

	"atsumaru/internal/holiday"
	"atsumaru/pkg/locale"
	"atsumaru/pkg/logger"
	"atsumaru/pkg/model"
)

// DayRuling is the policy verdict for one date: whether the calendar admits
// it at all and, if so, which time window applies. A nil Window means the
// whole day is open.
type DayRuling struct {
	Admissible bool
	Window     *model.TimeWindow
	Holiday    bool
	HolidayEve bool
}

// PolicyResolver decides per-date admissibility and time windows from
// calendar policy plus holiday lookups. It is stateless; all methods are safe
// for concurrent use.
type PolicyResolver struct {
	holidays       holiday.Provider
	defaultCountry string
	log            *logger.Logger
}

func NewPolicyResolver(holidays holiday.Provider, defaultCountry string, log *logger.Logger) *PolicyResolver {
	return &PolicyResolver{
		holidays:       holidays,
		defaultCountry: defaultCountry,
		log:            log,
	}
}

// Resolve computes the ruling for a date.
//
// Precedence, most specific first:
//  1. Outside the calendar's [start_date, end_date] bounds: inadmissible,
//     no holiday rule can restore it.
//  2. The date is a holiday: policy "block" rejects it, "allow" admits it
//     with the holiday window even when its weekday is allowed, "ignore"
//     falls through to the normal rules.
//  3. Allowed weekday: admissible with that weekday's window.
//  4. Holiday eve: when enabled and not every weekday is already allowed, an
//     otherwise-excluded date right before a holiday is admitted with the eve
//     window. The eve rule never narrows an already-allowed date.
func (p *PolicyResolver) Resolve(ctx context.Context, cal *model.Calendar, date time.Time) DayRuling {
	if !p.withinBounds(cal, date) {
		return DayRuling{}
	}

	if cal.HolidaysPolicy != model.HolidaysIgnore && p.isHoliday(ctx, cal, date) {
		switch cal.HolidaysPolicy {
		case model.HolidaysBlock:
			return DayRuling{Holiday: true}
		case model.HolidaysAllow:
			return DayRuling{Admissible: true, Holiday: true, Window: cal.HolidayWindow}
		}
	}

	if cal.AllowsWeekday(date.Weekday()) {
		return DayRuling{Admissible: true, Window: p.weekdayWindow(cal, date)}
	}

	if cal.AllowHolidayEves && !cal.AllowsAllWeekdays() && p.isHoliday(ctx, cal, date.AddDate(0, 0, 1)) {
		return DayRuling{Admissible: true, HolidayEve: true, Window: cal.HolidayEveWindow}
	}

	return DayRuling{}
}

// IsDateAdmissible is a convenience wrapper over Resolve.
func (p *PolicyResolver) IsDateAdmissible(ctx context.Context, cal *model.Calendar, date time.Time) bool {
	return p.Resolve(ctx, cal, date).Admissible
}

func (p *PolicyResolver) withinBounds(cal *model.Calendar, date time.Time) bool {
	if cal.StartDate != "" {
		if start, err := ParseDate(cal.StartDate); err == nil && date.Before(start) {
			return false
		}
	}
	if cal.EndDate != "" {
		if end, err := ParseDate(cal.EndDate); err == nil && date.After(end) {
			return false
		}
	}
	return true
}

func (p *PolicyResolver) weekdayWindow(cal *model.Calendar, date time.Time) *model.TimeWindow {
	if len(cal.WeekdayTimes) == 0 {
		return nil
	}
	if window, ok := cal.WeekdayTimes[strconv.Itoa(int(date.Weekday()))]; ok {
		w := window
		return &w
	}
	return nil
}

// isHoliday fails open: a provider error is logged and treated as
// "not a holiday", which is exactly holidays_policy=ignore semantics.
func (p *PolicyResolver) isHoliday(ctx context.Context, cal *model.Calendar, date time.Time) bool {
	country := cal.HolidayCountry
	if country == "" {
		country = locale.DetectRegion(cal.TimeZone)
	}
	if country == "" {
		country = p.defaultCountry
	}

	hit, err := p.holidays.IsHoliday(ctx, country, date)
	if err != nil {
		p.log.Warn("Holiday lookup failed, treating date as regular day",
			"country", country,
			"date", FormatDate(date),
			"error", err,
		)
		return false
	}
	return hit
}
