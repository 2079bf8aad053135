package locale

type Country struct {
	Code            string // ISO 3166-1 alpha-2 country code (e.g., "JP", "US")
	Name            string // Human-readable country name
	DefaultTimezone string // IANA timezone identifier (e.g., "Asia/Tokyo")
}

var (
	Countries = map[string]Country{
		"JP": {
			Code:            "JP",
			Name:            "Japan",
			DefaultTimezone: "Asia/Tokyo",
		},
		"US": {
			Code:            "US",
			Name:            "United States",
			DefaultTimezone: "America/New_York",
		},
		"IL": {
			Code:            "IL",
			Name:            "Israel",
			DefaultTimezone: "Asia/Jerusalem",
		},
		"GB": {
			Code:            "GB",
			Name:            "United Kingdom",
			DefaultTimezone: "Europe/London",
		},
		"DE": {
			Code:            "DE",
			Name:            "Germany",
			DefaultTimezone: "Europe/Berlin",
		},
		"FR": {
			Code:            "FR",
			Name:            "France",
			DefaultTimezone: "Europe/Paris",
		},
	}

	TimeZoneTags = map[string][]string{
		"JP": {"Asia/Tokyo", "Japan"},
		"US": {"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles", "US/Eastern", "US/Pacific"},
		"IL": {"Asia/Jerusalem", "Israel", "Asia/Tel_Aviv"},
		"GB": {"Europe/London", "GB"},
		"DE": {"Europe/Berlin"},
		"FR": {"Europe/Paris"},
	}
)
