package locale

import "strings"

// DetectRegion maps an IANA timezone to the ISO country code used for holiday
// lookups. Unknown timezones return the empty string so callers can fall back
// to the configured default country.
func DetectRegion(tz string) string {
	for region, zones := range TimeZoneTags {
		for _, z := range zones {
			if strings.EqualFold(tz, z) {
				return region
			}
		}
	}
	return ""
}
