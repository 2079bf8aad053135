package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"atsumaru/pkg/logger"
)

// Provider answers whether a date is a public holiday in a country. The
// engine treats provider errors as "not a holiday" (fail open), so
// implementations should return errors rather than guess.
type Provider interface {
	IsHoliday(ctx context.Context, country string, date time.Time) (bool, error)
}

// Source fetches the full holiday set for one (country, year). CachedProvider
// wraps a Source into a Provider with per-year caching.
type Source interface {
	Holidays(ctx context.Context, country string, year int) (map[string]struct{}, error)
}

// APIProvider fetches public holidays from a Nager.Date-compatible API:
// GET {base}/PublicHolidays/{year}/{country} returning [{"date":"YYYY-MM-DD",...}].
type APIProvider struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func NewAPIProvider(baseURL string, timeout time.Duration, log *logger.Logger) *APIProvider {
	return &APIProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type apiHoliday struct {
	Date string `json:"date"`
}

func (p *APIProvider) Holidays(ctx context.Context, country string, year int) (map[string]struct{}, error) {
	url := fmt.Sprintf("%s/PublicHolidays/%d/%s", p.baseURL, year, country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build holiday request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday API returned status %d for %s/%d", resp.StatusCode, country, year)
	}

	var holidays []apiHoliday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return nil, fmt.Errorf("failed to decode holiday response: %w", err)
	}

	days := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		if h.Date != "" {
			days[h.Date] = struct{}{}
		}
	}

	p.log.Debug("Fetched public holidays",
		"country", country,
		"year", year,
		"count", len(days),
	)
	return days, nil
}
