package holiday

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"atsumaru/pkg/logger"
)

const dateLayout = "2006-01-02"

// CachedProvider answers holiday lookups from an LRU of (country, year)
// entries. Concurrent misses for the same key are collapsed into a single
// Source fetch, so parallel aggregation requests never stampede the API.
type CachedProvider struct {
	source Source
	cache  *lru.Cache[string, map[string]struct{}]
	group  singleflight.Group
	log    *logger.Logger
}

func NewCachedProvider(source Source, size int, log *logger.Logger) (*CachedProvider, error) {
	cache, err := lru.New[string, map[string]struct{}](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create holiday cache: %w", err)
	}

	return &CachedProvider{
		source: source,
		cache:  cache,
		log:    log,
	}, nil
}

func (c *CachedProvider) IsHoliday(ctx context.Context, country string, date time.Time) (bool, error) {
	key := fmt.Sprintf("%s/%d", country, date.Year())

	days, ok := c.cache.Get(key)
	if !ok {
		fetched, err, shared := c.group.Do(key, func() (any, error) {
			days, err := c.source.Holidays(ctx, country, date.Year())
			if err != nil {
				return nil, err
			}
			c.cache.Add(key, days)
			return days, nil
		})
		if err != nil {
			return false, err
		}
		if shared {
			c.log.Debug("Holiday fetch deduplicated", "key", key)
		}
		days = fetched.(map[string]struct{})
	}

	_, holiday := days[date.Format(dateLayout)]
	return holiday, nil
}
