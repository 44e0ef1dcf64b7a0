package fetch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/pokedex/internal/logging"
	"github.com/abelbrown/pokedex/internal/model"
	"github.com/abelbrown/pokedex/internal/otel"
)

// RecordFetcher is the detail boundary.
type RecordFetcher interface {
	FetchRecord(ctx context.Context, locator string) (model.Record, error)
}

// RecordCache stores records by locator. *store.Store implements it.
type RecordCache interface {
	GetRecord(locator string) (model.Record, bool, error)
	SaveRecord(locator string, r model.Record) error
}

// CachedClient is a read-through cache in front of a RecordFetcher.
//
// Cache failures never fail a fetch: they are logged and the request goes
// to the network. Network failures are returned unchanged and not cached.
type CachedClient struct {
	next   RecordFetcher
	cache  RecordCache
	log    *log.Logger
	events *otel.Logger
}

// NewCachedClient wraps next with cache. logger and events may be nil.
func NewCachedClient(next RecordFetcher, cache RecordCache, logger *log.Logger, events *otel.Logger) *CachedClient {
	return &CachedClient{
		next:   next,
		cache:  cache,
		log:    logging.OrDiscard(logger),
		events: events,
	}
}

// FetchRecord returns the cached record for locator, fetching and storing
// it on a miss.
func (c *CachedClient) FetchRecord(ctx context.Context, locator string) (model.Record, error) {
	rec, ok, err := c.cache.GetRecord(locator)
	switch {
	case err != nil:
		c.log.Warn("cache read failed", "locator", locator, "err", err)
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCacheError, Comp: "cache", Name: locator, Err: err.Error()})
	case ok:
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheHit, Comp: "cache", Name: rec.Name})
		return rec, nil
	default:
		c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheMiss, Comp: "cache", Name: locator})
	}

	start := time.Now()
	rec, err = c.next.FetchRecord(ctx, locator)
	if err != nil {
		return model.Record{}, err
	}

	if err := c.cache.SaveRecord(locator, rec); err != nil {
		c.log.Warn("cache write failed", "name", rec.Name, "err", err)
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCacheError, Comp: "cache", Name: rec.Name, Err: err.Error()})
	} else {
		c.log.Debug("cached record", "name", rec.Name, "dur", time.Since(start))
	}
	return rec, nil
}
