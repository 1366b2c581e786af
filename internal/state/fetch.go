package state

import (
	"context"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/config"
	"git.home.luguber.info/inful/pingtriage/internal/foundation"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
)

// LastFetch returns the recorded fetch cursor for platform.
func (r *Repository) LastFetch(platform string) foundation.Option[string] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ts, ok := r.doc.State.LastFetch[platform]
	if !ok || ts == "" {
		return foundation.None[string]()
	}
	return foundation.Some(ts)
}

// SetLastFetch records the cursor for platform. An empty timestamp means now.
// The stored value is returned.
func (r *Repository) SetLastFetch(ctx context.Context, platform, timestamp string) foundation.Result[string, error] {
	if v := foundation.Required("platform", platform); !v.Valid {
		return foundation.Err[string, error](v.ToError())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if timestamp == "" {
		timestamp = r.timestamp()
	}
	r.doc.State.LastFetch[platform] = timestamp
	r.persistLocked()
	r.logger.Debug("Fetch cursor updated", logfields.Platform(platform), "timestamp", timestamp)
	return foundation.Ok[string, error](timestamp)
}

// FetchStartDate returns where the next fetch for platform should begin: the
// recorded cursor, or maxLookbackDays before now when the platform was never
// fetched. A non-positive maxLookbackDays means 30.
func (r *Repository) FetchStartDate(platform string, maxLookbackDays int) string {
	if last, ok := r.LastFetch(platform).Get(); ok {
		return last
	}
	if maxLookbackDays <= 0 {
		maxLookbackDays = config.DefaultMaxLookbackDays
	}
	return formatTimestamp(r.now().Add(-time.Duration(maxLookbackDays) * 24 * time.Hour))
}
