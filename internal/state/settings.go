package state

import (
	"context"

	"git.home.luguber.info/inful/pingtriage/internal/config"
	"git.home.luguber.info/inful/pingtriage/internal/foundation"
)

// Settings returns a copy of the document's settings blocks.
func (r *Repository) Settings() config.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.Settings.Clone()
}

// UpdateSettings replaces the settings blocks and persists. Blank fields are
// backfilled with defaults.
func (r *Repository) UpdateSettings(ctx context.Context, s config.Settings) foundation.Result[struct{}, error] {
	s = s.Clone()
	s.Backfill()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.doc.Settings = s
	r.persistLocked()
	return foundation.Ok[struct{}, error](struct{}{})
}

// EnabledPlatforms returns the enabled platform names, sorted.
func (r *Repository) EnabledPlatforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.EnabledPlatforms()
}

// UserContext formats the user block for analysis prompts.
func (r *Repository) UserContext() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.Settings.UserContext()
}

// SettingsValid reports whether the settings allow real ingestion.
func (r *Repository) SettingsValid() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return IsValid(r.doc)
}
