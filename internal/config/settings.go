package config

import (
	"maps"
	"slices"
	"strings"
)

// Default status names used when creating issues in Linear.
const (
	DefaultStatusNew  = "Triage"
	DefaultStatusDone = "Done"
)

// Known platform names.
const (
	PlatformSlack = "slack"
	PlatformP2    = "p2"
	PlatformFigma = "figma"
)

// LinearSettings identifies where synced pings become issues.
type LinearSettings struct {
	TeamID     string `yaml:"team_id" json:"team_id"`
	UserID     string `yaml:"user_id" json:"user_id"`
	StatusNew  string `yaml:"status_new" json:"status_new"`
	StatusDone string `yaml:"status_done" json:"status_done"`
}

// PlatformSettings toggles a single source platform.
type PlatformSettings struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// UserSettings describes the person pings are triaged for.
type UserSettings struct {
	Name    string `yaml:"name" json:"name"`
	Email   string `yaml:"email" json:"email"`
	Role    string `yaml:"role" json:"role"`
	Context string `yaml:"context" json:"context"`
}

// Settings is the user-editable part of the state document. It lives at the
// top level of config.json next to the "state" block.
type Settings struct {
	Linear    LinearSettings              `yaml:"linear" json:"linear"`
	Platforms map[string]PlatformSettings `yaml:"platforms" json:"platforms"`
	User      UserSettings                `yaml:"user" json:"user"`
}

// DefaultSettings returns the settings written into a fresh document.
func DefaultSettings() Settings {
	return Settings{
		Linear: LinearSettings{
			StatusNew:  DefaultStatusNew,
			StatusDone: DefaultStatusDone,
		},
		Platforms: map[string]PlatformSettings{
			PlatformSlack: {Enabled: true},
			PlatformP2:    {Enabled: true},
			PlatformFigma: {Enabled: false},
		},
	}
}

// Backfill fills blank fields from DefaultSettings without touching values
// the user already set.
func (s *Settings) Backfill() {
	def := DefaultSettings()
	if s.Linear.StatusNew == "" {
		s.Linear.StatusNew = def.Linear.StatusNew
	}
	if s.Linear.StatusDone == "" {
		s.Linear.StatusDone = def.Linear.StatusDone
	}
	if s.Platforms == nil {
		s.Platforms = def.Platforms
	}
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	if s.Platforms != nil {
		out.Platforms = maps.Clone(s.Platforms)
	}
	return out
}

// IsValid reports whether the settings are usable for real ingestion: a Linear
// team is configured and at least one platform is enabled.
func (s Settings) IsValid() bool {
	return strings.TrimSpace(s.Linear.TeamID) != "" && len(s.EnabledPlatforms()) > 0
}

// EnabledPlatforms returns the enabled platform names in sorted order.
func (s Settings) EnabledPlatforms() []string {
	var out []string
	for name, p := range s.Platforms {
		if p.Enabled {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// UserContext formats the user block for inclusion in analysis prompts.
func (s Settings) UserContext() string {
	var lines []string
	if s.User.Role != "" {
		lines = append(lines, "- Role: "+s.User.Role)
	}
	if s.User.Context != "" {
		lines = append(lines, "- "+s.User.Context)
	}
	if len(lines) == 0 {
		return "No specific context provided."
	}
	return strings.Join(lines, "\n")
}
