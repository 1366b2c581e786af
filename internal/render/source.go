package render

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/pingtriage/internal/state"
)

var titleCaser = cases.Title(language.Und)

// Source describes where a ping came from, e.g. "Slack: #eng" or
// "P2: site / post".
func Source(p state.Ping) string {
	switch p.Platform {
	case "slack":
		return "Slack: #" + metaString(p, "channel_name", "unknown")
	case "p2":
		site := metaString(p, "site_name", "unknown")
		if post := metaString(p, "post_title", ""); post != "" {
			return "P2: " + site + " / " + post
		}
		return "P2: " + site
	case "figma":
		return "Figma: " + metaString(p, "file_name", "unknown")
	default:
		return platformTitle(p.Platform)
	}
}

func platformTitle(platform string) string {
	if platform == "" {
		platform = "unknown"
	}
	return titleCaser.String(platform)
}

func metaString(p state.Ping, key, def string) string {
	if s, ok := p.Metadata[key].(string); ok {
		return s
	}
	return def
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// RelativeDate renders ts relative to now as "today", "yesterday" or
// "N days ago", counting whole elapsed days. Timestamps without a zone are
// read in now's location. Empty or unparsable input gives "recently".
func RelativeDate(ts string, now time.Time) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return "recently"
	}
	t, ok := parseTimestamp(ts, now.Location())
	if !ok {
		return "recently"
	}
	elapsed := now.Sub(t)
	days := int(elapsed / (24 * time.Hour))
	if elapsed < 0 && elapsed%(24*time.Hour) != 0 {
		days--
	}
	switch days {
	case 0:
		return "today"
	case 1:
		return "yesterday"
	default:
		return strconv.Itoa(days) + " days ago"
	}
}

func parseTimestamp(ts string, loc *time.Location) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, ts, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
