package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/state"
)

// RequiredFields are the analysis keys every rendered issue needs.
var RequiredFields = []string{
	"author_name",
	"action_summary_short",
	"summary",
	"original_quote",
	"suggested_action",
	"action_summary",
	"priority",
}

var priorityLabels = map[int]string{1: "Urgent", 2: "High"}

// Title renders "{author}: {action}".
func Title(a state.Analysis) string {
	return field(a, "author_name", "Unknown") + ": " + field(a, "action_summary_short", "Action needed")
}

// Description renders the issue body.
func Description(a state.Analysis, p state.Ping, now time.Time) string {
	var b strings.Builder
	b.WriteString(field(a, "summary", "No summary available"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "> \"%s\"\n\n", field(a, "original_quote", ""))
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "**Action:** %s\n\n", field(a, "suggested_action", "Review"))
	b.WriteString(field(a, "action_summary", "Review and respond"))
	b.WriteString("\n\n---\n\n")
	fmt.Fprintf(&b, "- Author: %s\n", author(p))
	fmt.Fprintf(&b, "- Source: %s\n", Source(p))
	fmt.Fprintf(&b, "- Also involved: %s\n", field(a, "other_participants", "None"))
	fmt.Fprintf(&b, "- Date: %s\n", RelativeDate(p.Timestamp, now))
	fmt.Fprintf(&b, "- [View in %s](%s)", platformTitle(p.Platform), permalink(p))
	return b.String()
}

// FollowupComment renders a comment for a ping whose thread already has an
// issue. With priorityChanged a priority note is appended.
func FollowupComment(a state.Analysis, p state.Ping, priorityChanged bool, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Follow-up from %s** (%s)\n\n", author(p), RelativeDate(p.Timestamp, now))
	b.WriteString(field(a, "summary", "Follow-up received"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "> \"%s\"\n\n", field(a, "original_quote", ""))
	fmt.Fprintf(&b, "**Action:** %s\n\n", field(a, "suggested_action", "Review"))
	b.WriteString(field(a, "action_summary", "Review and respond"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "[View in %s](%s)", platformTitle(p.Platform), permalink(p))
	if priorityChanged {
		fmt.Fprintf(&b, "\n\n---\n*Priority updated to %s*", PriorityLabel(a))
	}
	return b.String()
}

// PriorityLabel maps priority 1 and 2 to Urgent and High; anything else is
// "Updated".
func PriorityLabel(a state.Analysis) string {
	n, ok := intValue(a["priority"])
	if !ok {
		return "Updated"
	}
	if label, ok := priorityLabels[n]; ok {
		return label
	}
	return "Updated"
}

// Validate reports whether every required field is present and lists the
// missing ones in RequiredFields order.
func Validate(a state.Analysis) (bool, []string) {
	missing := []string{}
	for _, key := range RequiredFields {
		if _, ok := a[key]; !ok {
			missing = append(missing, key)
		}
	}
	return len(missing) == 0, missing
}

// field returns a[key] as text, or def when the key is absent or null.
func field(a state.Analysis, key, def string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return def
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// intValue accepts the numeric shapes a decoded or hand-built analysis may
// carry.
func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	default:
		return 0, false
	}
}

func author(p state.Ping) string {
	if p.Author == "" {
		return "Unknown"
	}
	return p.Author
}

func permalink(p state.Ping) string {
	if link := p.Permalink(); link != "" {
		return link
	}
	return "#"
}
