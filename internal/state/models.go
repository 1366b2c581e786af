package state

import (
	"maps"
	"slices"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/foundation"
)

// TimestampLayout formats store-managed timestamps. Microsecond precision
// with an offset keeps them readable by the Python tooling that shares the file.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Status is the lifecycle position of a ping.
type Status string

const (
	StatusNew      Status = "new"
	StatusAnalyzed Status = "analyzed"
	StatusSynced   Status = "synced"
)

var statusNormalizer = foundation.NewNormalizer(map[string]Status{
	"new":      StatusNew,
	"analyzed": StatusAnalyzed,
	"synced":   StatusSynced,
}, StatusNew)

// ParseStatus maps raw text onto a Status.
func ParseStatus(raw string) (Status, error) {
	return statusNormalizer.NormalizeWithError(raw)
}

// rank orders statuses so transitions can be checked for monotonicity.
func (s Status) rank() int {
	switch s {
	case StatusAnalyzed:
		return 1
	case StatusSynced:
		return 2
	default:
		return 0
	}
}

// Analysis is the structured result an analyzer attaches to a ping. The store
// treats it as opaque.
type Analysis map[string]any

// Ping is one inbound notification.
type Ping struct {
	ID               string         `json:"id"`
	Platform         string         `json:"platform"`
	MessageID        string         `json:"message_id"`
	Timestamp        string         `json:"timestamp"`
	Author           string         `json:"author"`
	Content          string         `json:"content"`
	ThreadID         *string        `json:"thread_id"`
	Status           Status         `json:"status"`
	Analysis         Analysis       `json:"analysis"`
	LinearIssueID    *string        `json:"linear_issue_id"`
	ResponseDetected bool           `json:"response_detected"`
	Metadata         map[string]any `json:"metadata"`
	CreatedAt        string         `json:"created_at"`
	UpdatedAt        string         `json:"updated_at"`
}

// Thread returns the thread id or "" when the ping is not threaded.
func (p *Ping) Thread() string {
	if p.ThreadID == nil {
		return ""
	}
	return *p.ThreadID
}

// IssueID returns the linked Linear issue or "".
func (p *Ping) IssueID() string {
	if p.LinearIssueID == nil {
		return ""
	}
	return *p.LinearIssueID
}

// Permalink returns metadata.permalink when it is a non-empty string.
func (p *Ping) Permalink() string {
	if p.Metadata == nil {
		return ""
	}
	s, _ := p.Metadata["permalink"].(string)
	return s
}

func (p *Ping) clone() Ping {
	out := *p
	out.ThreadID = clonePtr(p.ThreadID)
	out.LinearIssueID = clonePtr(p.LinearIssueID)
	out.Analysis = maps.Clone(p.Analysis)
	out.Metadata = maps.Clone(p.Metadata)
	return out
}

// Thread groups pings that share a conversation.
type Thread struct {
	ID            string   `json:"id"`
	PingIDs       []string `json:"ping_ids"`
	LinearIssueID *string  `json:"linear_issue_id"`
	CreatedAt     string   `json:"created_at"`
}

// IssueID returns the linked Linear issue or "".
func (t *Thread) IssueID() string {
	if t.LinearIssueID == nil {
		return ""
	}
	return *t.LinearIssueID
}

func (t *Thread) clone() Thread {
	out := *t
	out.PingIDs = slices.Clone(t.PingIDs)
	out.LinearIssueID = clonePtr(t.LinearIssueID)
	return out
}

// appendPing adds id unless it is already a member.
func (t *Thread) appendPing(id string) bool {
	if slices.Contains(t.PingIDs, id) {
		return false
	}
	t.PingIDs = append(t.PingIDs, id)
	return true
}

// NewPing carries the caller-supplied fields of AddPing.
type NewPing struct {
	Platform  string
	MessageID string
	Timestamp string
	Author    string
	Content   string
	// ThreadID is a full thread id (see ThreadID); empty means unthreaded.
	ThreadID string
	Metadata map[string]any
}

// Validate checks the fields that feed the ping identity.
func (n NewPing) Validate() foundation.ValidationResult {
	return foundation.Required("platform", n.Platform).
		Combine(foundation.Required("message_id", n.MessageID)).
		Combine(foundation.Required("timestamp", n.Timestamp))
}

// Stats is a derived aggregate, recomputed on every call.
type Stats struct {
	TotalPings     int `json:"total_pings"`
	NewPings       int `json:"new_pings"`
	AnalyzedPings  int `json:"analyzed_pings"`
	SyncedPings    int `json:"synced_pings"`
	RespondedPings int `json:"responded_pings"`
	TotalThreads   int `json:"total_threads"`
}

func formatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptr[T any](v T) *T { return &v }
