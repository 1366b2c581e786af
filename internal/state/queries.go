package state

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/pingtriage/internal/foundation"
)

// IsURLSynced reports whether url already produced a synced ping. It is a
// constant-time pre-filter for fetchers.
func (r *Repository) IsURLSynced(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.doc.hasSyncedURL(url)
}

// Ping returns a copy of the ping with id.
func (r *Repository) Ping(id string) foundation.Option[Ping] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.doc.State.Pings[id]
	if !ok {
		return foundation.None[Ping]()
	}
	return foundation.Some(p.clone())
}

// Thread returns a copy of the thread with id.
func (r *Repository) Thread(id string) foundation.Option[Thread] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.doc.State.Threads[id]
	if !ok {
		return foundation.None[Thread]()
	}
	return foundation.Some(t.clone())
}

// UnanalyzedPings returns pings in status new.
func (r *Repository) UnanalyzedPings() []Ping {
	return r.selectPings(func(p *Ping) bool { return p.Status == StatusNew })
}

// AnalyzedPings returns pings analyzed but not yet synced.
func (r *Repository) AnalyzedPings() []Ping {
	return r.selectPings(func(p *Ping) bool { return p.Status == StatusAnalyzed })
}

// RespondedPings returns pings with a detected reply and a linked issue.
func (r *Repository) RespondedPings() []Ping {
	return r.selectPings(func(p *Ping) bool { return p.ResponseDetected && p.IssueID() != "" })
}

// AllPings returns every ping.
func (r *Repository) AllPings() []Ping {
	return r.selectPings(func(*Ping) bool { return true })
}

// selectPings returns copies ordered by created_at then id.
func (r *Repository) selectPings(keep func(*Ping) bool) []Ping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Ping, 0)
	for _, p := range r.doc.State.Pings {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	slices.SortFunc(out, func(a, b Ping) int {
		if c := strings.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// ThreadPings returns the thread's pings in insertion order. Member ids that
// no longer resolve are skipped.
func (r *Repository) ThreadPings(threadID string) []Ping {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.doc.State.Threads[threadID]
	if !ok {
		return []Ping{}
	}
	out := make([]Ping, 0, len(t.PingIDs))
	for _, id := range t.PingIDs {
		if p, ok := r.doc.State.Pings[id]; ok {
			out = append(out, p.clone())
		}
	}
	return out
}

// ThreadLinearIssue returns the issue linked to a thread, if any.
func (r *Repository) ThreadLinearIssue(threadID string) foundation.Option[string] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.doc.State.Threads[threadID]
	if !ok || t.IssueID() == "" {
		return foundation.None[string]()
	}
	return foundation.Some(t.IssueID())
}
