package state

import (
	"context"
	"maps"

	"git.home.luguber.info/inful/pingtriage/internal/eventstore"
	"git.home.luguber.info/inful/pingtriage/internal/foundation"
	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
	"git.home.luguber.info/inful/pingtriage/internal/logfields"
	"git.home.luguber.info/inful/pingtriage/internal/metrics"
)

// AddPing stores a new ping in status new and returns its id. Re-adding the
// same (platform, message id, timestamp) returns the existing id and writes
// nothing.
func (r *Repository) AddPing(ctx context.Context, in NewPing) foundation.Result[string, error] {
	if v := in.Validate(); !v.Valid {
		return foundation.Err[string, error](v.ToError())
	}

	id := PingID(in.Platform, in.MessageID, in.Timestamp)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.doc.State.Pings[id]; exists {
		r.recorder.IncPingDeduplicated(in.Platform)
		r.logger.Debug("Ping already stored", logfields.PingID(id), logfields.Platform(in.Platform))
		return foundation.Ok[string, error](id)
	}

	now := r.timestamp()
	p := &Ping{
		ID:        id,
		Platform:  in.Platform,
		MessageID: in.MessageID,
		Timestamp: in.Timestamp,
		Author:    in.Author,
		Content:   in.Content,
		Status:    StatusNew,
		Metadata:  maps.Clone(in.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Metadata == nil {
		p.Metadata = map[string]any{}
	}
	if in.ThreadID != "" {
		p.ThreadID = ptr(in.ThreadID)
		r.addToThreadLocked(in.ThreadID, id, now)
	}
	r.doc.State.Pings[id] = p

	r.persistLocked()
	r.recorder.IncPingAdded(in.Platform)
	r.logger.Debug("Ping added", logfields.PingID(id), logfields.Platform(in.Platform), logfields.ThreadID(in.ThreadID))
	r.emit(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewPingAdded(r.runID, id, eventstore.PingAddedPayload{
			Platform:  in.Platform,
			MessageID: in.MessageID,
			Timestamp: in.Timestamp,
			Author:    in.Author,
			ThreadID:  in.ThreadID,
		})
	})
	return foundation.Ok[string, error](id)
}

// addToThreadLocked creates the thread on first reference and appends id
// unless it is already a member.
func (r *Repository) addToThreadLocked(threadID, pingID, now string) {
	t, ok := r.doc.State.Threads[threadID]
	if !ok {
		t = &Thread{ID: threadID, PingIDs: []string{}, CreatedAt: now}
		r.doc.State.Threads[threadID] = t
	}
	t.appendPing(pingID)
}

// UpdateAnalysis attaches an analysis and moves the ping to analyzed. It is
// allowed from new or analyzed; a synced ping is rejected so status never
// moves backwards.
func (r *Repository) UpdateAnalysis(ctx context.Context, id string, analysis Analysis) foundation.Result[struct{}, error] {
	return r.updatePing(ctx, id, func(p *Ping, now string) (eventBuilder, error) {
		if p.Status.rank() > StatusAnalyzed.rank() {
			return nil, errors.ValidationError("cannot analyze a ping that is already synced").
				WithContext("ping_id", id).
				WithContext("status", string(p.Status)).
				Build()
		}
		previous := p.Status
		p.Analysis = maps.Clone(analysis)
		p.Status = StatusAnalyzed
		p.UpdatedAt = now

		r.recorder.IncTransition(metrics.TransitionAnalyzed)
		r.logger.Debug("Ping analyzed", logfields.PingID(id), logfields.Status(string(previous)))
		return func() (*eventstore.BaseEvent, error) {
			return eventstore.NewPingAnalyzed(r.runID, id, eventstore.PingAnalyzedPayload{
				PreviousStatus: string(previous),
				Fields:         len(analysis),
			})
		}, nil
	})
}

// LinkIssue records the Linear issue for a ping and moves it to synced from
// any status. The issue is copied onto the ping's thread so later pings in
// the thread can find it, and the ping's permalink joins the synced-URL set.
func (r *Repository) LinkIssue(ctx context.Context, id, issueID string) foundation.Result[struct{}, error] {
	if v := foundation.Required("issue_id", issueID); !v.Valid {
		return foundation.Err[struct{}, error](v.ToError())
	}
	return r.updatePing(ctx, id, func(p *Ping, now string) (eventBuilder, error) {
		previous := p.Status
		p.LinearIssueID = ptr(issueID)
		p.Status = StatusSynced
		p.UpdatedAt = now

		threadID := p.Thread()
		if threadID != "" {
			r.addToThreadLocked(threadID, id, now)
			r.doc.State.Threads[threadID].LinearIssueID = ptr(issueID)
		}

		permalink := p.Permalink()
		r.doc.addSyncedURL(permalink)

		r.recorder.IncTransition(metrics.TransitionSynced)
		r.logger.Debug("Ping linked", logfields.PingID(id), logfields.IssueID(issueID), logfields.ThreadID(threadID))
		return func() (*eventstore.BaseEvent, error) {
			return eventstore.NewPingSynced(r.runID, id, eventstore.PingSyncedPayload{
				PreviousStatus: string(previous),
				IssueID:        issueID,
				ThreadID:       threadID,
				Permalink:      permalink,
			})
		}, nil
	})
}

// MarkResponded flags that a reply was detected. The flag is never cleared.
func (r *Repository) MarkResponded(ctx context.Context, id string) foundation.Result[struct{}, error] {
	return r.updatePing(ctx, id, func(p *Ping, now string) (eventBuilder, error) {
		p.ResponseDetected = true
		p.UpdatedAt = now

		r.recorder.IncTransition(metrics.TransitionResponded)
		return func() (*eventstore.BaseEvent, error) {
			return eventstore.NewPingResponded(r.runID, id)
		}, nil
	})
}

// MarkURLSynced adds url to the synced-URL set directly, for permalinks
// linked outside AddPing/LinkIssue.
func (r *Repository) MarkURLSynced(ctx context.Context, url string) foundation.Result[struct{}, error] {
	if v := foundation.Required("url", url); !v.Valid {
		return foundation.Err[struct{}, error](v.ToError())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.doc.addSyncedURL(url) {
		return foundation.Ok[struct{}, error](struct{}{})
	}
	r.persistLocked()
	r.emit(ctx, func() (*eventstore.BaseEvent, error) {
		return eventstore.NewURLSynced(r.runID, url)
	})
	return foundation.Ok[struct{}, error](struct{}{})
}
