package state

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"git.home.luguber.info/inful/pingtriage/internal/config"
	"git.home.luguber.info/inful/pingtriage/internal/foundation/errors"
)

// DocumentMetadata describes the state section itself.
type DocumentMetadata struct {
	Version   string  `json:"version"`
	CreatedAt *string `json:"created_at"`
}

// StateSection holds everything the repository mutates.
type StateSection struct {
	LastFetch  map[string]string  `json:"last_fetch"`
	Pings      map[string]*Ping   `json:"pings"`
	Threads    map[string]*Thread `json:"threads"`
	SyncedURLs []string           `json:"synced_urls"`
	Metadata   DocumentMetadata   `json:"metadata"`
}

// Document is the aggregate root persisted as config.json. The settings
// blocks sit at the top level next to "state".
type Document struct {
	Version string `json:"version"`
	config.Settings
	State StateSection `json:"state"`

	syncedIndex map[string]struct{}
}

// NewDocument returns a document with every default filled in.
func NewDocument(now time.Time) *Document {
	doc := &Document{
		Version:  config.CurrentVersion,
		Settings: config.DefaultSettings(),
	}
	doc.backfill(now)
	return doc
}

// DecodeDocument parses config.json content and backfills anything an older
// writer left out.
func DecodeDocument(data []byte, now time.Time) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.StateError("state document is not valid JSON").
			WithCause(err).
			Build()
	}
	doc.backfill(now)
	return &doc, nil
}

// Encode renders the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// backfill repairs schema drift: nil collections, blank metadata, missing
// settings, pings without a status. It also rebuilds the synced-URL index.
func (d *Document) backfill(now time.Time) {
	if d.Version == "" {
		d.Version = config.CurrentVersion
	}
	d.Settings.Backfill()

	s := &d.State
	if s.LastFetch == nil {
		s.LastFetch = make(map[string]string)
	}
	if s.Pings == nil {
		s.Pings = make(map[string]*Ping)
	}
	if s.Threads == nil {
		s.Threads = make(map[string]*Thread)
	}
	if s.SyncedURLs == nil {
		s.SyncedURLs = []string{}
	}
	if s.Metadata.Version == "" {
		s.Metadata.Version = config.CurrentVersion
	}
	if s.Metadata.CreatedAt == nil {
		s.Metadata.CreatedAt = ptr(formatTimestamp(now))
	}

	for id, p := range s.Pings {
		if p == nil {
			delete(s.Pings, id)
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
		if p.Status == "" {
			p.Status = StatusNew
		}
		if p.Metadata == nil {
			p.Metadata = map[string]any{}
		}
	}
	for id, t := range s.Threads {
		if t == nil {
			delete(s.Threads, id)
			continue
		}
		if t.ID == "" {
			t.ID = id
		}
		if t.PingIDs == nil {
			t.PingIDs = []string{}
		}
	}
	d.reattachThreads()

	d.rebuildSyncedIndex()
}

// reattachThreads recreates threads that a ping references but the document
// lost, and restores missing memberships. A recreated thread takes the
// earliest member's created_at and the first linked issue it finds.
func (d *Document) reattachThreads() {
	s := &d.State
	recreated := map[string]bool{}
	for _, id := range slices.Sorted(maps.Keys(s.Pings)) {
		p := s.Pings[id]
		threadID := p.Thread()
		if threadID == "" {
			continue
		}
		t, ok := s.Threads[threadID]
		if !ok {
			t = &Thread{ID: threadID, PingIDs: []string{}, CreatedAt: p.CreatedAt}
			s.Threads[threadID] = t
			recreated[threadID] = true
		}
		t.appendPing(id)
		if recreated[threadID] && p.CreatedAt != "" && p.CreatedAt < t.CreatedAt {
			t.CreatedAt = p.CreatedAt
		}
		if t.LinearIssueID == nil && p.LinearIssueID != nil {
			t.LinearIssueID = clonePtr(p.LinearIssueID)
		}
	}
}

func (d *Document) rebuildSyncedIndex() {
	d.syncedIndex = make(map[string]struct{}, len(d.State.SyncedURLs))
	deduped := d.State.SyncedURLs[:0]
	for _, u := range d.State.SyncedURLs {
		if _, dup := d.syncedIndex[u]; dup || u == "" {
			continue
		}
		d.syncedIndex[u] = struct{}{}
		deduped = append(deduped, u)
	}
	d.State.SyncedURLs = deduped
}

// addSyncedURL records url and reports whether it was new.
func (d *Document) addSyncedURL(url string) bool {
	if url == "" {
		return false
	}
	if d.syncedIndex == nil {
		d.rebuildSyncedIndex()
	}
	if _, ok := d.syncedIndex[url]; ok {
		return false
	}
	d.syncedIndex[url] = struct{}{}
	d.State.SyncedURLs = append(d.State.SyncedURLs, url)
	return true
}

// hasSyncedURL never writes, so it is safe under a read lock. A document
// that skipped backfill falls back to a scan.
func (d *Document) hasSyncedURL(url string) bool {
	if d.syncedIndex == nil {
		return url != "" && slices.Contains(d.State.SyncedURLs, url)
	}
	_, ok := d.syncedIndex[url]
	return ok
}

// IsValid reports whether the document's settings allow real ingestion.
func IsValid(doc *Document) bool {
	return doc != nil && doc.Settings.IsValid()
}
