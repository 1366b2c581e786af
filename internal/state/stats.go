package state

// Stats counts pings by status, responded pings and threads. It is computed
// from the document on every call.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.statsLocked()
}

func (r *Repository) statsLocked() Stats {
	s := Stats{
		TotalPings:   len(r.doc.State.Pings),
		TotalThreads: len(r.doc.State.Threads),
	}
	for _, p := range r.doc.State.Pings {
		switch p.Status {
		case StatusNew:
			s.NewPings++
		case StatusAnalyzed:
			s.AnalyzedPings++
		case StatusSynced:
			s.SyncedPings++
		}
		if p.ResponseDetected {
			s.RespondedPings++
		}
	}
	return s
}
