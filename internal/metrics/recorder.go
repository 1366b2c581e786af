package metrics

import "time"

// TransitionLabel names a lifecycle step for counters.
type TransitionLabel string

const (
	TransitionAnalyzed  TransitionLabel = "analyzed"
	TransitionSynced    TransitionLabel = "synced"
	TransitionResponded TransitionLabel = "responded"
)

// MigrationLabel enumerates legacy migration outcomes.
type MigrationLabel string

const (
	MigrationPerformed MigrationLabel = "performed"
	MigrationSkipped   MigrationLabel = "skipped"
	MigrationAbandoned MigrationLabel = "abandoned"
	MigrationFailed    MigrationLabel = "failed"
)

// Recorder defines observability hooks for the state store. Implementations
// must be safe for concurrent use.
type Recorder interface {
	IncPingAdded(platform string)
	IncPingDeduplicated(platform string)
	IncTransition(to TransitionLabel)
	ObserveSave(d time.Duration, success bool)
	IncMigration(outcome MigrationLabel)
	SetPingsByStatus(status string, n int)
	SetThreads(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPingAdded(string)             {}
func (NoopRecorder) IncPingDeduplicated(string)      {}
func (NoopRecorder) IncTransition(TransitionLabel)   {}
func (NoopRecorder) ObserveSave(time.Duration, bool) {}
func (NoopRecorder) IncMigration(MigrationLabel)     {}
func (NoopRecorder) SetPingsByStatus(string, int)    {}
func (NoopRecorder) SetThreads(int)                  {}
