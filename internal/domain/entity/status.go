package entity

import "time"

// WorkerState is the lifecycle state of a per-source Worker.
type WorkerState string

const (
	WorkerIdle     WorkerState = "idle"
	WorkerRunning  WorkerState = "running"
	WorkerStopping WorkerState = "stopping"
	WorkerError    WorkerState = "error"
)

// SourceStatus is the in-memory per-source record the Manager maintains.
// It is created once per known Source at Manager init and is mutated only
// by the owning Worker and the Manager itself; all other readers receive
// an atomic snapshot copy.
type SourceStatus struct {
	Source                 Source
	State                  WorkerState
	LastRunStarted         *time.Time
	LastRunFinished        *time.Time
	ItemsScanned           int64
	ItemsStored            int64
	ItemsSkippedDuplicate  int64
	ConsecutiveFailures    int
	LastError              string
}

// Snapshot returns a copy safe to hand to a reader without holding the
// Manager's lock.
func (s SourceStatus) Snapshot() SourceStatus {
	return s
}
