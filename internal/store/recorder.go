package store

// Recorder is the write side of the history. Both Store (direct SQLite)
// and BatchedStore (in-memory buffering for batch parses) implement it.
type Recorder interface {
	InsertRun(run *Run) (int64, error)
}

// Compile-time check: *Store satisfies Recorder.
var _ Recorder = (*Store)(nil)
