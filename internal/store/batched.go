package store

import "sync"

// BatchedStore buffers runs in memory using fake (negative) IDs so batch
// parse workers never contend on SQLite. CommitBatch writes the buffer in
// one transaction.
type BatchedStore struct {
	mu   sync.Mutex
	Runs []Run

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies Recorder.
var _ Recorder = (*BatchedStore)(nil)

// NewBatchedStore creates an empty BatchedStore.
func NewBatchedStore() *BatchedStore {
	return &BatchedStore{nextFakeID: -1}
}

func (b *BatchedStore) InsertRun(run *Run) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextFakeID
	b.nextFakeID--
	run.ID = id
	b.Runs = append(b.Runs, *run)
	return id, nil
}

// Len returns the number of buffered runs.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Runs)
}
