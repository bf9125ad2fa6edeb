package store

import "fmt"

// CommitBatch inserts all buffered runs from a BatchedStore within a single
// transaction and returns the real IDs in buffer order.
func (s *Store) CommitBatch(batch *BatchedStore) ([]int64, error) {
	batch.mu.Lock()
	runs := make([]Run, len(batch.Runs))
	copy(runs, batch.Runs)
	batch.mu.Unlock()

	if len(runs) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(runs))
	for i := range runs {
		id, err := insertRunTx(tx, &runs[i])
		if err != nil {
			return nil, fmt.Errorf("commit batch: run %s: %w", runs[i].Path, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: commit: %w", err)
	}
	return ids, nil
}
