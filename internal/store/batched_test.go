package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_AssignsFakeIDs(t *testing.T) {
	t.Parallel()

	batch := NewBatchedStore()
	id1, err := batch.InsertRun(&Run{Path: "/a.go", Status: StatusOK})
	require.NoError(t, err)
	id2, err := batch.InsertRun(&Run{Path: "/b.go", Status: StatusOK})
	require.NoError(t, err)

	assert.Negative(t, id1, "batched IDs should be negative")
	assert.Negative(t, id2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, batch.Len())
}

func TestBatchedStore_ConcurrentInserts(t *testing.T) {
	t.Parallel()

	batch := NewBatchedStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := batch.InsertRun(&Run{Path: fmt.Sprintf("/f%d.go", i), Status: StatusOK})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, batch.Len())
}

func TestCommitBatch_WritesAllRuns(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	batch := NewBatchedStore()
	_, err := batch.InsertRun(&Run{Path: "/a.go", Grammar: "go", Status: StatusOK, NodeCount: 5})
	require.NoError(t, err)
	_, err = batch.InsertRun(&Run{Path: "/b.txt", Status: StatusUnsupported})
	require.NoError(t, err)

	// Nothing hits SQLite before commit.
	runs, err := s.Runs(RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)

	ids, err := s.CommitBatch(batch)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	for _, id := range ids {
		assert.Positive(t, id)
	}

	runs, err = s.Runs(RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestCommitBatch_Empty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	ids, err := s.CommitBatch(NewBatchedStore())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
