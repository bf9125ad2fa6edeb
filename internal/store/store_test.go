package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

// insertTestRun inserts a successful run and returns it with ID set.
func insertTestRun(t *testing.T, s *Store, path, grammar string, nodes int, at time.Time) *Run {
	t.Helper()
	r := &Run{
		Path:       path,
		Grammar:    grammar,
		Hash:       ContentHash([]byte(path)),
		Status:     StatusOK,
		NodeCount:  nodes,
		Duration:   1500 * time.Microsecond,
		RecordedAt: at,
	}
	id, err := s.InsertRun(r)
	require.NoError(t, err)
	require.Positive(t, id)
	return r
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_RunsTableExists(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='runs'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "runs", name)
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestNewStore_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := NewStore("/nonexistent/dir/history.db")
	require.Error(t, err)
}

// =============================================================================
// Runs
// =============================================================================

func TestInsertRun_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	at := time.Now().Truncate(time.Second)
	in := &Run{
		Path:       "/src/main.go",
		Grammar:    "go",
		Hash:       ContentHash([]byte("package main")),
		Status:     StatusOK,
		NodeCount:  42,
		HasError:   true,
		Duration:   2 * time.Millisecond,
		RecordedAt: at,
	}
	_, err := s.InsertRun(in)
	require.NoError(t, err)

	runs, err := s.Runs(RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, in.ID, got.ID)
	assert.Equal(t, "/src/main.go", got.Path)
	assert.Equal(t, "go", got.Grammar)
	assert.Equal(t, in.Hash, got.Hash)
	assert.Equal(t, StatusOK, got.Status)
	assert.Equal(t, 42, got.NodeCount)
	assert.True(t, got.HasError)
	assert.Equal(t, 2*time.Millisecond, got.Duration)
	assert.True(t, at.Equal(got.RecordedAt), "recorded_at %v != %v", got.RecordedAt, at)
}

func TestInsertRun_DefaultsRecordedAt(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	r := &Run{Path: "/x.txt", Status: StatusUnsupported, Message: "unsupported language"}
	_, err := s.InsertRun(r)
	require.NoError(t, err)
	assert.False(t, r.RecordedAt.IsZero())

	runs, err := s.Runs(RunFilter{Status: StatusUnsupported})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "", runs[0].Grammar)
	assert.Equal(t, "unsupported language", runs[0].Message)
}

func TestRuns_FilterAndOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	base := time.Now().Truncate(time.Second)
	insertTestRun(t, s, "/a.go", "go", 10, base)
	insertTestRun(t, s, "/b.py", "python", 20, base.Add(time.Second))
	insertTestRun(t, s, "/c.go", "go", 30, base.Add(2*time.Second))

	all, err := s.Runs(RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "/c.go", all[0].Path, "newest first")
	assert.Equal(t, "/a.go", all[2].Path)

	goRuns, err := s.Runs(RunFilter{Grammar: "go"})
	require.NoError(t, err)
	require.Len(t, goRuns, 2)

	byPath, err := s.Runs(RunFilter{Path: "/b.py"})
	require.NoError(t, err)
	require.Len(t, byPath, 1)
	assert.Equal(t, "python", byPath[0].Grammar)

	limited, err := s.Runs(RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "/c.go", limited[0].Path)
}

func TestGrammarStats(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	base := time.Now().Truncate(time.Second)
	insertTestRun(t, s, "/a.go", "go", 10, base)
	insertTestRun(t, s, "/b.go", "go", 30, base.Add(time.Second))
	_, err := s.InsertRun(&Run{Path: "/c.go", Grammar: "go", Status: StatusParseFatal, RecordedAt: base.Add(2 * time.Second)})
	require.NoError(t, err)
	_, err = s.InsertRun(&Run{Path: "/d.txt", Status: StatusUnsupported, RecordedAt: base})
	require.NoError(t, err)

	stats, err := s.GrammarStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "", stats[0].Grammar)
	assert.Equal(t, 1, stats[0].Runs)
	assert.Equal(t, 1, stats[0].Failures)

	goStat := stats[1]
	assert.Equal(t, "go", goStat.Grammar)
	assert.Equal(t, 3, goStat.Runs)
	assert.Equal(t, 1, goStat.Failures)
	assert.InDelta(t, 20.0, goStat.AvgNodeCount, 0.001)
	assert.True(t, base.Add(2*time.Second).Equal(goStat.LastRecorded))
}

func TestContentHash(t *testing.T) {
	t.Parallel()
	a := ContentHash([]byte("x = 1"))
	b := ContentHash([]byte("x = 1"))
	c := ContentHash([]byte("x = 2"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
