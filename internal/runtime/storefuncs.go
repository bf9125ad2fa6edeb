package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/risor-io/risor/object"

	"github.com/jward/sapling/internal/store"
)

// makeHistoryRunsFn creates "history_runs". The optional filter map takes
// "path", "grammar", "status" and "limit" keys.
//
// history_runs([filter]) → []map
func makeHistoryRunsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("history_runs", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) > 1 {
			return object.Errorf("history_runs: expected at most 1 argument, got %d", len(args))
		}

		var f store.RunFilter
		if len(args) == 1 {
			m, err := extractMap(args[0])
			if err != nil {
				return object.Errorf("history_runs: %v", err)
			}
			f = store.RunFilter{
				Path:    getString(m, "path"),
				Grammar: getString(m, "grammar"),
				Status:  getString(m, "status"),
				Limit:   getInt(m, "limit"),
			}
		}

		runs, err := s.Runs(f)
		if err != nil {
			return object.Errorf("history_runs: %v", err)
		}

		results := make([]object.Object, 0, len(runs))
		for _, r := range runs {
			results = append(results, object.NewMap(map[string]object.Object{
				"id":          object.NewInt(r.ID),
				"path":        object.NewString(r.Path),
				"grammar":     object.NewString(r.Grammar),
				"hash":        object.NewString(r.Hash),
				"status":      object.NewString(r.Status),
				"message":     object.NewString(r.Message),
				"node_count":  object.NewInt(int64(r.NodeCount)),
				"has_error":   object.NewBool(r.HasError),
				"duration_us": object.NewInt(r.Duration.Microseconds()),
				"recorded_at": object.NewString(r.RecordedAt.UTC().Format(time.RFC3339)),
			}))
		}
		return object.NewList(results)
	})
}

// makeGrammarStatsFn creates "grammar_stats".
//
// grammar_stats() → []map
func makeGrammarStatsFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("grammar_stats", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("grammar_stats", 0, len(args))
		}

		stats, err := s.GrammarStats()
		if err != nil {
			return object.Errorf("grammar_stats: %v", err)
		}

		results := make([]object.Object, 0, len(stats))
		for _, st := range stats {
			results = append(results, object.NewMap(map[string]object.Object{
				"grammar":        object.NewString(st.Grammar),
				"runs":           object.NewInt(int64(st.Runs)),
				"failures":       object.NewInt(int64(st.Failures)),
				"with_errors":    object.NewInt(int64(st.WithErrors)),
				"avg_node_count": object.NewFloat(st.AvgNodeCount),
				"last_recorded":  object.NewString(st.LastRecorded.UTC().Format(time.RFC3339)),
			}))
		}
		return object.NewList(results)
	})
}

// --- Map extraction helpers ---

func extractMap(obj object.Object) (map[string]object.Object, error) {
	m, ok := obj.(*object.Map)
	if !ok {
		return nil, fmt.Errorf("expected map, got %s", obj.Type())
	}
	return m.Value(), nil
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getInt(m map[string]object.Object, key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	if i, ok := v.(*object.Int); ok {
		return int(i.Value())
	}
	if f, ok := v.(*object.Float); ok {
		return int(f.Value())
	}
	return 0
}
