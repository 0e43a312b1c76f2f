package memory

import (
	"context"
	"testing"

	"github.com/yungbote/blueprint-backend/internal/vector"
)

func TestQueryMatchesRanksByCosine(t *testing.T) {
	s := NewStore(3)
	ctx := context.Background()

	err := s.Upsert(ctx, "doc-1", []vector.Vector{
		{ID: "aligned", Values: []float32{1, 0, 0}},
		{ID: "orthogonal", Values: []float32{0, 1, 0}},
		{ID: "close", Values: []float32{0.9, 0.1, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := s.QueryMatches(ctx, "doc-1", []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches length: want=2 got=%d", len(matches))
	}
	if matches[0].ID != "aligned" || matches[1].ID != "close" {
		t.Fatalf("ordering mismatch: got=%v", []string{matches[0].ID, matches[1].ID})
	}
	if !(matches[0].Score > matches[1].Score) {
		t.Fatalf("scores not descending: %v", []float64{matches[0].Score, matches[1].Score})
	}
}

func TestNamespaceIsolation(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	if err := s.Upsert(ctx, "doc-1", []vector.Vector{{ID: "a", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert doc-1: %v", err)
	}
	if err := s.Upsert(ctx, "doc-2", []vector.Vector{{ID: "b", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert doc-2: %v", err)
	}

	matches, err := s.QueryMatches(ctx, "doc-1", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "a" {
		t.Fatalf("expected only doc-1 points, got=%v", matches)
	}
}

func TestEmptyNamespaceQueriesAllDocuments(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	if err := s.Upsert(ctx, "doc-1", []vector.Vector{{ID: "a", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert doc-1: %v", err)
	}
	if err := s.Upsert(ctx, "doc-2", []vector.Vector{{ID: "b", Values: []float32{0, 1}}}); err != nil {
		t.Fatalf("Upsert doc-2: %v", err)
	}

	matches, err := s.QueryMatches(ctx, "", []float32{1, 1}, 10)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected matches across namespaces, got=%v", matches)
	}
}

func TestDeleteNamespace(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	if err := s.Upsert(ctx, "doc-1", []vector.Vector{{ID: "a", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.DeleteNamespace(ctx, "doc-1"); err != nil {
		t.Fatalf("DeleteNamespace: %v", err)
	}

	matches, err := s.QueryMatches(ctx, "doc-1", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty namespace after delete, got=%v", matches)
	}
}

func TestUpsertOverwritesByID(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	if err := s.Upsert(ctx, "doc-1", []vector.Vector{{ID: "a", Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, "doc-1", []vector.Vector{{ID: "a", Values: []float32{0, 1}}}); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}

	matches, err := s.QueryMatches(ctx, "doc-1", []float32{0, 1}, 10)
	if err != nil {
		t.Fatalf("QueryMatches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected single point after overwrite, got=%d", len(matches))
	}
	if matches[0].Score < 0.99 {
		t.Fatalf("expected overwritten vector to match query, score=%f", matches[0].Score)
	}
}

func TestUpsertDimensionMismatch(t *testing.T) {
	s := NewStore(3)
	err := s.Upsert(context.Background(), "doc-1", []vector.Vector{{ID: "a", Values: []float32{1, 0}}})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
