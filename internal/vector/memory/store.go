// Package memory holds an in-process vector store backed by a map. It serves
// single-node development and tests; production runs use the qdrant adapter.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/blueprint-backend/internal/vector"
)

type entry struct {
	values   []float32
	metadata map[string]any
}

type store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]entry
	vectorDim  int
}

func NewStore(vectorDim int) vector.Store {
	return &store{
		namespaces: make(map[string]map[string]entry),
		vectorDim:  vectorDim,
	}
}

func (s *store) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.namespaces[namespace]
	if ns == nil {
		ns = make(map[string]entry, len(vectors))
		s.namespaces[namespace] = ns
	}
	for _, v := range vectors {
		id := strings.TrimSpace(v.ID)
		if id == "" {
			return fmt.Errorf("vector id is required")
		}
		if len(v.Values) == 0 {
			return fmt.Errorf("vector %q has empty values", id)
		}
		if s.vectorDim > 0 && len(v.Values) != s.vectorDim {
			return fmt.Errorf("vector %q dimension mismatch: expected=%d got=%d", id, s.vectorDim, len(v.Values))
		}
		values := make([]float32, len(v.Values))
		copy(values, v.Values)
		ns[id] = entry{values: values, metadata: v.Metadata}
	}
	return nil
}

func (s *store) QueryMatches(ctx context.Context, namespace string, q []float32, topK int) ([]vector.VectorMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("query vector required")
	}
	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Empty namespace scans every document.
	var out []vector.VectorMatch
	for name, ns := range s.namespaces {
		if namespace != "" && name != namespace {
			continue
		}
		for id, e := range ns {
			out = append(out, vector.VectorMatch{ID: id, Score: cosine(q, e.values)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (s *store) DeleteNamespace(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
