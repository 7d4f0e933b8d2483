package faq

import (
	"math"
	"sort"
	"sync"
)

// Vector pairs an entry with its embedding.
type Vector struct {
	Entry     Entry     `json:"entry"`
	Embedding []float32 `json:"embedding"`
}

// MemoryIndex ranks entries by cosine similarity. Entries are upserted by id.
type MemoryIndex struct {
	mu      sync.RWMutex
	vectors map[string]Vector
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{vectors: make(map[string]Vector)}
}

func (m *MemoryIndex) Upsert(vectors ...Vector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range vectors {
		m.vectors[v.Entry.ID] = v
	}
}

func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Search returns up to limit results, best first. Ties break on entry id.
func (m *MemoryIndex) Search(query []float32, limit int) []Result {
	if limit <= 0 {
		return nil
	}

	type scored struct {
		id     string
		result Result
	}
	m.mu.RLock()
	candidates := make([]scored, 0, len(m.vectors))
	for id, v := range m.vectors {
		candidates = append(candidates, scored{
			id: id,
			result: Result{
				Question: v.Entry.Question,
				Answer:   v.Entry.Answer,
				Score:    cosineSimilarity(query, v.Embedding),
			},
		})
	}
	m.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].result.Score != candidates[j].result.Score {
			return candidates[i].result.Score > candidates[j].result.Score
		}
		return candidates[i].id < candidates[j].id
	})

	if len(candidates) < limit {
		limit = len(candidates)
	}
	out := make([]Result, limit)
	for i := 0; i < limit; i++ {
		out[i] = candidates[i].result
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
