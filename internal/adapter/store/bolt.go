package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"jobrag/internal/domain"
)

var bucketChunks = []byte("chunks")

// BoltStore is an embedded vector store for running the pipeline without a
// Postgres corpus. Chunks and their vectors persist in BoltDB; search is
// brute-force cosine over an in-memory mirror, which is fine at job-posting
// corpus sizes.
type BoltStore struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	entries map[string]boltEntry
}

type boltEntry struct {
	chunk  domain.Chunk
	vector []float32
}

type storedChunk struct {
	Text     string          `json:"text"`
	Metadata domain.Metadata `json:"metadata,omitempty"`
	Vector   []float32       `json:"vector"`
}

// NewBoltStore opens (or creates) the database file and loads stored chunks
// into memory.
func NewBoltStore(path string, dimension int) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create chunks bucket: %w", err)
	}

	s := &BoltStore{
		db:        db,
		dimension: dimension,
		entries:   make(map[string]boltEntry),
	}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	return s, nil
}

func (s *BoltStore) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			id := string(k)
			s.entries[id] = boltEntry{
				chunk: domain.Chunk{
					ID:       id,
					Text:     stored.Text,
					Metadata: stored.Metadata,
				},
				vector: stored.Vector,
			}
			return nil
		})
	})
}

// Upsert adds or updates chunks with their embedding vectors. Chunks without
// an ID are assigned one.
func (s *BoltStore) Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return fmt.Errorf("chunks bucket not found")
		}

		for i, chunk := range chunks {
			if len(vectors[i]) != s.dimension {
				return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(vectors[i]))
			}
			if chunk.ID == "" {
				chunk.ID = uuid.NewString()
			}

			data, err := json.Marshal(storedChunk{
				Text:     chunk.Text,
				Metadata: chunk.Metadata,
				Vector:   vectors[i],
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(chunk.ID), data); err != nil {
				return err
			}

			s.entries[chunk.ID] = boltEntry{chunk: chunk, vector: vectors[i]}
		}

		return nil
	})
}

// Search returns the chunks nearest to the query vector that satisfy the
// filters, ordered by ascending cosine distance.
func (s *BoltStore) Search(ctx context.Context, vector []float32, filters domain.Filters, limit int) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, s.dimension, len(vector))
	}

	candidates := make([]domain.Candidate, 0, len(s.entries))
	for _, entry := range s.entries {
		if !filters.Matches(entry.chunk.Metadata) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Chunk:    entry.chunk,
			Distance: 1 - cosineSimilarity(vector, entry.vector),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].ID < candidates[j].ID
	})

	if limit < len(candidates) {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// Count returns the number of stored chunks.
func (s *BoltStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// cosineSimilarity computes cosine similarity between two vectors of equal
// length.
func cosineSimilarity(a, b []float32) float64 {
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
