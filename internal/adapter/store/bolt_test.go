package store

import (
	"context"
	"path/filepath"
	"testing"

	"jobrag/internal/domain"
)

func testChunks() ([]domain.Chunk, [][]float32) {
	chunks := []domain.Chunk{
		{ID: "a", Text: "Backend engineer, Go and Postgres", Metadata: domain.Metadata{
			"source_row_id": float64(1), "company": "Acme", "job_role": "백엔드",
		}},
		{ID: "b", Text: "Frontend engineer, React", Metadata: domain.Metadata{
			"source_row_id": float64(2), "company": "Globex", "job_role": "프론트엔드",
		}},
		{ID: "c", Text: "Data engineer, Spark", Metadata: domain.Metadata{
			"source_row_id": float64(3), "company": "Acme", "job_role": "데이터",
		}},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}
	return chunks, vectors
}

func TestBoltStoreSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	st, err := NewBoltStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	chunks, vectors := testChunks()
	if err := st.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}

	results, err := st.Search(context.Background(), []float32{1, 0, 0}, domain.Filters{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "a" {
		t.Errorf("expected nearest chunk a, got %s", results[0].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Errorf("results not sorted by ascending distance at %d", i)
		}
	}
}

func TestBoltStoreFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	st, err := NewBoltStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	chunks, vectors := testChunks()
	if err := st.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}

	results, err := st.Search(context.Background(), []float32{1, 0, 0}, domain.Filters{Company: "Acme"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 Acme results, got %d", len(results))
	}
	for _, r := range results {
		if r.Metadata.Company() != "Acme" {
			t.Errorf("filter leaked company %q", r.Metadata.Company())
		}
	}
}

func TestBoltStoreDimensionCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	st, err := NewBoltStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if _, err := st.Search(context.Background(), []float32{1, 0}, domain.Filters{}, 5); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestBoltStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.db")
	st, err := NewBoltStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	chunks, vectors := testChunks()
	if err := st.Upsert(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBoltStore(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	n, err := reopened.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3 chunks after reopen, got %d", n)
	}

	results, err := reopened.Search(context.Background(), []float32{0, 1, 0}, domain.Filters{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "b" {
		t.Errorf("expected chunk b after reopen, got %+v", results)
	}
	if id, ok := results[0].Metadata.SourceRowID(); !ok || id != 2 {
		t.Errorf("metadata lost across reopen: %+v", results[0].Metadata)
	}
}
