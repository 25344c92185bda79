package content

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex([]Item{
		{ID: 1, Title: "Basic Wiring", Tags: "electrical,wiring", Embedding: []float64{1, 0}},
		{ID: 2, Title: "Pipe Fitting", Tags: "plumbing", Embedding: []float64{0, 3}},
		{ID: 3, Title: "Site Safety", Tags: "safety", Embedding: []float64{1, 1}},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return idx
}

func TestSimilarities(t *testing.T) {
	idx := testIndex(t)
	sims, err := idx.Similarities([]float64{1, 0})
	if err != nil {
		t.Fatalf("Similarities: %v", err)
	}
	if len(sims) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(sims))
	}
	if math.Abs(sims[1]-1) > 1e-9 {
		t.Errorf("expected 1.0 for identical direction, got %v", sims[1])
	}
	if math.Abs(sims[2]) > 1e-9 {
		t.Errorf("expected 0 for orthogonal item, got %v", sims[2])
	}
	if math.Abs(sims[3]-1/math.Sqrt2) > 1e-9 {
		t.Errorf("expected 1/sqrt(2), got %v", sims[3])
	}
}

func TestSimilaritiesDimensionMismatch(t *testing.T) {
	idx := testIndex(t)
	_, err := idx.Similarities([]float64{1, 0, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNewIndexRejectsMixedDimensions(t *testing.T) {
	_, err := NewIndex([]Item{
		{ID: 1, Embedding: []float64{1, 0}},
		{ID: 2, Embedding: []float64{1, 0, 0}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestNewIndexRejectsDuplicateIDs(t *testing.T) {
	_, err := NewIndex([]Item{{ID: 1}, {ID: 1}})
	if err == nil {
		t.Error("expected error for duplicate ids")
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float64{0, 0})
	if v[0] != 0 || v[1] != 0 {
		t.Errorf("expected zero vector, got %v", v)
	}
}

func TestSearch(t *testing.T) {
	idx := testIndex(t)
	got := idx.Search("WIRING", "safety")
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("expected items 1 and 3, got %+v", got)
	}
	if len(idx.Search("")) != 0 {
		t.Error("expected no matches for empty keyword")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content_index.json")
	data := `{"items":[{"id":7,"title":"Conduit Bending","tags":"electrical","difficulty":"intermediate","embedding":[0,2]}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Dim() != 2 || idx.Len() != 1 {
		t.Errorf("expected dim 2 and 1 item, got dim %d, %d items", idx.Dim(), idx.Len())
	}
	it, ok := idx.Get(7)
	if !ok {
		t.Fatal("expected item 7")
	}
	if it.Embedding[1] != 1 {
		t.Errorf("expected normalized embedding, got %v", it.Embedding)
	}
}
