// Package content holds the read-only catalog of learning items and their
// normalized semantic embeddings.
package content

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is returned when a query vector does not match the
// dimension of the stored embeddings.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Item is one piece of learning content. Items are immutable after load.
type Item struct {
	ID         int       `json:"id"`
	Title      string    `json:"title"`
	Tags       string    `json:"tags"`
	Difficulty string    `json:"difficulty"`
	Embedding  []float64 `json:"embedding"`
}

// Index is an immutable view over the content catalog. It is safe for
// concurrent use once constructed.
type Index struct {
	items []Item
	byID  map[int]int
	dim   int
}

type indexFile struct {
	Items []Item `json:"items"`
}

// NewIndex builds an index from items. Embeddings are L2-normalized so that
// a dot product with a normalized query equals cosine similarity.
func NewIndex(items []Item) (*Index, error) {
	idx := &Index{
		items: make([]Item, 0, len(items)),
		byID:  make(map[int]int, len(items)),
	}
	for _, it := range items {
		if _, dup := idx.byID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate content id %d", it.ID)
		}
		if len(it.Embedding) > 0 {
			if idx.dim == 0 {
				idx.dim = len(it.Embedding)
			} else if len(it.Embedding) != idx.dim {
				return nil, fmt.Errorf("content %d: %w (got %d, want %d)", it.ID, ErrDimensionMismatch, len(it.Embedding), idx.dim)
			}
			it.Embedding = Normalize(it.Embedding)
		}
		idx.byID[it.ID] = len(idx.items)
		idx.items = append(idx.items, it)
	}
	return idx, nil
}

// Load reads a JSON content index artifact from disk.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content index: %w", err)
	}
	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing content index: %w", err)
	}
	return NewIndex(f.Items)
}

// Dim is the embedding dimension, or 0 for an index without embeddings.
func (x *Index) Dim() int { return x.dim }

// Len returns the number of items.
func (x *Index) Len() int { return len(x.items) }

// Get looks up an item by content id.
func (x *Index) Get(id int) (Item, bool) {
	i, ok := x.byID[id]
	if !ok {
		return Item{}, false
	}
	return x.items[i], true
}

// Items returns the catalog in load order. Callers must not modify it.
func (x *Index) Items() []Item { return x.items }

// Similarities scores every embedded item against q. q must already be
// normalized; the result is cosine similarity in [-1, 1].
func (x *Index) Similarities(q []float64) (map[int]float64, error) {
	if len(q) != x.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(q), x.dim)
	}
	out := make(map[int]float64, len(x.items))
	for _, it := range x.items {
		if len(it.Embedding) == 0 {
			continue
		}
		out[it.ID] = floats.Dot(q, it.Embedding)
	}
	return out, nil
}

// Search returns items whose title or tags contain any of the given
// keywords, ordered by id. Matching is case-insensitive.
func (x *Index) Search(keywords ...string) []Item {
	var out []Item
	for _, it := range x.items {
		hay := strings.ToLower(it.Title + " " + it.Tags)
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(hay, kw) {
				out = append(out, it)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Normalize returns a unit-length copy of v. A zero vector is returned as a
// zero vector.
func Normalize(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	n := floats.Norm(out, 2)
	if n == 0 || math.IsNaN(n) {
		return out
	}
	floats.Scale(1/n, out)
	return out
}
