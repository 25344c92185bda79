// Package affinity serves collaborative-filtering scores from a precomputed
// latent factor model.
package affinity

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
)

// ErrUserNotFound is returned when the model has no factors for a user.
var ErrUserNotFound = errors.New("user not found in affinity model")

// DefaultCandidates is the number of CF candidates returned per user.
const DefaultCandidates = 500

// Entry is a raw affinity score for one content item.
type Entry struct {
	ContentID int     `json:"content_id"`
	RawScore  float64 `json:"raw_score"`
}

// Model is an immutable factor model. The zero-size model returned by Empty
// knows no users.
type Model struct {
	factors int
	users   map[string][]float64
	items   map[int][]float64
	itemIDs []int
}

type modelFile struct {
	Factors     int                  `json:"factors"`
	UserFactors map[string][]float64 `json:"user_factors"`
	ItemFactors map[string][]float64 `json:"item_factors"`
}

// Empty returns a model with no users or items.
func Empty() *Model {
	return &Model{users: map[string][]float64{}, items: map[int][]float64{}}
}

// New builds a model from user and item factor vectors.
func New(users map[string][]float64, items map[int][]float64) (*Model, error) {
	m := &Model{
		users: make(map[string][]float64, len(users)),
		items: make(map[int][]float64, len(items)),
	}
	check := func(kind, key string, v []float64) error {
		if m.factors == 0 {
			m.factors = len(v)
		}
		if len(v) != m.factors {
			return fmt.Errorf("%s %s: expected %d factors, got %d", kind, key, m.factors, len(v))
		}
		return nil
	}
	for id, v := range users {
		if err := check("user", id, v); err != nil {
			return nil, err
		}
		m.users[id] = v
	}
	for id, v := range items {
		if err := check("item", strconv.Itoa(id), v); err != nil {
			return nil, err
		}
		m.items[id] = v
		m.itemIDs = append(m.itemIDs, id)
	}
	sort.Ints(m.itemIDs)
	return m, nil
}

// Load reads a JSON affinity model artifact. A missing file yields an empty
// model so the service can still answer content-only requests.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading affinity model: %w", err)
	}

	var f modelFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing affinity model: %w", err)
	}
	items := make(map[int][]float64, len(f.ItemFactors))
	for key, v := range f.ItemFactors {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("parsing affinity model: bad content id %q", key)
		}
		items[id] = v
	}
	m, err := New(f.UserFactors, items)
	if err != nil {
		return nil, fmt.Errorf("parsing affinity model: %w", err)
	}
	if f.Factors != 0 && m.factors != 0 && f.Factors != m.factors {
		return nil, fmt.Errorf("parsing affinity model: declared %d factors, vectors have %d", f.Factors, m.factors)
	}
	return m, nil
}

// Users returns the number of known users.
func (m *Model) Users() int { return len(m.users) }

// Items returns the number of items with factors.
func (m *Model) Items() int { return len(m.items) }

// HasUser reports whether the model has factors for userID.
func (m *Model) HasUser(userID string) bool {
	_, ok := m.users[userID]
	return ok
}

// TopCandidates ranks every item by dot(user, item) and returns the first n,
// highest score first with ties broken by ascending content id.
func (m *Model) TopCandidates(userID string, n int) ([]Entry, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if n <= 0 {
		n = DefaultCandidates
	}

	out := make([]Entry, 0, len(m.itemIDs))
	for _, id := range m.itemIDs {
		out = append(out, Entry{ContentID: id, RawScore: floats.Dot(u, m.items[id])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		return out[i].ContentID < out[j].ContentID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Scores is TopCandidates keyed by content id.
func (m *Model) Scores(userID string, n int) (map[int]float64, error) {
	entries, err := m.TopCandidates(userID, n)
	if err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(entries))
	for _, e := range entries {
		out[e.ContentID] = e.RawScore
	}
	return out, nil
}
