package affinity

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTopCandidates(t *testing.T) {
	m, err := New(
		map[string][]float64{"u1": {1, 0}},
		map[int][]float64{10: {0.5, 9}, 11: {2, 0}, 12: {2, 5}, 13: {1, 0}},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := m.TopCandidates("u1", 3)
	if err != nil {
		t.Fatalf("TopCandidates: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	// 11 and 12 tie at 2.0; lower id first.
	want := []int{11, 12, 13}
	for i, id := range want {
		if got[i].ContentID != id {
			t.Errorf("position %d: expected %d, got %d", i, id, got[i].ContentID)
		}
	}
}

func TestUnknownUser(t *testing.T) {
	m := Empty()
	_, err := m.TopCandidates("ghost", 10)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if m.HasUser("ghost") {
		t.Error("empty model should know no users")
	}
}

func TestNewRejectsMismatchedFactors(t *testing.T) {
	_, err := New(map[string][]float64{"u1": {1, 0}}, map[int][]float64{1: {1, 0, 0}})
	if err == nil {
		t.Error("expected error for mismatched factor counts")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("expected no error for missing model, got %v", err)
	}
	if m.Users() != 0 || m.Items() != 0 {
		t.Errorf("expected empty model, got %d users %d items", m.Users(), m.Items())
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "affinity_model.json")
	data := `{"factors":2,"user_factors":{"42":[1,1]},"item_factors":{"1":[1,0],"2":[0,3]}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	scores, err := m.Scores("42", 0)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if scores[1] != 1 || scores[2] != 3 {
		t.Errorf("unexpected scores %v", scores)
	}
}

func TestLoadRejectsBadItemKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "affinity_model.json")
	if err := os.WriteFile(path, []byte(`{"item_factors":{"abc":[1]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-numeric content id")
	}
}
