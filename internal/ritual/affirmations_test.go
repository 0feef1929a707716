package ritual

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestNewAffirmationsEmpty(t *testing.T) {
	if _, err := NewAffirmations(nil); err == nil {
		t.Fatal("expected error for empty phrase set")
	}
}

func TestPickReturnsMember(t *testing.T) {
	a, err := NewAffirmations(DefaultAffirmations)
	if err != nil {
		t.Fatalf("NewAffirmations: %v", err)
	}
	if a.Len() != len(DefaultAffirmations) {
		t.Errorf("Len() = %d, want %d", a.Len(), len(DefaultAffirmations))
	}
	for i := 0; i < 50; i++ {
		phrase := a.Pick()
		if !slices.Contains(DefaultAffirmations, phrase) {
			t.Fatalf("Pick() = %q, not in phrase set", phrase)
		}
	}
}

func TestLoadAffirmations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "affirmations.toml")
	content := `phrases = [
    "I will breathe before I reply.",
    "I will read twice and post once.",
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing phrase file: %v", err)
	}

	a, err := LoadAffirmations(path)
	if err != nil {
		t.Fatalf("LoadAffirmations: %v", err)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	if got := a.Pick(); got != "I will breathe before I reply." && got != "I will read twice and post once." {
		t.Errorf("Pick() = %q, not in file", got)
	}
}

func TestLoadAffirmationsErrors(t *testing.T) {
	if _, err := LoadAffirmations(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.toml")
	if err := os.WriteFile(empty, []byte("phrases = []"), 0o644); err != nil {
		t.Fatalf("writing phrase file: %v", err)
	}
	if _, err := LoadAffirmations(empty); err == nil {
		t.Error("expected error for empty phrase list")
	}
}
