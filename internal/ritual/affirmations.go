// Package ritual implements the daily check-in: challenge issuance on
// activity signals, response verification over direct messages, and the
// per-user channel locks both sides drive.
package ritual

import (
	"fmt"
	"math/rand/v2"

	"github.com/BurntSushi/toml"
)

// DefaultAffirmations is the built-in phrase set, used when no phrase file
// is configured.
var DefaultAffirmations = []string{
	"I will manage my risk.",
	"I will stick to my trading plan.",
	"I will not let FOMO drive my decisions.",
	"Patience is key to profitable trading.",
	"I trade based on strategy, not emotion.",
	"I accept the risk before entering a trade.",
	"I will protect my capital.",
	"I will not revenge trade.",
	"I am disciplined in my approach.",
	"I learn from both wins and losses.",
}

// Affirmations is the phrase set challenges are drawn from.
type Affirmations struct {
	phrases []string
}

// NewAffirmations builds a phrase set from the given phrases.
func NewAffirmations(phrases []string) (*Affirmations, error) {
	if len(phrases) == 0 {
		return nil, fmt.Errorf("affirmations: empty phrase set")
	}
	cp := make([]string, len(phrases))
	copy(cp, phrases)
	return &Affirmations{phrases: cp}, nil
}

// affirmationsFile is the TOML shape of a phrase file:
//
//	phrases = [
//	    "I will manage my risk.",
//	]
type affirmationsFile struct {
	Phrases []string `toml:"phrases"`
}

// LoadAffirmations reads a phrase set from a TOML file.
func LoadAffirmations(path string) (*Affirmations, error) {
	var f affirmationsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("affirmations: decode %s: %w", path, err)
	}
	if len(f.Phrases) == 0 {
		return nil, fmt.Errorf("affirmations: %s contains no phrases", path)
	}
	return NewAffirmations(f.Phrases)
}

// Pick selects a phrase uniformly at random.
func (a *Affirmations) Pick() string {
	return a.phrases[rand.IntN(len(a.phrases))]
}

// Len returns the number of phrases in the set.
func (a *Affirmations) Len() int {
	return len(a.phrases)
}
