package pool

import (
	"fmt"
	"strings"

	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
)

// ChallengeLevel is the difficulty of a check. Its value is the number of
// Challenge dice it adds to the pool.
type ChallengeLevel int

const (
	Simple ChallengeLevel = iota
	Easy
	Average
	Hard
	Daunting
	Heroic
)

var challengeLevelNames = []string{"simple", "easy", "average", "hard", "daunting", "heroic"}

func (l ChallengeLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("ChallengeLevel(%d)", int(l))
	}
	return challengeLevelNames[l]
}

// Valid reports whether l is between Simple and Heroic.
func (l ChallengeLevel) Valid() bool {
	return l >= Simple && l <= Heroic
}

// Dice returns the number of Challenge dice for l.
func (l ChallengeLevel) Dice() int {
	return int(l)
}

// ParseChallengeLevel resolves a level name, ignoring case.
func ParseChallengeLevel(name string) (ChallengeLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i, n := range challengeLevelNames {
		if n == normalized {
			return ChallengeLevel(i), nil
		}
	}
	return Simple, wfrp3e.Validationf(nil, "unknown challenge level %q", name)
}

// CheckContext describes the check a pool was derived from. It is input for
// FromCheck and for triggered effects; the evaluator never reads it.
type CheckContext struct {
	Characteristic string
	Rating         int
	ChallengeLevel ChallengeLevel
	// Stance is positive for conservative and negative for reckless.
	Stance     int
	Training   int
	Fortune    int
	Misfortune int
	// Effects are references to the triggered effects selected for the check.
	Effects []string
}

func (c CheckContext) clone() CheckContext {
	c.Effects = append([]string(nil), c.Effects...)
	return c
}

// Validate rejects ratings and dice outside 0..die.MaxCount, a stance beyond
// the rating bound and unknown challenge levels.
func (c CheckContext) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"rating", c.Rating},
		{"training", c.Training},
		{"fortune", c.Fortune},
		{"misfortune", c.Misfortune},
	}
	for _, f := range fields {
		if f.value < 0 {
			return wfrp3e.Validationf(nil, "check %s must not be negative, got %d", f.name, f.value)
		}
		if f.value > die.MaxCount {
			return wfrp3e.Validationf(nil, "check %s %d exceeds the limit of %d", f.name, f.value, die.MaxCount)
		}
	}
	if c.Stance > die.MaxCount || c.Stance < -die.MaxCount {
		return wfrp3e.Validationf(nil, "check stance %d exceeds the limit of %d", c.Stance, die.MaxCount)
	}
	if !c.ChallengeLevel.Valid() {
		return wfrp3e.Validationf(nil, "invalid challenge level %d", int(c.ChallengeLevel))
	}
	return nil
}

// FromCheck derives a pool from a check. Characteristic dice equal to the
// stance are converted into Conservative (stance > 0) or Reckless
// (stance < 0) dice, capped at the rating.
func FromCheck(c CheckContext) (*Pool, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	converted := c.Stance
	if converted < 0 {
		converted = -converted
	}
	converted = min(converted, c.Rating)

	p := New()
	p.context = c.clone()
	p.counts[die.Characteristic] = c.Rating - converted
	switch {
	case c.Stance > 0:
		p.counts[die.Conservative] = converted
	case c.Stance < 0:
		p.counts[die.Reckless] = converted
	}
	p.counts[die.Expertise] = c.Training
	p.counts[die.Fortune] = c.Fortune
	p.counts[die.Challenge] = c.ChallengeLevel.Dice()
	p.counts[die.Misfortune] = c.Misfortune
	return p, nil
}
