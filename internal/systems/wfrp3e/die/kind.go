// Package die defines the seven WFRP3e special dice, their face tables and
// the rolling of a single die.
package die

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
)

// Kind identifies one of the seven special dice. The zero value is invalid.
type Kind int

const (
	KindUnspecified Kind = iota
	Characteristic
	Fortune
	Expertise
	Conservative
	Reckless
	Challenge
	Misfortune
)

// Kinds lists every valid kind in canonical pool order.
var Kinds = []Kind{
	Characteristic,
	Fortune,
	Expertise,
	Conservative,
	Reckless,
	Challenge,
	Misfortune,
}

// String returns the lower-case die name.
func (k Kind) String() string {
	switch k {
	case Characteristic:
		return "characteristic"
	case Fortune:
		return "fortune"
	case Expertise:
		return "expertise"
	case Conservative:
		return "conservative"
	case Reckless:
		return "reckless"
	case Challenge:
		return "challenge"
	case Misfortune:
		return "misfortune"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Code returns the single-letter shorthand code, or 0 for an invalid kind.
func (k Kind) Code() byte {
	switch k {
	case Characteristic:
		return 'a'
	case Fortune:
		return 'f'
	case Expertise:
		return 'e'
	case Conservative:
		return 'o'
	case Reckless:
		return 'r'
	case Challenge:
		return 'h'
	case Misfortune:
		return 'm'
	default:
		return 0
	}
}

// Sides returns the face count, or 0 for an invalid kind.
func (k Kind) Sides() int {
	switch k {
	case Characteristic:
		return 8
	case Fortune:
		return 6
	case Expertise:
		return 6
	case Conservative:
		return 10
	case Reckless:
		return 10
	case Challenge:
		return 8
	case Misfortune:
		return 6
	default:
		return 0
	}
}

// Valid reports whether k is one of the seven dice.
func (k Kind) Valid() bool {
	return k >= Characteristic && k <= Misfortune
}

// Opposing reports whether the die works against the acting character.
func (k Kind) Opposing() bool {
	return k == Challenge || k == Misfortune
}

// KindFromCode resolves a shorthand letter. Unknown letters fail with an
// UNKNOWN_DIE_TYPE error naming the character.
func KindFromCode(code byte) (Kind, error) {
	switch code {
	case 'a':
		return Characteristic, nil
	case 'f':
		return Fortune, nil
	case 'e':
		return Expertise, nil
	case 'o':
		return Conservative, nil
	case 'r':
		return Reckless, nil
	case 'h':
		return Challenge, nil
	case 'm':
		return Misfortune, nil
	default:
		return KindUnspecified, UnknownKindError(string(code))
	}
}

// ParseKind resolves a die name, ignoring case and surrounding space. A
// single shorthand letter is accepted too.
func ParseKind(name string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if len(normalized) == 1 {
		if kind, err := KindFromCode(normalized[0]); err == nil {
			return kind, nil
		}
	}
	for _, kind := range Kinds {
		if kind.String() == normalized {
			return kind, nil
		}
	}
	return KindUnspecified, UnknownKindError(name)
}

// UnknownKindError builds the UNKNOWN_DIE_TYPE error for name, suggesting the
// closest die name when one is near enough to be a typo.
func UnknownKindError(name string) error {
	message := fmt.Sprintf("unknown die type %q", name)
	metadata := map[string]string{wfrp3e.MetadataDieType: name}
	if suggestion := suggest(name); suggestion != "" {
		message += fmt.Sprintf(" (did you mean %q?)", suggestion)
		metadata["suggestion"] = suggestion
	}
	return apperrors.WithMetadata(apperrors.CodeUnknownDieType, message, metadata)
}

// suggest returns the die name within a small edit distance of name.
func suggest(name string) string {
	token := strings.ToLower(strings.TrimSpace(name))
	if len(token) < 3 {
		return ""
	}
	type candidate struct {
		name string
		dist int
	}
	candidates := make([]candidate, 0, len(Kinds))
	for _, kind := range Kinds {
		dist := levenshtein.ComputeDistance(token, kind.String())
		if dist <= suggestionLimit(len(kind.String())) {
			candidates = append(candidates, candidate{name: kind.String(), dist: dist})
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})
	return candidates[0].name
}

func suggestionLimit(length int) int {
	switch {
	case length <= 6:
		return 1
	case length <= 10:
		return 2
	default:
		return 3
	}
}
