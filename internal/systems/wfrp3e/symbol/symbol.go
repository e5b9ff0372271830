// Package symbol defines the narrative symbol vector produced by WFRP3e dice
// and the cancellation rule applied to a rolled pool.
package symbol

import (
	"fmt"
	"strings"
)

// Symbol names one of the nine counters of a Vector.
type Symbol int

const (
	Success Symbol = iota
	RighteousSuccess
	Boon
	Bane
	Challenge
	Delay
	Exertion
	SigmarsComet
	ChaosStar
)

// All lists every symbol in display order.
var All = []Symbol{
	Success,
	RighteousSuccess,
	Boon,
	Bane,
	Challenge,
	Delay,
	Exertion,
	SigmarsComet,
	ChaosStar,
}

// String returns the plural field name used in the export contract.
func (s Symbol) String() string {
	switch s {
	case Success:
		return "successes"
	case RighteousSuccess:
		return "righteousSuccesses"
	case Boon:
		return "boons"
	case Bane:
		return "banes"
	case Challenge:
		return "challenges"
	case Delay:
		return "delays"
	case Exertion:
		return "exertions"
	case SigmarsComet:
		return "sigmarsComets"
	case ChaosStar:
		return "chaosStars"
	default:
		return fmt.Sprintf("Symbol(%d)", int(s))
	}
}

// Label returns a human-readable singular label.
func (s Symbol) Label() string {
	switch s {
	case Success:
		return "Success"
	case RighteousSuccess:
		return "Righteous Success"
	case Boon:
		return "Boon"
	case Bane:
		return "Bane"
	case Challenge:
		return "Challenge"
	case Delay:
		return "Delay"
	case Exertion:
		return "Exertion"
	case SigmarsComet:
		return "Sigmar's Comet"
	case ChaosStar:
		return "Chaos Star"
	default:
		return s.String()
	}
}

// Valid reports whether s is one of the nine symbols.
func (s Symbol) Valid() bool {
	return s >= Success && s <= ChaosStar
}

var symbolsByName = func() map[string]Symbol {
	names := make(map[string]Symbol, len(All)*2)
	for _, s := range All {
		names[normalize(s.String())] = s
		names[normalize(s.Label())] = s
	}
	return names
}()

// Parse resolves a symbol name. Matching ignores case, spaces, underscores,
// hyphens and apostrophes, and accepts singular or plural forms, so
// "sigmars_comets", "Sigmar's Comet" and "sigmarsComets" are equivalent.
func Parse(name string) (Symbol, bool) {
	s, ok := symbolsByName[normalize(name)]
	return s, ok
}

func normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '_', '-', '\'':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
