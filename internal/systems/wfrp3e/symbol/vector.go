package symbol

import (
	"fmt"
	"strings"
)

// Vector is a fixed set of symbol counters. Counters may be negative while a
// flat adjustment is being applied; dice faces only carry non-negative counts.
type Vector struct {
	Successes          int `json:"successes"`
	RighteousSuccesses int `json:"righteousSuccesses"`
	Boons              int `json:"boons"`
	Banes              int `json:"banes"`
	Challenges         int `json:"challenges"`
	Delays             int `json:"delays"`
	Exertions          int `json:"exertions"`
	SigmarsComets      int `json:"sigmarsComets"`
	ChaosStars         int `json:"chaosStars"`
}

// Of returns a vector with n of a single symbol.
func Of(s Symbol, n int) Vector {
	return Vector{}.With(s, n)
}

// Get returns the counter for s.
func (v Vector) Get(s Symbol) int {
	switch s {
	case Success:
		return v.Successes
	case RighteousSuccess:
		return v.RighteousSuccesses
	case Boon:
		return v.Boons
	case Bane:
		return v.Banes
	case Challenge:
		return v.Challenges
	case Delay:
		return v.Delays
	case Exertion:
		return v.Exertions
	case SigmarsComet:
		return v.SigmarsComets
	case ChaosStar:
		return v.ChaosStars
	default:
		return 0
	}
}

// With returns a copy of v with the counter for s set to n.
func (v Vector) With(s Symbol, n int) Vector {
	switch s {
	case Success:
		v.Successes = n
	case RighteousSuccess:
		v.RighteousSuccesses = n
	case Boon:
		v.Boons = n
	case Bane:
		v.Banes = n
	case Challenge:
		v.Challenges = n
	case Delay:
		v.Delays = n
	case Exertion:
		v.Exertions = n
	case SigmarsComet:
		v.SigmarsComets = n
	case ChaosStar:
		v.ChaosStars = n
	}
	return v
}

// Add returns the component-wise sum of v and o.
func (v Vector) Add(o Vector) Vector {
	return Vector{
		Successes:          v.Successes + o.Successes,
		RighteousSuccesses: v.RighteousSuccesses + o.RighteousSuccesses,
		Boons:              v.Boons + o.Boons,
		Banes:              v.Banes + o.Banes,
		Challenges:         v.Challenges + o.Challenges,
		Delays:             v.Delays + o.Delays,
		Exertions:          v.Exertions + o.Exertions,
		SigmarsComets:      v.SigmarsComets + o.SigmarsComets,
		ChaosStars:         v.ChaosStars + o.ChaosStars,
	}
}

// IsZero reports whether every counter is zero.
func (v Vector) IsZero() bool {
	return v == Vector{}
}

// Aggregate sums vectors into one pool-level vector. Righteous successes are
// folded into Successes as well as kept in RighteousSuccesses, so the result
// satisfies Successes = Σ successes + Σ righteous successes.
func Aggregate(vectors ...Vector) Vector {
	var sum Vector
	for _, v := range vectors {
		sum = sum.Add(v)
	}
	sum.Successes += sum.RighteousSuccesses
	return sum
}

// Cancel nets successes against challenges and boons against banes. It must
// run once on an aggregated vector, never per die. The other five counters
// pass through unchanged.
func (v Vector) Cancel() Vector {
	v.Successes, v.Challenges = cancelPair(v.Successes, v.Challenges)
	v.Boons, v.Banes = cancelPair(v.Boons, v.Banes)
	return v
}

func cancelPair(positive, negative int) (int, int) {
	if positive < negative {
		return 0, negative - positive
	}
	return positive - negative, 0
}

// NetSuccesses returns successes minus challenges.
func (v Vector) NetSuccesses() int {
	return v.Successes - v.Challenges
}

// NetBoons returns boons minus banes.
func (v Vector) NetBoons() int {
	return v.Boons - v.Banes
}

// String renders the non-zero counters, e.g. "2 successes, 1 boons".
func (v Vector) String() string {
	parts := make([]string, 0, len(All))
	for _, s := range All {
		if n := v.Get(s); n != 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, s))
		}
	}
	if len(parts) == 0 {
		return "no symbols"
	}
	return strings.Join(parts, ", ")
}
