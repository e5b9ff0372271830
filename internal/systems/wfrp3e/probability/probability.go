// Package probability computes exact outcome distributions for a dice pool.
//
// Every face of every die is equally likely, so the distribution of net
// successes and net boons is the convolution of the per-die face
// distributions. Cancellation preserves both nets, so they fully describe
// the cancelled result.
package probability

import (
	"sort"

	"github.com/louisbranch/wfrp3e.dice/internal/core/check"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

// MaxDice bounds the pool size accepted for exact enumeration. It matches
// the largest single-kind count a roll accepts.
const MaxDice = die.MaxCount

// Outcome is a cancelled result reduced to its two nets.
type Outcome struct {
	NetSuccesses int
	NetBoons     int
}

// Weighted is an outcome with its probability.
type Weighted struct {
	Outcome
	Probability float64
}

// Distribution is the exact outcome distribution of a pool.
type Distribution struct {
	outcomes map[Outcome]float64
	meanSum  [len(symbolSlots)]float64
	dice     int
}

// symbolSlots fixes the order of meanSum.
var symbolSlots = [...]symbol.Symbol{
	symbol.Success, symbol.RighteousSuccess, symbol.Boon, symbol.Bane, symbol.Challenge,
	symbol.Delay, symbol.Exertion, symbol.SigmarsComet, symbol.ChaosStar,
}

// ForPool computes the distribution of the pool as it would be built now.
// The pool is not consumed.
func ForPool(p *pool.Pool) (Distribution, error) {
	terms, err := p.Build()
	if err != nil {
		return Distribution{}, err
	}
	return ForTerms(terms)
}

// ForTerms computes the distribution of the special dice and flat symbol
// modifiers in terms, nested groups included. Arithmetic terms do not affect
// symbols and are ignored.
func ForTerms(terms []term.Term) (Distribution, error) {
	counts := map[die.Kind]int{}
	var flat symbol.Vector
	if err := collect(terms, counts, &flat); err != nil {
		return Distribution{}, err
	}
	return ForCounts(counts, flat)
}

func collect(terms []term.Term, counts map[die.Kind]int, flat *symbol.Vector) error {
	for _, t := range terms {
		switch t := t.(type) {
		case term.Die:
			if err := die.New(t.Kind, t.Count).Validate(); err != nil {
				return err
			}
			counts[t.Kind] += t.Count
		case term.Symbols:
			*flat = flat.Add(t.Vector)
		case term.Group:
			if err := collect(t.Terms, counts, flat); err != nil {
				return err
			}
		}
	}
	return nil
}

// ForCounts computes the distribution for die counts plus a flat modifier.
func ForCounts(counts map[die.Kind]int, flat symbol.Vector) (Distribution, error) {
	total := 0
	for kind, n := range counts {
		if err := die.New(kind, n).Validate(); err != nil {
			return Distribution{}, err
		}
		total += n
	}
	if total > MaxDice {
		return Distribution{}, wfrp3e.Validationf(nil, "pool of %d dice exceeds the %d dice limit", total, MaxDice)
	}

	folded := symbol.Aggregate(flat)
	d := Distribution{
		outcomes: map[Outcome]float64{{
			NetSuccesses: folded.NetSuccesses(),
			NetBoons:     folded.NetBoons(),
		}: 1},
		dice: total,
	}
	for i, s := range symbolSlots {
		d.meanSum[i] = float64(folded.Get(s))
	}

	for _, kind := range die.Kinds {
		faces := die.Faces(kind)
		step := faceDistribution(faces)
		for i := 0; i < counts[kind]; i++ {
			d.outcomes = convolve(d.outcomes, step)
			for j, s := range symbolSlots {
				d.meanSum[j] += faceMean(faces, s)
			}
		}
	}
	return d, nil
}

// faceDistribution reduces a face table to its outcome probabilities, with
// righteous successes counted as successes.
func faceDistribution(faces []die.Face) map[Outcome]float64 {
	dist := make(map[Outcome]float64, len(faces))
	p := 1 / float64(len(faces))
	for _, f := range faces {
		v := symbol.Aggregate(f.Symbols)
		dist[Outcome{NetSuccesses: v.NetSuccesses(), NetBoons: v.NetBoons()}] += p
	}
	return dist
}

// faceMean is the expected count of s on one die, righteous successes folded
// into successes.
func faceMean(faces []die.Face, s symbol.Symbol) float64 {
	sum := 0
	for _, f := range faces {
		sum += symbol.Aggregate(f.Symbols).Get(s)
	}
	return float64(sum) / float64(len(faces))
}

func convolve(a, b map[Outcome]float64) map[Outcome]float64 {
	out := make(map[Outcome]float64, len(a)*len(b))
	for oa, pa := range a {
		for ob, pb := range b {
			out[Outcome{
				NetSuccesses: oa.NetSuccesses + ob.NetSuccesses,
				NetBoons:     oa.NetBoons + ob.NetBoons,
			}] += pa * pb
		}
	}
	return out
}

// Dice returns the number of dice in the distribution.
func (d Distribution) Dice() int {
	return d.dice
}

// Probability returns the probability of exactly o.
func (d Distribution) Probability(o Outcome) float64 {
	return d.outcomes[o]
}

// Outcomes returns every reachable outcome, ordered by net successes then
// net boons.
func (d Distribution) Outcomes() []Weighted {
	out := make([]Weighted, 0, len(d.outcomes))
	for o, p := range d.outcomes {
		out = append(out, Weighted{Outcome: o, Probability: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NetSuccesses != out[j].NetSuccesses {
			return out[i].NetSuccesses < out[j].NetSuccesses
		}
		return out[i].NetBoons < out[j].NetBoons
	})
	return out
}

// SuccessChance is the probability that the check passes with at least
// required net successes. Required is raised to at least one.
func (d Distribution) SuccessChance(required int) float64 {
	return d.sum(func(o Outcome) bool {
		return check.Check(o.NetSuccesses, required).Success
	})
}

// BoonChance is the probability of at least n net boons after cancellation.
func (d Distribution) BoonChance(n int) float64 {
	return d.sum(func(o Outcome) bool { return o.NetBoons >= n })
}

// BaneChance is the probability of at least n net banes after cancellation.
func (d Distribution) BaneChance(n int) float64 {
	return d.sum(func(o Outcome) bool { return -o.NetBoons >= n })
}

// Mean returns the expected count of s before cancellation, with righteous
// successes counted as successes.
func (d Distribution) Mean(s symbol.Symbol) float64 {
	for i, slot := range symbolSlots {
		if slot == s {
			return d.meanSum[i]
		}
	}
	return 0
}

// ExpectedNetSuccesses is the mean of net successes.
func (d Distribution) ExpectedNetSuccesses() float64 {
	return d.Mean(symbol.Success) - d.Mean(symbol.Challenge)
}

// ExpectedNetBoons is the mean of net boons.
func (d Distribution) ExpectedNetBoons() float64 {
	return d.Mean(symbol.Boon) - d.Mean(symbol.Bane)
}

func (d Distribution) sum(match func(Outcome) bool) float64 {
	total := 0.0
	for o, p := range d.outcomes {
		if match(o) {
			total += p
		}
	}
	return total
}
