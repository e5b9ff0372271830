// Package pool assembles the dice and flat symbol modifiers of one roll.
//
// A Pool is edited sequentially, possibly leaving counts negative while a
// user is still adjusting it, and is then built into a term list and rolled
// once. A reroll starts from Clone.
package pool

import (
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

// Adjustment is a flat symbol modifier added without a die.
// An empty Label marks the per-symbol adjustment set by SetSymbolAdjustment.
type Adjustment struct {
	Label  string
	Symbol symbol.Symbol
	Value  int
}

// DisplayLabel returns Label, or the symbol label when Label is empty.
func (a Adjustment) DisplayLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Symbol.Label()
}

// Pool is a mutable multiset of die counts plus flat symbol adjustments.
// It is not safe for concurrent use.
type Pool struct {
	counts      map[die.Kind]int
	adjustments []Adjustment
	context     CheckContext
	unknown     []string
	rolled      bool
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{counts: make(map[die.Kind]int, len(die.Kinds))}
}

// Context returns the check context the pool was derived from.
func (p *Pool) Context() CheckContext {
	return p.context.clone()
}

// SetContext replaces the check context without touching counts.
func (p *Pool) SetContext(c CheckContext) {
	p.context = c.clone()
}

// Count returns the requested count for kind.
func (p *Pool) Count(kind die.Kind) int {
	return p.counts[kind]
}

// Counts returns a copy of every non-zero count.
func (p *Pool) Counts() map[die.Kind]int {
	out := make(map[die.Kind]int, len(p.counts))
	for kind, n := range p.counts {
		if n != 0 {
			out[kind] = n
		}
	}
	return out
}

// SetCount sets the requested count for kind. Counts outside
// 0..die.MaxCount are rejected.
func (p *Pool) SetCount(kind die.Kind, n int) error {
	if !kind.Valid() {
		return die.UnknownKindError(kind.String())
	}
	if err := die.CountError(kind, n); err != nil {
		return err
	}
	p.counts[kind] = n
	return nil
}

// AdjustCount adds delta to the count for kind. The count may go negative
// while the pool is edited; Build rejects it. A count beyond die.MaxCount in
// either direction is rejected here and leaves the pool unchanged.
func (p *Pool) AdjustCount(kind die.Kind, delta int) error {
	if !kind.Valid() {
		return die.UnknownKindError(kind.String())
	}
	if delta > die.MaxCount || delta < -die.MaxCount {
		return die.CountError(kind, delta)
	}
	n := p.counts[kind] + delta
	if n > die.MaxCount || n < -die.MaxCount {
		return die.CountError(kind, n)
	}
	p.counts[kind] = n
	return nil
}

// SetCountNamed resolves name with die.ParseKind and sets its count. An
// unknown name fails here and also makes every later Build fail.
func (p *Pool) SetCountNamed(name string, n int) error {
	kind, err := p.resolve(name)
	if err != nil {
		return err
	}
	return p.SetCount(kind, n)
}

// AdjustCountNamed is AdjustCount by die name.
func (p *Pool) AdjustCountNamed(name string, delta int) error {
	kind, err := p.resolve(name)
	if err != nil {
		return err
	}
	return p.AdjustCount(kind, delta)
}

func (p *Pool) resolve(name string) (die.Kind, error) {
	kind, err := die.ParseKind(name)
	if err != nil {
		p.unknown = append(p.unknown, name)
		return die.KindUnspecified, err
	}
	return kind, nil
}

// SymbolAdjustment returns the sum of every adjustment of s.
func (p *Pool) SymbolAdjustment(s symbol.Symbol) int {
	total := 0
	for _, a := range p.adjustments {
		if a.Symbol == s {
			total += a.Value
		}
	}
	return total
}

// SetSymbolAdjustment sets the unlabeled flat modifier for s. Setting zero
// removes it.
func (p *Pool) SetSymbolAdjustment(s symbol.Symbol, n int) error {
	if !s.Valid() {
		return wfrp3e.Validationf(nil, "unknown symbol %s", s)
	}
	for i, a := range p.adjustments {
		if a.Label == "" && a.Symbol == s {
			if n == 0 {
				p.adjustments = append(p.adjustments[:i], p.adjustments[i+1:]...)
			} else {
				p.adjustments[i].Value = n
			}
			return nil
		}
	}
	if n != 0 {
		p.adjustments = append(p.adjustments, Adjustment{Symbol: s, Value: n})
	}
	return nil
}

// AddSymbolAdjustment appends a labeled flat modifier, e.g. a talent granting
// one boon.
func (p *Pool) AddSymbolAdjustment(label string, s symbol.Symbol, n int) error {
	if !s.Valid() {
		return wfrp3e.Validationf(nil, "unknown symbol %s", s)
	}
	if n == 0 {
		return nil
	}
	p.adjustments = append(p.adjustments, Adjustment{Label: label, Symbol: s, Value: n})
	return nil
}

// Adjustments returns the flat modifiers in the order they were added.
func (p *Pool) Adjustments() []Adjustment {
	return append([]Adjustment(nil), p.adjustments...)
}

// Build expands the pool into terms: one die term per non-zero kind in
// canonical kind order, then the flat modifiers, all joined by +.
func (p *Pool) Build() ([]term.Term, error) {
	if len(p.unknown) > 0 {
		return nil, die.UnknownKindError(p.unknown[0])
	}
	terms := make([]term.Term, 0, len(die.Kinds)+len(p.adjustments))
	for _, kind := range die.Kinds {
		n := p.counts[kind]
		if err := die.CountError(kind, n); err != nil {
			return nil, err
		}
		if n > 0 {
			terms = append(terms, term.Die{Kind: kind, Count: n})
		}
	}
	for _, a := range p.adjustments {
		terms = append(terms, term.Symbols{Label: a.DisplayLabel(), Vector: symbol.Of(a.Symbol, a.Value)})
	}
	if len(terms) == 0 {
		return nil, wfrp3e.ErrEmptyPool
	}
	return term.Interleave(terms), nil
}

// MarkRolled consumes the pool. A pool can be rolled once.
func (p *Pool) MarkRolled() error {
	if p.rolled {
		return wfrp3e.Validationf(nil, "pool has already been rolled; clone it to reroll")
	}
	p.rolled = true
	return nil
}

// Rolled reports whether the pool has been consumed.
func (p *Pool) Rolled() bool {
	return p.rolled
}

// Clone copies counts, adjustments and context into a fresh, unrolled pool.
func (p *Pool) Clone() *Pool {
	c := New()
	for kind, n := range p.counts {
		c.counts[kind] = n
	}
	c.adjustments = append([]Adjustment(nil), p.adjustments...)
	c.context = p.context.clone()
	c.unknown = append([]string(nil), p.unknown...)
	return c
}

// restore resets p to the state captured in snapshot.
func (p *Pool) restore(snapshot *Pool) {
	p.counts = snapshot.counts
	p.adjustments = snapshot.adjustments
	p.context = snapshot.context
	p.unknown = snapshot.unknown
}
