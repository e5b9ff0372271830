// Package term defines the typed terms a roll formula is made of.
//
// A formula is an ordered slice of Terms. Special dice, ordinary numbered
// dice, numbers, flat symbol modifiers and nested groups alternate with
// Operator terms. Shorthand terms are placeholders that the formula package
// expands into dice before evaluation.
package term

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

// Term is one element of a formula.
type Term interface {
	// Formula renders the term back into formula syntax.
	Formula() string
	term()
}

// Die is a group of special dice of one kind.
type Die struct {
	Kind  die.Kind
	Count int
}

// Formula implements Term.
func (d Die) Formula() string {
	return fmt.Sprintf("%dd%c", d.Count, d.Kind.Code())
}

func (Die) term() {}

// Standard is a group of ordinary numbered dice, e.g. 2d6.
type Standard struct {
	Count int
	Sides int
}

// Formula implements Term.
func (s Standard) Formula() string {
	return fmt.Sprintf("%dd%d", s.Count, s.Sides)
}

func (Standard) term() {}

// Number is a literal.
type Number struct {
	Value float64
}

// Formula implements Term.
func (n Number) Formula() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

func (Number) term() {}

// Operator is one of + - * /.
type Operator struct {
	Op byte
}

// Plus is the addition operator joining pool terms.
var Plus = Operator{Op: '+'}

// Formula implements Term.
func (o Operator) Formula() string {
	return string(o.Op)
}

func (Operator) term() {}

// Valid reports whether Op is a supported operator.
func (o Operator) Valid() bool {
	switch o.Op {
	case '+', '-', '*', '/':
		return true
	default:
		return false
	}
}

// Symbols is a flat symbol modifier that adds to the pool without a die.
type Symbols struct {
	Label  string
	Vector symbol.Vector
}

// Formula implements Term.
func (s Symbols) Formula() string {
	label := s.Label
	if label == "" {
		label = s.Vector.String()
	}
	return "{" + label + "}"
}

func (Symbols) term() {}

// Group is a parenthesized sub-formula evaluated as its own nested roll.
type Group struct {
	Terms []Term
}

// Formula implements Term.
func (g Group) Formula() string {
	return "(" + Join(g.Terms) + ")"
}

func (Group) term() {}

// Shorthand is an unexpanded string of die-kind letters, e.g. "oor".
type Shorthand struct {
	Codes string
}

// Formula implements Term.
func (s Shorthand) Formula() string {
	return "[" + s.Codes + "]"
}

func (Shorthand) term() {}

// Join renders terms as a formula string.
func Join(terms []Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, t.Formula())
	}
	return strings.Join(parts, " ")
}

// Interleave joins terms with Plus operators, never leaving a trailing one.
func Interleave(terms []Term) []Term {
	if len(terms) == 0 {
		return nil
	}
	out := make([]Term, 0, len(terms)*2-1)
	for i, t := range terms {
		if i > 0 {
			out = append(out, Plus)
		}
		out = append(out, t)
	}
	return out
}
