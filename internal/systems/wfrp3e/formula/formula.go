// Package formula turns shorthand strings and formula text into term lists.
package formula

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

// ExpandShorthand turns a string of die-kind letters into one die term per
// letter joined by + operators. "oor" yields two Conservative dice and one
// Reckless die. Letters are case-insensitive and spaces are ignored.
func ExpandShorthand(shorthand string) ([]term.Term, error) {
	dice := make([]term.Term, 0, len(shorthand))
	for _, r := range shorthand {
		if unicode.IsSpace(r) {
			continue
		}
		if r > unicode.MaxASCII {
			return nil, die.UnknownKindError(string(r))
		}
		kind, err := die.KindFromCode(byte(unicode.ToLower(r)))
		if err != nil {
			return nil, err
		}
		dice = append(dice, term.Die{Kind: kind, Count: 1})
	}
	if len(dice) == 0 {
		return nil, wfrp3e.Validationf(nil, "shorthand must name at least one die")
	}
	return term.Interleave(dice), nil
}

// Expand replaces every Shorthand term, including those inside groups, with
// its expanded dice. Terms that are already expanded pass through untouched,
// so Expand(Expand(x)) equals Expand(x).
func Expand(terms []term.Term) ([]term.Term, error) {
	out := make([]term.Term, 0, len(terms))
	for _, t := range terms {
		switch t := t.(type) {
		case term.Shorthand:
			expanded, err := ExpandShorthand(t.Codes)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
		case term.Group:
			inner, err := Expand(t.Terms)
			if err != nil {
				return nil, err
			}
			out = append(out, term.Group{Terms: inner})
		default:
			out = append(out, t)
		}
	}
	return out, nil
}

// Parse reads a formula such as "2do + 1de + [oor] + (1d6 * 2) - 1".
//
//   - Nd<letter> is N special dice of the lettered kind (d<letter> means one).
//   - NdS is N ordinary S-sided dice.
//   - [letters] and bare letter runs are shorthand.
//   - Parentheses form nested groups, evaluated as their own roll.
//
// The result is fully expanded and structurally checked: operands and
// operators alternate (a leading or doubled - is unary), and special dice
// and symbol terms may only be added.
func Parse(input string) ([]term.Term, error) {
	p := &parser{input: input}
	terms, err := p.parseTerms(0)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, malformed(fmt.Sprintf("unexpected %q at offset %d", p.input[p.pos], p.pos))
	}
	expanded, err := Expand(terms)
	if err != nil {
		return nil, err
	}
	if err := Check(expanded); err != nil {
		return nil, err
	}
	return expanded, nil
}

// Check validates the structure of an expanded term list.
func Check(terms []term.Term) error {
	if len(terms) == 0 {
		return malformed("formula is empty")
	}
	expectOperand := true
	var prev term.Term
	for i, t := range terms {
		switch t := t.(type) {
		case term.Operator:
			if !t.Valid() {
				return malformed(fmt.Sprintf("unsupported operator %q", t.Op))
			}
			if expectOperand && t.Op != '-' && t.Op != '+' {
				return malformed(fmt.Sprintf("operator %q at position %d has no left operand", t.Op, i))
			}
			expectOperand = true
		case term.Shorthand:
			return malformed("shorthand must be expanded before evaluation")
		default:
			if !expectOperand {
				return malformed(fmt.Sprintf("missing operator before %s", t.Formula()))
			}
			if addOnly(t) {
				if op, ok := prev.(term.Operator); ok && op.Op != '+' {
					return wfrp3e.Validationf(nil, "%s can only be added, not combined with %q", t.Formula(), op.Op)
				}
				if next, ok := nextOperator(terms, i); ok && next != '+' {
					return wfrp3e.Validationf(nil, "%s can only be added, not combined with %q", t.Formula(), next)
				}
			}
			if g, ok := t.(term.Group); ok {
				if err := Check(g.Terms); err != nil {
					return err
				}
			}
			expectOperand = false
		}
		prev = t
	}
	if expectOperand {
		return malformed("formula ends with an operator")
	}
	return nil
}

func addOnly(t term.Term) bool {
	switch t.(type) {
	case term.Die, term.Symbols:
		return true
	default:
		return false
	}
}

func nextOperator(terms []term.Term, i int) (byte, bool) {
	if i+1 >= len(terms) {
		return 0, false
	}
	op, ok := terms[i+1].(term.Operator)
	return op.Op, ok
}

type parser struct {
	input string
	pos   int
}

const maxGroupDepth = 16

func (p *parser) done() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) parseTerms(depth int) ([]term.Term, error) {
	var terms []term.Term
	for {
		p.skipSpace()
		if p.done() {
			return terms, nil
		}
		c := p.peek()
		switch {
		case c == ')':
			return terms, nil
		case c == '(':
			if depth >= maxGroupDepth {
				return nil, malformed("formula nested too deeply")
			}
			p.pos++
			inner, err := p.parseTerms(depth + 1)
			if err != nil {
				return nil, err
			}
			if p.peek() != ')' {
				return nil, malformed(fmt.Sprintf("missing ) at offset %d", p.pos))
			}
			p.pos++
			terms = append(terms, term.Group{Terms: inner})
		case c == '[':
			p.pos++
			end := strings.IndexByte(p.input[p.pos:], ']')
			if end < 0 {
				return nil, malformed("missing ] after shorthand")
			}
			terms = append(terms, term.Shorthand{Codes: p.input[p.pos : p.pos+end]})
			p.pos += end + 1
		case c == '+' || c == '-' || c == '*' || c == '/':
			p.pos++
			terms = append(terms, term.Operator{Op: c})
		case isDigit(c) || c == '.':
			t, err := p.parseNumberOrDice()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case p.atDiceMarker():
			p.pos++
			t, err := p.parseDice(1)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		case isLetter(c):
			start := p.pos
			for !p.done() && isLetter(p.peek()) {
				p.pos++
			}
			terms = append(terms, term.Shorthand{Codes: p.input[start:p.pos]})
		default:
			return nil, malformed(fmt.Sprintf("unexpected %q at offset %d", c, p.pos))
		}
	}
}

func (p *parser) parseNumberOrDice() (term.Term, error) {
	start := p.pos
	for !p.done() && (isDigit(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	literal := p.input[start:p.pos]
	if p.atDiceMarker() {
		count, err := strconv.Atoi(literal)
		if errors.Is(err, strconv.ErrRange) {
			return nil, tooManyDice(literal)
		}
		if err != nil {
			return nil, malformed(fmt.Sprintf("dice count %q must be a whole number", literal))
		}
		p.pos++
		return p.parseDice(count)
	}
	value, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil, malformed(fmt.Sprintf("invalid number %q", literal))
	}
	return term.Number{Value: value}, nil
}

// parseDice reads what follows the d of a dice term.
func (p *parser) parseDice(count int) (term.Term, error) {
	if count <= 0 {
		return nil, malformed(fmt.Sprintf("dice count must be positive, got %d", count))
	}
	if count > die.MaxCount {
		return nil, tooManyDice(strconv.Itoa(count))
	}
	c := p.peek()
	if isLetter(c) {
		p.pos++
		kind, err := die.KindFromCode(byte(unicode.ToLower(rune(c))))
		if err != nil {
			return nil, err
		}
		if isLetter(p.peek()) {
			return nil, malformed(fmt.Sprintf("special dice take one letter, got %q", p.input[p.pos-1:p.pos+1]))
		}
		return term.Die{Kind: kind, Count: count}, nil
	}
	start := p.pos
	for !p.done() && isDigit(p.peek()) {
		p.pos++
	}
	sides, err := strconv.Atoi(p.input[start:p.pos])
	if err != nil || sides <= 0 {
		return nil, malformed(fmt.Sprintf("dice sides %q must be a positive whole number", p.input[start:p.pos]))
	}
	return term.Standard{Count: count, Sides: sides}, nil
}

// atDiceMarker reports whether the parser sits on the d of a dice term.
func (p *parser) atDiceMarker() bool {
	c := p.peek()
	if c != 'd' && c != 'D' || p.pos+1 >= len(p.input) {
		return false
	}
	next := p.input[p.pos+1]
	return isDigit(next) || isLetter(next)
}

func (p *parser) skipSpace() {
	for !p.done() && unicode.IsSpace(rune(p.peek())) {
		p.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func malformed(message string) error {
	return wfrp3e.Validationf(nil, "malformed formula: %s", message)
}

func tooManyDice(count string) error {
	return wfrp3e.Validationf(nil, "dice count %s exceeds the limit of %d", count, die.MaxCount)
}
