// Package arith evaluates the numeric part of a roll formula.
//
// The grammar is deliberately small: decimal numbers, unary minus and plus,
// the binary operators + - * / and parentheses. There are no identifiers,
// function calls or other operators, so evaluating a formula can never run
// anything but arithmetic.
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/") unary }
//	unary   = ("-" | "+") unary | primary
//	primary = number | "(" expr ")"
package arith

import (
	"fmt"
	"math"
	"strconv"

	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
)

// Expr is a parsed arithmetic expression.
type Expr interface {
	Eval() (float64, error)
}

type number float64

func (n number) Eval() (float64, error) { return float64(n), nil }

type negate struct{ operand Expr }

func (n negate) Eval() (float64, error) {
	v, err := n.operand.Eval()
	if err != nil {
		return 0, err
	}
	return -v, nil
}

type binary struct {
	op          byte
	left, right Expr
}

func (b binary) Eval() (float64, error) {
	l, err := b.left.Eval()
	if err != nil {
		return 0, err
	}
	r, err := b.right.Eval()
	if err != nil {
		return 0, err
	}
	var v float64
	switch b.op {
	case '+':
		v = l + r
	case '-':
		v = l - r
	case '*':
		v = l * r
	case '/':
		if r == 0 {
			return 0, nonNumeric("division by zero")
		}
		v = l / r
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nonNumeric(fmt.Sprintf("%g %c %g is not a finite number", l, b.op, r))
	}
	return v, nil
}

// Evaluate parses and evaluates input. Malformed input, division by zero and
// non-finite results fail with NON_NUMERIC_TOTAL.
func Evaluate(input string) (float64, error) {
	expr, err := Parse(input)
	if err != nil {
		return 0, err
	}
	return expr.Eval()
}

// Parse parses input without evaluating it.
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	p.skipSpace()
	if p.done() {
		return nil, nonNumeric("empty expression")
	}
	expr, err := p.expr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.done() {
		return nil, nonNumeric(fmt.Sprintf("unexpected %q at offset %d", p.input[p.pos], p.pos))
	}
	return expr, nil
}

type parser struct {
	input string
	pos   int
	depth int
}

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 64

func (p *parser) done() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for !p.done() && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) expr() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) term() (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binary{op: op, left: left, right: right}
	}
}

func (p *parser) unary() (Expr, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.pos++
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return negate{operand: operand}, nil
	case '+':
		p.pos++
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		return p.unary()
	default:
		return p.primary()
	}
}

func (p *parser) primary() (Expr, error) {
	p.skipSpace()
	if p.done() {
		return nil, nonNumeric("unexpected end of expression")
	}
	if p.peek() == '(' {
		p.pos++
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, nonNumeric(fmt.Sprintf("missing ) at offset %d", p.pos))
		}
		p.pos++
		return inner, nil
	}
	start := p.pos
	for !p.done() && (isDigit(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	if start == p.pos {
		return nil, nonNumeric(fmt.Sprintf("unexpected %q at offset %d", p.peek(), p.pos))
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNonNumericTotal, fmt.Sprintf("invalid number %q", p.input[start:p.pos]), err)
	}
	return number(v), nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > maxDepth {
		return nonNumeric("expression nested too deeply")
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func nonNumeric(message string) error {
	return apperrors.New(apperrors.CodeNonNumericTotal, message)
}
