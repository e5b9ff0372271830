// Package roll evaluates a term list into a numeric total and a cancelled
// symbol vector.
//
// Evaluation validates the whole formula before any die is drawn, rolls
// every special die once, totals the arithmetic part with a restricted
// evaluator, aggregates all symbols and cancels them exactly once. A Roll can
// be evaluated a single time; its results are published only when the whole
// evaluation succeeds.
package roll

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/louisbranch/wfrp3e.dice/internal/core/dice"
	"github.com/louisbranch/wfrp3e.dice/internal/core/random"
	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/arith"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/formula"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

const tracerName = "github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/roll"

// DiceGroup is the rolled results of one die term.
type DiceGroup struct {
	Kind    die.Kind
	Results []die.Result
}

// StandardGroup is the rolled results of one ordinary NdS term.
type StandardGroup struct {
	Sides   int
	Results []int
	Total   int
}

// Adjustment is a flat symbol modifier that was added to the roll.
type Adjustment struct {
	Label  string
	Symbol symbol.Symbol
	Value  int
}

// Negative reports whether the adjustment removes symbols.
func (a Adjustment) Negative() bool {
	return a.Value < 0
}

// Roll is a single-use evaluation of a term list.
type Roll struct {
	terms     []term.Term
	evaluated bool
	outcome   *outcome
}

type outcome struct {
	total       float64
	expression  string
	raw         symbol.Vector
	aggregate   symbol.Vector
	symbols     symbol.Vector
	dice        []DiceGroup
	standard    []StandardGroup
	adjustments []Adjustment
	steps       []Step
}

// New creates a roll over terms. Shorthand terms are expanded.
func New(terms []term.Term) (*Roll, error) {
	expanded, err := formula.Expand(terms)
	if err != nil {
		return nil, err
	}
	return &Roll{terms: expanded}, nil
}

// FromFormula parses input and creates a roll over it.
func FromFormula(input string) (*Roll, error) {
	terms, err := formula.Parse(input)
	if err != nil {
		return nil, err
	}
	return &Roll{terms: terms}, nil
}

// FromPool builds p and consumes it. A pool that fails to build is left
// unconsumed so the caller can fix it.
func FromPool(p *pool.Pool) (*Roll, error) {
	terms, err := p.Build()
	if err != nil {
		return nil, err
	}
	if err := p.MarkRolled(); err != nil {
		return nil, err
	}
	return &Roll{terms: terms}, nil
}

// Formula renders the roll's terms.
func (r *Roll) Formula() string {
	return term.Join(r.terms)
}

// Terms returns the expanded term list.
func (r *Roll) Terms() []term.Term {
	return append([]term.Term(nil), r.terms...)
}

// Evaluated reports whether Evaluate has been called.
func (r *Roll) Evaluated() bool {
	return r.evaluated
}

// Evaluate rolls every die with src and reduces the results. It can run once;
// later calls fail with ALREADY_EVALUATED and leave the first results intact.
// A failed first call still consumes the roll.
func (r *Roll) Evaluate(ctx context.Context, src random.Source) error {
	if r.evaluated {
		return apperrors.New(apperrors.CodeAlreadyEvaluated, "roll has already been evaluated")
	}
	r.evaluated = true

	_, span := otel.Tracer(tracerName).Start(ctx, "wfrp3e.roll.evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("wfrp3e.roll.formula", r.Formula()))

	out, err := evaluate(r.terms, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	out.aggregate = symbol.Aggregate(out.raw)
	out.symbols = out.aggregate.Cancel()
	out.steps = append(out.steps,
		Step{
			Code:    StepAggregate,
			Message: "Sum every die and modifier, folding righteous successes into successes",
			Data:    vectorData(out.aggregate),
		},
		Step{
			Code:    StepCancel,
			Message: "Cancel successes against challenges and boons against banes",
			Data:    vectorData(out.symbols),
		},
	)
	span.SetAttributes(
		attribute.Float64("wfrp3e.roll.total", out.total),
		attribute.Int("wfrp3e.roll.net_successes", out.symbols.NetSuccesses()),
	)
	r.outcome = out
	return nil
}

// Total returns the numeric total.
func (r *Roll) Total() (float64, error) {
	out, err := r.result()
	if err != nil {
		return 0, err
	}
	return out.total, nil
}

// Symbols returns the final, cancelled symbol vector.
func (r *Roll) Symbols() (symbol.Vector, error) {
	out, err := r.result()
	if err != nil {
		return symbol.Vector{}, err
	}
	return out.symbols, nil
}

// Aggregate returns the summed symbol vector before cancellation.
func (r *Roll) Aggregate() (symbol.Vector, error) {
	out, err := r.result()
	if err != nil {
		return symbol.Vector{}, err
	}
	return out.aggregate, nil
}

// Dice returns the rolled special dice, nested groups included, in formula
// order.
func (r *Roll) Dice() ([]DiceGroup, error) {
	out, err := r.result()
	if err != nil {
		return nil, err
	}
	groups := make([]DiceGroup, len(out.dice))
	for i, g := range out.dice {
		groups[i] = DiceGroup{Kind: g.Kind, Results: append([]die.Result(nil), g.Results...)}
	}
	return groups, nil
}

// Standard returns the rolled ordinary dice.
func (r *Roll) Standard() ([]StandardGroup, error) {
	out, err := r.result()
	if err != nil {
		return nil, err
	}
	return append([]StandardGroup(nil), out.standard...), nil
}

// Adjustments returns the flat symbol modifiers that were added.
func (r *Roll) Adjustments() ([]Adjustment, error) {
	out, err := r.result()
	if err != nil {
		return nil, err
	}
	return append([]Adjustment(nil), out.adjustments...), nil
}

// Expression returns the arithmetic expression the total was computed from.
func (r *Roll) Expression() (string, error) {
	out, err := r.result()
	if err != nil {
		return "", err
	}
	return out.expression, nil
}

func (r *Roll) result() (*outcome, error) {
	if r.outcome == nil {
		return nil, wfrp3e.Validationf(nil, "roll has no results; evaluate it first")
	}
	return r.outcome, nil
}

// validate checks terms recursively without drawing anything.
func validate(terms []term.Term) error {
	if err := formula.Check(terms); err != nil {
		return err
	}
	for _, t := range terms {
		switch t := t.(type) {
		case term.Die:
			if err := die.New(t.Kind, t.Count).Validate(); err != nil {
				return err
			}
		case term.Standard:
			if err := (dice.Spec{Sides: t.Sides, Count: t.Count}).Validate(); err != nil {
				return wfrp3e.Validationf(nil, "%s: %v", t.Formula(), err)
			}
		case term.Group:
			if err := validate(t.Terms); err != nil {
				return err
			}
		}
	}
	if _, err := arith.Parse(skeleton(terms)); err != nil {
		return err
	}
	return nil
}

// skeleton renders terms with every operand replaced by 1, which is enough
// to check the arithmetic grammar before rolling.
func skeleton(terms []term.Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if op, ok := t.(term.Operator); ok {
			parts = append(parts, string(op.Op))
			continue
		}
		parts = append(parts, "1")
	}
	return strings.Join(parts, " ")
}

// evaluate validates, rolls and totals terms. It returns the raw, unfolded
// symbol sum so that nested groups fold righteous successes only once, at
// the top level.
func evaluate(terms []term.Term, src random.Source) (*outcome, error) {
	if err := validate(terms); err != nil {
		return nil, err
	}
	return draw(terms, src)
}

func draw(terms []term.Term, src random.Source) (*outcome, error) {
	out := &outcome{}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		switch t := t.(type) {
		case term.Operator:
			parts = append(parts, string(t.Op))
		case term.Number:
			parts = append(parts, literal(t.Value))
		case term.Standard:
			res, err := dice.RollWithSource(src, []dice.Spec{{Sides: t.Sides, Count: t.Count}})
			if err != nil {
				return nil, err
			}
			out.standard = append(out.standard, StandardGroup{Sides: t.Sides, Results: res.Rolls[0].Results, Total: res.Total})
			out.steps = append(out.steps, Step{
				Code:    StepRollStandard,
				Message: "Roll " + t.Formula(),
				Data:    map[string]any{"results": res.Rolls[0].Results, "total": res.Total},
			})
			parts = append(parts, literal(float64(res.Total)))
		case term.Die:
			d := die.New(t.Kind, t.Count)
			if err := d.Roll(src); err != nil {
				return nil, err
			}
			out.dice = append(out.dice, DiceGroup{Kind: t.Kind, Results: d.Results()})
			out.raw = out.raw.Add(d.Symbols())
			out.steps = append(out.steps, Step{
				Code:    StepRollDice,
				Message: "Roll " + t.Formula(),
				Data:    map[string]any{"kind": t.Kind.String(), "faces": faceValues(d.Results()), "symbols": vectorData(d.Symbols())},
			})
			parts = append(parts, "0")
		case term.Symbols:
			out.raw = out.raw.Add(t.Vector)
			for _, s := range symbol.All {
				if n := t.Vector.Get(s); n != 0 {
					out.adjustments = append(out.adjustments, Adjustment{Label: t.Label, Symbol: s, Value: n})
				}
			}
			out.steps = append(out.steps, Step{
				Code:    StepAddModifier,
				Message: "Add " + t.Formula(),
				Data:    vectorData(t.Vector),
			})
			parts = append(parts, "0")
		case term.Group:
			nested, err := draw(t.Terms, src)
			if err != nil {
				return nil, err
			}
			out.dice = append(out.dice, nested.dice...)
			out.standard = append(out.standard, nested.standard...)
			out.adjustments = append(out.adjustments, nested.adjustments...)
			out.raw = out.raw.Add(nested.raw)
			out.steps = append(out.steps, nested.steps...)
			out.steps = append(out.steps, Step{
				Code:    StepFlattenGroup,
				Message: "Replace " + t.Formula() + " with its total",
				Data:    map[string]any{"expression": nested.expression, "total": nested.total},
			})
			parts = append(parts, literal(nested.total))
		default:
			return nil, wfrp3e.Validationf(nil, "unsupported term %s", t.Formula())
		}
	}

	out.expression = strings.Join(parts, " ")
	total, err := arith.Evaluate(out.expression)
	if err != nil {
		return nil, err
	}
	out.total = total
	out.steps = append(out.steps, Step{
		Code:    StepTotal,
		Message: "Evaluate the arithmetic total",
		Data:    map[string]any{"expression": out.expression, "total": total},
	})
	return out, nil
}

// literal renders v for the arithmetic evaluator, parenthesizing negatives.
func literal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v < 0 {
		return "(" + s + ")"
	}
	return s
}

func faceValues(results []die.Result) []int {
	values := make([]int, len(results))
	for i, r := range results {
		values[i] = r.Value
	}
	return values
}
