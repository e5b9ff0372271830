package roll

import (
	"github.com/louisbranch/wfrp3e.dice/internal/core/check"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

// Step codes, in the order they can appear.
const (
	StepRollDice     = "ROLL_DICE"
	StepRollStandard = "ROLL_STANDARD"
	StepAddModifier  = "ADD_MODIFIER"
	StepFlattenGroup = "FLATTEN_GROUP"
	StepTotal        = "EVALUATE_TOTAL"
	StepAggregate    = "AGGREGATE_SYMBOLS"
	StepCancel       = "CANCEL_SYMBOLS"
)

// Step is one deterministic evaluation step.
type Step struct {
	Code    string
	Message string
	Data    map[string]any
}

// Explanation is an evaluated roll with the steps that produced it.
type Explanation struct {
	Formula      string
	RulesVersion string
	Total        float64
	Aggregate    symbol.Vector
	Symbols      symbol.Vector
	Steps        []Step
}

// Explain returns the steps of an evaluated roll.
func (r *Roll) Explain() (Explanation, error) {
	out, err := r.result()
	if err != nil {
		return Explanation{}, err
	}
	return Explanation{
		Formula:      r.Formula(),
		RulesVersion: wfrp3e.RulesVersion().RulesVersion,
		Total:        out.total,
		Aggregate:    out.aggregate,
		Symbols:      out.symbols,
		Steps:        append([]Step(nil), out.steps...),
	}, nil
}

// Outcome resolves the cancelled net successes against required, which is
// raised to at least one.
func (r *Roll) Outcome(required int) (check.Result, error) {
	out, err := r.result()
	if err != nil {
		return check.Result{}, err
	}
	return check.Check(out.symbols.NetSuccesses(), required), nil
}

func vectorData(v symbol.Vector) map[string]any {
	data := make(map[string]any, len(symbol.All))
	for _, s := range symbol.All {
		if n := v.Get(s); n != 0 {
			data[s.String()] = n
		}
	}
	return data
}
