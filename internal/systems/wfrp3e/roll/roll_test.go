package roll

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/louisbranch/wfrp3e.dice/internal/core/random"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

// scenarioPool is two Conservative dice and one Expertise die. Dice roll in
// canonical kind order, so the Expertise die draws first.
func scenarioPool(t *testing.T) *pool.Pool {
	t.Helper()
	p := pool.New()
	if err := p.SetCount(die.Conservative, 2); err != nil {
		t.Fatal(err)
	}
	if err := p.SetCount(die.Expertise, 1); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestEndToEndScenario(t *testing.T) {
	r, err := FromPool(scenarioPool(t))
	if err != nil {
		t.Fatalf("FromPool error = %v", err)
	}
	src := random.NewScripted(3, 9, 6)
	if err := r.Evaluate(context.Background(), src); err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if src.Remaining() != 0 {
		t.Fatalf("remaining draws = %d, want 0", src.Remaining())
	}

	aggregate, err := r.Aggregate()
	if err != nil {
		t.Fatal(err)
	}
	wantAggregate := symbol.Vector{Successes: 2, RighteousSuccesses: 1, Boons: 1, Delays: 1}
	if aggregate != wantAggregate {
		t.Fatalf("aggregate = %+v, want %+v", aggregate, wantAggregate)
	}

	symbols, err := r.Symbols()
	if err != nil {
		t.Fatal(err)
	}
	if symbols != wantAggregate {
		t.Fatalf("symbols = %+v, want %+v", symbols, wantAggregate)
	}

	total, err := r.Total()
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Fatalf("total = %v, want 0", total)
	}

	groups, err := r.Dice()
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || groups[0].Kind != die.Expertise || groups[1].Kind != die.Conservative {
		t.Fatalf("dice groups = %+v", groups)
	}
	if !groups[0].Results[0].Exploded {
		t.Fatal("righteous success should be marked exploded")
	}
	if got := []int{groups[1].Results[0].Value, groups[1].Results[1].Value}; !reflect.DeepEqual(got, []int{9, 6}) {
		t.Fatalf("conservative faces = %v, want [9 6]", got)
	}
}

func TestArithmeticOnlyFormulaIsSymbolNeutral(t *testing.T) {
	r, err := FromFormula("3+2")
	if err != nil {
		t.Fatalf("FromFormula error = %v", err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted()); err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	total, _ := r.Total()
	if total != 5 {
		t.Fatalf("total = %v, want 5", total)
	}
	symbols, _ := r.Symbols()
	if !symbols.IsZero() {
		t.Fatalf("symbols = %+v, want zero", symbols)
	}
	aggregate, _ := r.Aggregate()
	if !aggregate.IsZero() {
		t.Fatalf("aggregate = %+v, want zero", aggregate)
	}
}

func TestDoubleEvaluateFails(t *testing.T) {
	r, err := FromPool(scenarioPool(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(3, 9, 6)); err != nil {
		t.Fatal(err)
	}
	before, _ := r.Symbols()
	beforeTotal, _ := r.Total()

	err = r.Evaluate(context.Background(), random.NewScripted(1, 1, 1))
	if !errors.Is(err, wfrp3e.ErrAlreadyEvaluated) {
		t.Fatalf("second Evaluate error = %v, want already evaluated", err)
	}
	after, _ := r.Symbols()
	afterTotal, _ := r.Total()
	if after != before || afterTotal != beforeTotal {
		t.Fatalf("results changed: %+v/%v -> %+v/%v", before, beforeTotal, after, afterTotal)
	}
}

func TestRighteousSuccessFolding(t *testing.T) {
	const count = 4
	r, err := New([]term.Term{term.Die{Kind: die.Expertise, Count: count}})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(3, 3, 3, 3)); err != nil {
		t.Fatal(err)
	}
	aggregate, _ := r.Aggregate()
	if aggregate.Successes != count || aggregate.RighteousSuccesses != count {
		t.Fatalf("aggregate = %+v, want %d successes and righteous successes", aggregate, count)
	}
	groups, _ := r.Dice()
	if len(groups[0].Results) != count {
		t.Fatalf("rolled %d dice, want %d", len(groups[0].Results), count)
	}
}

func TestCancellationAcrossDice(t *testing.T) {
	// Characteristic 4 is a success, Challenge 4 is two challenges,
	// Fortune 6 is a boon and Misfortune 6 is a bane.
	r, err := FromFormula("1da + 1df + 1dh + 1dm")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(4, 6, 4, 6)); err != nil {
		t.Fatal(err)
	}
	symbols, _ := r.Symbols()
	want := symbol.Vector{Challenges: 1}
	if symbols != want {
		t.Fatalf("symbols = %+v, want %+v", symbols, want)
	}
	outcome, err := r.Outcome(0)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Success || outcome.Margin != -2 {
		t.Fatalf("outcome = %+v, want failure by 2", outcome)
	}
}

func TestNonNumericTotal(t *testing.T) {
	r, err := FromFormula("1do + 1 / (2 - 2)")
	if err != nil {
		t.Fatalf("FromFormula error = %v", err)
	}
	err = r.Evaluate(context.Background(), random.NewScripted(2))
	if !errors.Is(err, wfrp3e.ErrNonNumericTotal) {
		t.Fatalf("Evaluate error = %v, want non-numeric total", err)
	}
	if _, err := r.Symbols(); !errors.Is(err, wfrp3e.ErrValidation) {
		t.Fatalf("Symbols after failure error = %v, want validation", err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(2)); !errors.Is(err, wfrp3e.ErrAlreadyEvaluated) {
		t.Fatalf("retry error = %v, want already evaluated", err)
	}
}

func TestOversizedFormulaCountsAreRejected(t *testing.T) {
	for _, input := range []string{"4611686018427387904do", "101da + 1", "2 + 1000000d6"} {
		r, err := FromFormula(input)
		if err == nil {
			err = r.Evaluate(context.Background(), random.NewSource(1))
		}
		if !errors.Is(err, wfrp3e.ErrValidation) {
			t.Errorf("%q error = %v, want validation", input, err)
		}
	}
}

func TestValidationHappensBeforeAnyDraw(t *testing.T) {
	tests := []struct {
		name  string
		terms []term.Term
		want  error
	}{
		{
			name:  "unknown kind",
			terms: []term.Term{term.Die{Kind: die.Fortune, Count: 1}, term.Plus, term.Die{Kind: die.Kind(99), Count: 1}},
			want:  wfrp3e.ErrUnknownDieType,
		},
		{
			name:  "negative count",
			terms: []term.Term{term.Die{Kind: die.Fortune, Count: 1}, term.Plus, term.Die{Kind: die.Reckless, Count: -1}},
			want:  wfrp3e.ErrValidation,
		},
		{
			name:  "too many special dice",
			terms: []term.Term{term.Die{Kind: die.Fortune, Count: 1}, term.Plus, term.Die{Kind: die.Characteristic, Count: die.MaxCount + 1}},
			want:  wfrp3e.ErrValidation,
		},
		{
			name:  "too many standard dice",
			terms: []term.Term{term.Die{Kind: die.Fortune, Count: 1}, term.Plus, term.Standard{Count: 1 << 30, Sides: 6}},
			want:  wfrp3e.ErrValidation,
		},
		{
			name:  "bad nested group",
			terms: []term.Term{term.Die{Kind: die.Fortune, Count: 1}, term.Plus, term.Group{Terms: []term.Term{term.Number{Value: 1}, term.Plus}}},
			want:  wfrp3e.ErrValidation,
		},
		{
			name:  "invalid standard dice",
			terms: []term.Term{term.Die{Kind: die.Fortune, Count: 1}, term.Plus, term.Standard{Count: 1, Sides: 0}},
			want:  wfrp3e.ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.terms)
			if err != nil {
				t.Fatal(err)
			}
			src := random.NewScripted(1, 1)
			if err := r.Evaluate(context.Background(), src); !errors.Is(err, tt.want) {
				t.Fatalf("Evaluate error = %v, want %v", err, tt.want)
			}
			if src.Remaining() != 2 {
				t.Fatalf("drew %d dice before failing", 2-src.Remaining())
			}
		})
	}
}

func TestNestedGroupIsFlattened(t *testing.T) {
	r, err := FromFormula("(1dh + 2) * 2 + 1do")
	if err != nil {
		t.Fatal(err)
	}
	// Challenge face 2 is one challenge; Conservative face 2 is one success.
	if err := r.Evaluate(context.Background(), random.NewScripted(2, 2)); err != nil {
		t.Fatal(err)
	}
	total, _ := r.Total()
	if total != 4 {
		t.Fatalf("total = %v, want 4", total)
	}
	expression, _ := r.Expression()
	if expression != "2 * 2 + 0" {
		t.Fatalf("expression = %q", expression)
	}
	aggregate, _ := r.Aggregate()
	if aggregate.Successes != 1 || aggregate.Challenges != 1 {
		t.Fatalf("aggregate = %+v", aggregate)
	}
	symbols, _ := r.Symbols()
	if !symbols.IsZero() {
		t.Fatalf("symbols = %+v, want zero after cancellation", symbols)
	}
	groups, _ := r.Dice()
	if len(groups) != 2 || groups[0].Kind != die.Challenge || groups[1].Kind != die.Conservative {
		t.Fatalf("dice = %+v", groups)
	}
}

func TestNestedRighteousSuccessFoldsOnce(t *testing.T) {
	r, err := FromFormula("(1de) + 1de")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(3, 3)); err != nil {
		t.Fatal(err)
	}
	aggregate, _ := r.Aggregate()
	if aggregate.Successes != 2 || aggregate.RighteousSuccesses != 2 {
		t.Fatalf("aggregate = %+v, want 2 successes and 2 righteous", aggregate)
	}
}

func TestStandardDiceContributeToTotal(t *testing.T) {
	r, err := FromFormula("2d6 + 1 + 1df")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(4, 5, 6)); err != nil {
		t.Fatal(err)
	}
	total, _ := r.Total()
	if total != 10 {
		t.Fatalf("total = %v, want 10", total)
	}
	standard, _ := r.Standard()
	if len(standard) != 1 || !reflect.DeepEqual(standard[0].Results, []int{4, 5}) {
		t.Fatalf("standard = %+v", standard)
	}
	symbols, _ := r.Symbols()
	if symbols != (symbol.Vector{Boons: 1}) {
		t.Fatalf("symbols = %+v", symbols)
	}
}

func TestFromPoolConsumesPool(t *testing.T) {
	p := scenarioPool(t)
	if _, err := FromPool(p); err != nil {
		t.Fatal(err)
	}
	if _, err := FromPool(p); !errors.Is(err, wfrp3e.ErrValidation) {
		t.Fatalf("second FromPool error = %v, want validation", err)
	}
	if _, err := FromPool(p.Clone()); err != nil {
		t.Fatalf("FromPool(clone) error = %v", err)
	}
}

func TestFromPoolFailureLeavesPoolUsable(t *testing.T) {
	p := pool.New()
	if _, err := FromPool(p); !errors.Is(err, wfrp3e.ErrEmptyPool) {
		t.Fatalf("error = %v, want empty pool", err)
	}
	if p.Rolled() {
		t.Fatal("pool consumed by a failed build")
	}
}

func TestAdjustmentsAndExport(t *testing.T) {
	p := scenarioPool(t)
	if err := p.AddSymbolAdjustment("Curse", symbol.Boon, -2); err != nil {
		t.Fatal(err)
	}
	if err := p.SetSymbolAdjustment(symbol.Success, 1); err != nil {
		t.Fatal(err)
	}
	r, err := FromPool(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(3, 9, 6)); err != nil {
		t.Fatal(err)
	}

	export, err := r.Result()
	if err != nil {
		t.Fatal(err)
	}
	if err := ValidateExport(export); err != nil {
		t.Fatalf("ValidateExport error = %v", err)
	}

	wantSymbols := symbol.Vector{Successes: 3, RighteousSuccesses: 1, Banes: 1, Delays: 1}
	if export.Symbols != wantSymbols {
		t.Fatalf("symbols = %+v, want %+v", export.Symbols, wantSymbols)
	}
	wantAdjustments := []ExportAdjustment{
		{Label: "Curse", Symbol: "boons", Value: 2, Negative: true},
		{Label: "Success", Symbol: "successes", Value: 1},
	}
	if !reflect.DeepEqual(export.AddedAdjustments, wantAdjustments) {
		t.Fatalf("adjustments = %+v, want %+v", export.AddedAdjustments, wantAdjustments)
	}

	data, err := json.Marshal(export)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"total":0`, `"righteousSuccesses":1`, `"addedAdjustments"`, `"kind":"expertise"`, `"exploded":true`, `"rerolled":false`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("export JSON missing %s: %s", key, data)
		}
	}
}

func TestValidateExportRejectsBadDocuments(t *testing.T) {
	tests := []Export{
		{Dice: []ExportDice{{Kind: "fireball", Faces: []ExportFace{}}}, AddedAdjustments: []ExportAdjustment{}},
		{Dice: []ExportDice{{Kind: "fortune", Faces: []ExportFace{{Value: 0, Label: "Blank"}}}}, AddedAdjustments: []ExportAdjustment{}},
		{Dice: []ExportDice{}, AddedAdjustments: []ExportAdjustment{{Label: "x", Symbol: "boons", Value: -1}}},
		{},
	}
	for i, e := range tests {
		if err := ValidateExport(e); err == nil {
			t.Errorf("case %d: ValidateExport accepted an invalid export", i)
		}
	}
}

func TestResultsUnavailableBeforeEvaluate(t *testing.T) {
	r, err := FromFormula("1do")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Result(); !errors.Is(err, wfrp3e.ErrValidation) {
		t.Fatalf("Result error = %v, want validation", err)
	}
	if _, err := r.Explain(); !errors.Is(err, wfrp3e.ErrValidation) {
		t.Fatalf("Explain error = %v, want validation", err)
	}
}

func TestExplainSteps(t *testing.T) {
	r, err := FromPool(scenarioPool(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Evaluate(context.Background(), random.NewScripted(3, 9, 6)); err != nil {
		t.Fatal(err)
	}
	explanation, err := r.Explain()
	if err != nil {
		t.Fatal(err)
	}
	var codes []string
	for _, step := range explanation.Steps {
		codes = append(codes, step.Code)
	}
	want := []string{StepRollDice, StepRollDice, StepTotal, StepAggregate, StepCancel}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("steps = %v, want %v", codes, want)
	}
	if explanation.Formula != "1de + 2do" {
		t.Fatalf("formula = %q", explanation.Formula)
	}
	if explanation.RulesVersion != wfrp3e.RulesVersion().RulesVersion {
		t.Fatalf("rules version = %q", explanation.RulesVersion)
	}
	if got := explanation.Steps[1].Data["faces"]; !reflect.DeepEqual(got, []int{9, 6}) {
		t.Fatalf("conservative faces = %v", got)
	}
}

func TestSeededRollsAreDeterministic(t *testing.T) {
	evaluate := func() Export {
		r, err := FromFormula("[aaaeoohhm]")
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Evaluate(context.Background(), random.NewSource(42)); err != nil {
			t.Fatal(err)
		}
		e, err := r.Result()
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	if a, b := evaluate(), evaluate(); !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different rolls:\n%+v\n%+v", a, b)
	}
}
