package die

import (
	"fmt"

	"github.com/louisbranch/wfrp3e.dice/internal/core/dice"
	"github.com/louisbranch/wfrp3e.dice/internal/core/random"
	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

// Result is one rolled die.
//
// Exploded marks a righteous success face. It is display-only: no extra die
// is drawn. Discarded and Rerolled are never set by the evaluator; they exist
// so the presentation layer can record its own edits of the result list.
type Result struct {
	Kind      Kind
	Value     int
	Label     string
	Icon      string
	Symbols   symbol.Vector
	Exploded  bool
	Discarded bool
	Rerolled  bool
}

// RollFace draws a face of kind uniformly from src and looks it up.
// A face missing from the table yields a blank result.
func RollFace(kind Kind, src random.Source) (Result, error) {
	if !kind.Valid() {
		return Result{}, UnknownKindError(kind.String())
	}
	value := src.Intn(kind.Sides()) + 1
	return ResultFor(kind, value), nil
}

// ResultFor builds the result of kind landing on value.
func ResultFor(kind Kind, value int) Result {
	f, ok := LookupFace(kind, value)
	if !ok {
		f = Face{Value: value, Label: "Blank", Icon: kind.String() + "-blank"}
	}
	return Result{
		Kind:     kind,
		Value:    value,
		Label:    f.Label,
		Icon:     f.Icon,
		Symbols:  f.Symbols,
		Exploded: IsRighteousSuccess(f.Symbols),
	}
}

// MaxCount bounds the dice of one kind in a single roll.
const MaxCount = dice.MaxCount

// CountError reports a count of kind outside 0..MaxCount, or nil.
func CountError(kind Kind, n int) error {
	metadata := map[string]string{wfrp3e.MetadataDieType: kind.String()}
	switch {
	case n < 0:
		return wfrp3e.Validationf(metadata, "%s die count must not be negative, got %d", kind, n)
	case n > MaxCount:
		return wfrp3e.Validationf(metadata, "%s die count %d exceeds the limit of %d", kind, n, MaxCount)
	}
	return nil
}

// Die is Count dice of one kind, rolled together exactly once.
type Die struct {
	Kind  Kind
	Count int

	results []Result
	rolled  bool
}

// New creates an unrolled die group.
func New(kind Kind, count int) *Die {
	return &Die{Kind: kind, Count: count}
}

// Validate reports whether the group can be rolled.
func (d *Die) Validate() error {
	if !d.Kind.Valid() {
		return UnknownKindError(d.Kind.String())
	}
	return CountError(d.Kind, d.Count)
}

// Roll draws every die of the group. A group can only be rolled once.
func (d *Die) Roll(src random.Source) error {
	if d.rolled {
		return apperrors.New(apperrors.CodeAlreadyEvaluated, fmt.Sprintf("%d%s dice already rolled", d.Count, d.Kind))
	}
	if err := d.Validate(); err != nil {
		return err
	}
	results := make([]Result, 0, d.Count)
	for i := 0; i < d.Count; i++ {
		result, err := RollFace(d.Kind, src)
		if err != nil {
			return err
		}
		results = append(results, result)
	}
	d.results = results
	d.rolled = true
	return nil
}

// Rolled reports whether Roll has completed.
func (d *Die) Rolled() bool {
	return d.rolled
}

// Results returns a copy of the rolled results.
func (d *Die) Results() []Result {
	return append([]Result(nil), d.results...)
}

// Symbols sums the rolled faces. Righteous successes are not folded here;
// folding happens once at pool level.
func (d *Die) Symbols() symbol.Vector {
	var sum symbol.Vector
	for _, r := range d.results {
		sum = sum.Add(r.Symbols)
	}
	return sum
}
