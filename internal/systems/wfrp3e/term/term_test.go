package term

import (
	"testing"

	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

func TestJoin(t *testing.T) {
	terms := []Term{
		Die{Kind: die.Conservative, Count: 2},
		Plus,
		Standard{Count: 1, Sides: 6},
		Operator{Op: '*'},
		Group{Terms: []Term{Number{Value: 3}, Operator{Op: '-'}, Number{Value: 1.5}}},
		Plus,
		Symbols{Label: "Lucky", Vector: symbol.Of(symbol.Success, 1)},
		Plus,
		Shorthand{Codes: "oor"},
	}
	want := "2do + 1d6 * (3 - 1.5) + {Lucky} + [oor]"
	if got := Join(terms); got != want {
		t.Fatalf("Join = %q, want %q", got, want)
	}
}

func TestSymbolsFormulaWithoutLabel(t *testing.T) {
	got := Symbols{Vector: symbol.Of(symbol.Boon, 2)}.Formula()
	if got != "{2 boons}" {
		t.Fatalf("Formula = %q", got)
	}
}

func TestInterleave(t *testing.T) {
	if got := Interleave(nil); got != nil {
		t.Fatalf("Interleave(nil) = %v", got)
	}
	single := Interleave([]Term{Number{Value: 1}})
	if len(single) != 1 {
		t.Fatalf("Interleave single = %v", single)
	}
	got := Interleave([]Term{Number{Value: 1}, Number{Value: 2}, Number{Value: 3}})
	if len(got) != 5 {
		t.Fatalf("Interleave len = %d, want 5", len(got))
	}
	if _, ok := got[len(got)-1].(Operator); ok {
		t.Fatal("trailing operator")
	}
	if got[1] != Plus || got[3] != Plus {
		t.Fatalf("Interleave = %v", got)
	}
}

func TestOperatorValid(t *testing.T) {
	for _, op := range []byte("+-*/") {
		if !(Operator{Op: op}).Valid() {
			t.Errorf("%q should be valid", op)
		}
	}
	if (Operator{Op: '%'}).Valid() {
		t.Error("% should be invalid")
	}
}
