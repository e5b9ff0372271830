package formula

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

func TestExpandShorthand(t *testing.T) {
	got, err := ExpandShorthand("oor")
	if err != nil {
		t.Fatalf("ExpandShorthand error = %v", err)
	}
	want := []term.Term{
		term.Die{Kind: die.Conservative, Count: 1},
		term.Plus,
		term.Die{Kind: die.Conservative, Count: 1},
		term.Plus,
		term.Die{Kind: die.Reckless, Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExpandShorthand = %v, want %v", got, want)
	}

	var dice, ops int
	for _, tm := range got {
		switch tm.(type) {
		case term.Die:
			dice++
		case term.Operator:
			ops++
		}
	}
	if dice != 3 || ops != 2 {
		t.Fatalf("dice = %d, operators = %d, want 3 and 2", dice, ops)
	}
}

func TestExpandShorthandEveryLetter(t *testing.T) {
	got, err := ExpandShorthand("A f e O r h m")
	if err != nil {
		t.Fatalf("ExpandShorthand error = %v", err)
	}
	var kinds []die.Kind
	for _, tm := range got {
		if d, ok := tm.(term.Die); ok {
			kinds = append(kinds, d.Kind)
		}
	}
	if !reflect.DeepEqual(kinds, die.Kinds) {
		t.Fatalf("kinds = %v, want %v", kinds, die.Kinds)
	}
}

func TestExpandShorthandUnknownLetter(t *testing.T) {
	_, err := ExpandShorthand("oxr")
	if !errors.Is(err, wfrp3e.ErrUnknownDieType) {
		t.Fatalf("error = %v, want unknown die type", err)
	}
	if got := apperrors.MetadataOf(err)[wfrp3e.MetadataDieType]; got != "x" {
		t.Fatalf("die_type metadata = %q, want x", got)
	}
}

func TestExpandShorthandEmpty(t *testing.T) {
	for _, in := range []string{"", "   "} {
		if _, err := ExpandShorthand(in); !errors.Is(err, wfrp3e.ErrValidation) {
			t.Errorf("ExpandShorthand(%q) error = %v, want validation", in, err)
		}
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	in := []term.Term{
		term.Number{Value: 2},
		term.Plus,
		term.Shorthand{Codes: "ae"},
		term.Plus,
		term.Group{Terms: []term.Term{term.Shorthand{Codes: "h"}}},
	}
	once, err := Expand(in)
	if err != nil {
		t.Fatalf("Expand error = %v", err)
	}
	twice, err := Expand(once)
	if err != nil {
		t.Fatalf("Expand error = %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Expand not idempotent:\n once = %v\ntwice = %v", once, twice)
	}
	if len(once) != 7 {
		t.Fatalf("len = %d, want 7: %v", len(once), term.Join(once))
	}
	inner := once[6].(term.Group).Terms
	if !reflect.DeepEqual(inner, []term.Term{term.Die{Kind: die.Challenge, Count: 1}}) {
		t.Fatalf("group = %v", inner)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3+2", "3 + 2"},
		{"2do + 1de", "2do + 1de"},
		{"do", "1do"},
		{"2do+do", "2do + 1do"},
		{"[oor]", "1do + 1do + 1dr"},
		{"dh + 1d6 * 2", "1dh + 1d6 * 2"},
		{"(1d6 + 2) * 2 - 1", "(1d6 + 2) * 2 - 1"},
		{"3 * -2", "3 * - 2"},
		{"1.5 + 2DA", "1.5 + 2da"},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", tt.in, err)
			continue
		}
		if s := term.Join(got); s != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, s, tt.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", wfrp3e.ErrValidation},
		{"3 +", wfrp3e.ErrValidation},
		{"* 3", wfrp3e.ErrValidation},
		{"3 3", wfrp3e.ErrValidation},
		{"(3 + 2", wfrp3e.ErrValidation},
		{"3 + 2)", wfrp3e.ErrValidation},
		{"[oor", wfrp3e.ErrValidation},
		{"0do", wfrp3e.ErrValidation},
		{"2d0", wfrp3e.ErrValidation},
		{"101do", wfrp3e.ErrValidation},
		{"101d6", wfrp3e.ErrValidation},
		{"4611686018427387904do", wfrp3e.ErrValidation},
		{"99999999999999999999999d6", wfrp3e.ErrValidation},
		{"2 * 1do", wfrp3e.ErrValidation},
		{"1do / 2", wfrp3e.ErrValidation},
		{"- 1dh", wfrp3e.ErrValidation},
		{"3 % 2", wfrp3e.ErrValidation},
		{"2dx", wfrp3e.ErrUnknownDieType},
		{"fireball", wfrp3e.ErrUnknownDieType},
		{"[ooz]", wfrp3e.ErrUnknownDieType},
	}
	for _, tt := range tests {
		if _, err := Parse(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("Parse(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestParseAcceptsMaxCount(t *testing.T) {
	terms, err := Parse("100do + 100d6")
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if got := term.Join(terms); got != "100do + 100d6" {
		t.Fatalf("Parse = %q", got)
	}
}

func TestCheckRejectsUnexpandedShorthand(t *testing.T) {
	err := Check([]term.Term{term.Shorthand{Codes: "o"}})
	if !errors.Is(err, wfrp3e.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestCheckAllowsAddedSymbols(t *testing.T) {
	terms := []term.Term{
		term.Die{Kind: die.Fortune, Count: 1},
		term.Plus,
		term.Symbols{Label: "Lucky"},
	}
	if err := Check(terms); err != nil {
		t.Fatalf("Check error = %v", err)
	}
}
