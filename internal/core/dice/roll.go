// Package dice rolls ordinary numbered dice (NdS). Special narrative dice live
// in the wfrp3e packages; this package covers the plain dice that may appear
// as arithmetic sub-terms of a formula.
package dice

import (
	"fmt"

	"github.com/louisbranch/wfrp3e.dice/internal/core/random"
	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
)

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = apperrors.New(apperrors.CodeValidation, "at least one die must be provided")

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = apperrors.New(apperrors.CodeValidation, "dice must have positive sides and count")

// MaxCount bounds the dice of one spec. Larger counts are rejected before
// anything is allocated or drawn.
const MaxCount = 100

// ErrTooManyDice indicates a spec asks for more than MaxCount dice.
var ErrTooManyDice = apperrors.New(apperrors.CodeValidation, fmt.Sprintf("dice count must not exceed %d", MaxCount))

// Spec describes a die to roll and how many times to roll it.
type Spec struct {
	Sides int
	Count int
}

// Validate reports whether the spec can be rolled.
func (s Spec) Validate() error {
	if s.Sides <= 0 || s.Count <= 0 {
		return ErrInvalidDiceSpec
	}
	if s.Count > MaxCount {
		return ErrTooManyDice
	}
	return nil
}

// Roll captures the results for a single dice spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result captures the results from rolling multiple dice.
type Result struct {
	Rolls []Roll
	Total int
}

// RollWithSource rolls specs in order from src.
//
// Specs are validated before any die is drawn, so a failed call leaves src
// untouched. Roll entries in the result follow the order of specs, and the
// same source state with the same specs always yields the same result.
func RollWithSource(src random.Source, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return Result{}, err
		}
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0
	for _, spec := range specs {
		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := rollDie(src, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{
		Rolls: rolls,
		Total: total,
	}, nil
}

// rollDie rolls a single die with the provided number of sides.
func rollDie(src random.Source, sides int) int {
	return src.Intn(sides) + 1
}
