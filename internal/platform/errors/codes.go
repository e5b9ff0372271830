// Package errors provides structured, code-tagged errors for the dice engine.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Pool and shorthand validation failures: negative die counts, malformed
	// shorthand, a pool rolled twice.
	CodeValidation Code = "VALIDATION"

	// CodeEmptyPool reports a pool with neither a die nor a flat modifier.
	CodeEmptyPool Code = "EMPTY_POOL"

	// CodeUnknownDieType reports a die kind or shorthand letter that does not
	// name one of the seven special dice.
	CodeUnknownDieType Code = "UNKNOWN_DIE_TYPE"

	// CodeNonNumericTotal reports an arithmetic total that is not a finite number.
	CodeNonNumericTotal Code = "NON_NUMERIC_TOTAL"

	// CodeAlreadyEvaluated reports a second evaluation of a single-use roll.
	CodeAlreadyEvaluated Code = "ALREADY_EVALUATED"

	// CodeEffectFailed reports a triggered effect that could not be applied.
	CodeEffectFailed Code = "EFFECT_FAILED"
)

// Recoverable reports whether a caller can fix the failure by editing its
// input and trying again with a new pool or roll.
func (c Code) Recoverable() bool {
	switch c {
	case CodeValidation, CodeEmptyPool, CodeUnknownDieType, CodeEffectFailed:
		return true
	default:
		return false
	}
}
