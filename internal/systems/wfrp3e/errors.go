package wfrp3e

import (
	"fmt"

	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
)

// Sentinels for errors.Is. Any domain error with the same code matches,
// whatever its message or metadata.
var (
	ErrValidation       = apperrors.New(apperrors.CodeValidation, "validation failed")
	ErrEmptyPool        = apperrors.New(apperrors.CodeEmptyPool, "pool has nothing to roll")
	ErrUnknownDieType   = apperrors.New(apperrors.CodeUnknownDieType, "unknown die type")
	ErrNonNumericTotal  = apperrors.New(apperrors.CodeNonNumericTotal, "total is not a number")
	ErrAlreadyEvaluated = apperrors.New(apperrors.CodeAlreadyEvaluated, "roll already evaluated")
	ErrEffectFailed     = apperrors.New(apperrors.CodeEffectFailed, "triggered effect failed")
)

// MetadataDieType is the metadata key naming the offending die kind or letter.
const MetadataDieType = "die_type"

// Validationf returns a validation error whose message is formatted from
// format and args. Metadata may be nil.
func Validationf(metadata map[string]string, format string, args ...any) error {
	message := fmt.Sprintf(format, args...)
	if metadata == nil {
		return apperrors.New(apperrors.CodeValidation, message)
	}
	return apperrors.WithMetadata(apperrors.CodeValidation, message, metadata)
}
