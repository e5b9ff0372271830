package wfrp3e

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
)

func TestRulesVersionListsEveryShorthandCode(t *testing.T) {
	meta := RulesVersion()
	if meta.RulesVersion == "" {
		t.Fatal("expected rules version")
	}
	if len(meta.ShorthandCodes) != 7 {
		t.Fatalf("shorthand codes = %d, want 7", len(meta.ShorthandCodes))
	}
	for _, code := range []string{"a", "f", "e", "o", "r", "h", "m"} {
		if meta.ShorthandCodes[code] == "" {
			t.Errorf("missing shorthand code %q", code)
		}
	}
}

func TestSentinelsMatchByCode(t *testing.T) {
	err := fmt.Errorf("build: %w", apperrors.WithMetadata(apperrors.CodeUnknownDieType, `unknown die type "fireball"`, map[string]string{MetadataDieType: "fireball"}))
	if !errors.Is(err, ErrUnknownDieType) {
		t.Fatalf("expected %v to match ErrUnknownDieType", err)
	}
	if errors.Is(err, ErrValidation) {
		t.Fatal("unexpected match against ErrValidation")
	}
}

func TestValidationf(t *testing.T) {
	err := Validationf(map[string]string{MetadataDieType: "fortune"}, "%s die count must not be negative, got %d", "fortune", -2)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if apperrors.MetadataOf(err)[MetadataDieType] != "fortune" {
		t.Fatalf("metadata = %v", apperrors.MetadataOf(err))
	}
	if want := "fortune die count must not be negative, got -2"; err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
	if !errors.Is(Validationf(nil, "plain"), ErrValidation) {
		t.Fatal("expected validation error without metadata")
	}
}
