package pool

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
)

const tracerName = "github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"

// Mutator is a triggered effect. It may read the check context and edit the
// pool before it is built.
type Mutator interface {
	Mutate(ctx context.Context, p *Pool, check CheckContext) error
}

// MutatorFunc adapts a function to Mutator.
type MutatorFunc func(ctx context.Context, p *Pool, check CheckContext) error

// Mutate implements Mutator.
func (f MutatorFunc) Mutate(ctx context.Context, p *Pool, check CheckContext) error {
	return f(ctx, p, check)
}

// named is implemented by effects that can report a display name.
type named interface {
	Name() string
}

// EffectName returns the display name of m, or "" when it has none.
func EffectName(m Mutator) string {
	if n, ok := m.(named); ok {
		return n.Name()
	}
	return ""
}

// ApplyTriggeredEffect runs one effect against the pool. A failing effect
// leaves the pool as it was. Errors that already carry a domain code are
// returned as is; anything else is wrapped as EFFECT_FAILED.
func (p *Pool) ApplyTriggeredEffect(ctx context.Context, effect Mutator) error {
	if effect == nil {
		return apperrors.New(apperrors.CodeEffectFailed, "triggered effect is nil")
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeEffectFailed, "triggered effect cancelled", err)
	}
	if p.rolled {
		return apperrors.New(apperrors.CodeValidation, "cannot apply an effect to a rolled pool")
	}

	name := EffectName(effect)
	ctx, span := otel.Tracer(tracerName).Start(ctx, "wfrp3e.pool.apply_effect")
	defer span.End()
	span.SetAttributes(attribute.String("wfrp3e.effect.name", name))

	snapshot := p.Clone()
	if err := effect.Mutate(ctx, p, p.Context()); err != nil {
		p.restore(snapshot)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperrors.CodeOf(err) != apperrors.CodeUnknown {
			return err
		}
		message := "triggered effect failed"
		if name != "" {
			message = fmt.Sprintf("triggered effect %q failed", name)
		}
		return apperrors.Wrap(apperrors.CodeEffectFailed, message, err)
	}
	return nil
}

// ApplyTriggeredEffects runs effects strictly in the given order, each one
// seeing the pool left by the previous one. It stops at the first failure.
func (p *Pool) ApplyTriggeredEffects(ctx context.Context, effects ...Mutator) error {
	for i, effect := range effects {
		if err := p.ApplyTriggeredEffect(ctx, effect); err != nil {
			return fmt.Errorf("effect %d: %w", i+1, err)
		}
	}
	return nil
}
