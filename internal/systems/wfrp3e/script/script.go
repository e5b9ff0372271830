// Package script runs triggered effects written in Lua.
//
// Each run gets a fresh interpreter with only the base, string, math and
// table libraries; file loading and printing are removed. A script sees two
// globals:
//
//	pool:count(kind)                 pool:set_count(kind, n)
//	pool:adjust_count(kind, delta)   pool:symbol(sym)
//	pool:set_symbol(sym, n)          pool:add_symbol(label, sym, n)
//
//	check.characteristic, check.rating, check.challenge_level, check.stance,
//	check.training, check.fortune, check.misfortune, check.effects
//
// Kinds take die names or shorthand letters; symbols take singular or plural
// names ("boon", "sigmars_comets").
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"

	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

const poolTypeName = "wfrp3e.pool"

// hookInterval is how many Lua instructions run between budget and
// cancellation checks.
const hookInterval = 1000

// instructionBudget bounds the Lua instructions one effect run may execute.
var instructionBudget = 5_000_000

var errBudgetExhausted = errors.New("instruction budget exhausted")

// removedGlobals are base library functions scripts must not reach.
var removedGlobals = []string{"dofile", "loadfile", "print"}

// Effect is a Lua triggered effect. It implements pool.Mutator.
type Effect struct {
	name   string
	source string
}

var _ pool.Mutator = (*Effect)(nil)

// New checks that source compiles and returns an effect running it.
func New(name, source string) (*Effect, error) {
	if strings.TrimSpace(name) == "" {
		return nil, wfrp3e.Validationf(nil, "effect name is required")
	}
	state := lua.NewState()
	if err := lua.LoadBuffer(state, source, chunkName(name), "t"); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, fmt.Sprintf("compile effect %q", name), err)
	}
	return &Effect{name: name, source: source}, nil
}

// Load reads an effect from a file, named after the file.
func Load(path string) (*Effect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read effect: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return New(name, string(data))
}

// Name returns the effect name.
func (e *Effect) Name() string {
	return e.name
}

// Mutate runs the script against p. A pool error raised through the API and
// left uncaught keeps its code; any other script failure is EFFECT_FAILED.
// A run stops with EFFECT_FAILED once ctx is done or the script exceeds its
// instruction budget.
func (e *Effect) Mutate(ctx context.Context, p *pool.Pool, check pool.CheckContext) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(apperrors.CodeEffectFailed, fmt.Sprintf("effect %q cancelled", e.name), err)
	}

	b := &binding{pool: p}
	state := sandbox()
	registerPool(state, b)
	registerCheck(state, check)

	if err := lua.LoadBuffer(state, e.source, chunkName(e.name), "t"); err != nil {
		return apperrors.Wrap(apperrors.CodeEffectFailed, fmt.Sprintf("compile effect %q", e.name), err)
	}
	limit(ctx, state, b)
	err := state.ProtectedCall(0, 0, 0)
	if b.halt != nil {
		return apperrors.Wrap(apperrors.CodeEffectFailed, fmt.Sprintf("effect %q stopped", e.name), b.halt)
	}
	if err != nil {
		if message, ok := state.ToString(-1); ok && b.err != nil && message == b.message {
			return b.err
		}
		return apperrors.Wrap(apperrors.CodeEffectFailed, fmt.Sprintf("run effect %q", e.name), err)
	}
	return nil
}

// limit installs a count hook that halts the script once ctx is done or the
// instruction budget runs out. After halting, the hook fires on every
// instruction so a pcall cannot swallow the stop.
func limit(ctx context.Context, state *lua.State, b *binding) {
	executed := 0
	var hook lua.Hook
	hook = func(state *lua.State, _ lua.Debug) {
		if b.halt == nil {
			executed += hookInterval
			switch {
			case ctx.Err() != nil:
				b.halt = ctx.Err()
			case executed > instructionBudget:
				b.halt = fmt.Errorf("%w after %d instructions", errBudgetExhausted, instructionBudget)
			default:
				return
			}
			lua.SetDebugHook(state, hook, lua.MaskCount, 1)
		}
		lua.Errorf(state, "%s", b.halt.Error())
	}
	lua.SetDebugHook(state, hook, lua.MaskCount, hookInterval)
}

func chunkName(name string) string {
	return "=" + name
}

func sandbox() *lua.State {
	state := lua.NewState()
	libs := []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "math", Function: lua.MathOpen},
		{Name: "table", Function: lua.TableOpen},
	}
	for _, lib := range libs {
		lua.Require(state, lib.Name, lib.Function, true)
		state.Pop(1)
	}
	for _, name := range removedGlobals {
		state.PushNil()
		state.SetGlobal(name)
	}
	return state
}

// binding is the pool seen by one script run. err and message hold the last
// pool error raised into Lua, so an uncaught one can be returned with its
// code intact. halt is set when the run was stopped from outside.
type binding struct {
	pool    *pool.Pool
	err     error
	message string
	halt    error
}

var poolMethods = []lua.RegistryFunction{
	{Name: "count", Function: poolCount},
	{Name: "set_count", Function: poolSetCount},
	{Name: "adjust_count", Function: poolAdjustCount},
	{Name: "symbol", Function: poolSymbol},
	{Name: "set_symbol", Function: poolSetSymbol},
	{Name: "add_symbol", Function: poolAddSymbol},
}

func registerPool(state *lua.State, b *binding) {
	lua.NewMetaTable(state, poolTypeName)
	state.NewTable()
	lua.SetFunctions(state, poolMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)

	state.PushUserData(b)
	lua.SetMetaTableNamed(state, poolTypeName)
	state.SetGlobal("pool")
}

func registerCheck(state *lua.State, check pool.CheckContext) {
	state.NewTable()
	state.PushString(check.Characteristic)
	state.SetField(-2, "characteristic")
	fields := []struct {
		name  string
		value int
	}{
		{"rating", check.Rating},
		{"challenge_level", int(check.ChallengeLevel)},
		{"stance", check.Stance},
		{"training", check.Training},
		{"fortune", check.Fortune},
		{"misfortune", check.Misfortune},
	}
	for _, f := range fields {
		state.PushInteger(f.value)
		state.SetField(-2, f.name)
	}
	state.NewTable()
	for i, ref := range check.Effects {
		state.PushString(ref)
		state.RawSetInt(-2, i+1)
	}
	state.SetField(-2, "effects")
	state.SetGlobal("check")
}

func checkBinding(state *lua.State) *binding {
	ud := lua.CheckUserData(state, 1, poolTypeName)
	if b, ok := ud.(*binding); ok && b != nil {
		return b
	}
	lua.ArgumentError(state, 1, "pool expected")
	return nil
}

// raise records err on b and raises it as a Lua error carrying the caller's
// position.
func raise(state *lua.State, b *binding, err error) int {
	lua.Where(state, 1)
	where, _ := state.ToString(-1)
	state.Pop(1)
	b.err, b.message = err, where+err.Error()
	state.PushString(b.message)
	state.Error()
	return 0
}

func checkKind(state *lua.State, b *binding, index int) (die.Kind, bool) {
	kind, err := die.ParseKind(lua.CheckString(state, index))
	if err != nil {
		raise(state, b, err)
		return die.KindUnspecified, false
	}
	return kind, true
}

func checkSymbol(state *lua.State, b *binding, index int) (symbol.Symbol, bool) {
	name := lua.CheckString(state, index)
	s, ok := symbol.Parse(name)
	if !ok {
		raise(state, b, wfrp3e.Validationf(nil, "unknown symbol %q", name))
		return 0, false
	}
	return s, true
}

func poolCount(state *lua.State) int {
	b := checkBinding(state)
	kind, ok := checkKind(state, b, 2)
	if !ok {
		return 0
	}
	state.PushInteger(b.pool.Count(kind))
	return 1
}

func poolSetCount(state *lua.State) int {
	b := checkBinding(state)
	name := lua.CheckString(state, 2)
	n := lua.CheckInteger(state, 3)
	if err := b.pool.SetCountNamed(name, n); err != nil {
		return raise(state, b, err)
	}
	return 0
}

func poolAdjustCount(state *lua.State) int {
	b := checkBinding(state)
	name := lua.CheckString(state, 2)
	delta := lua.CheckInteger(state, 3)
	if err := b.pool.AdjustCountNamed(name, delta); err != nil {
		return raise(state, b, err)
	}
	return 0
}

func poolSymbol(state *lua.State) int {
	b := checkBinding(state)
	s, ok := checkSymbol(state, b, 2)
	if !ok {
		return 0
	}
	state.PushInteger(b.pool.SymbolAdjustment(s))
	return 1
}

func poolSetSymbol(state *lua.State) int {
	b := checkBinding(state)
	s, ok := checkSymbol(state, b, 2)
	if !ok {
		return 0
	}
	if err := b.pool.SetSymbolAdjustment(s, lua.CheckInteger(state, 3)); err != nil {
		return raise(state, b, err)
	}
	return 0
}

func poolAddSymbol(state *lua.State) int {
	b := checkBinding(state)
	label := lua.CheckString(state, 2)
	s, ok := checkSymbol(state, b, 3)
	if !ok {
		return 0
	}
	if err := b.pool.AddSymbolAdjustment(label, s, lua.CheckInteger(state, 4)); err != nil {
		return raise(state, b, err)
	}
	return 0
}
