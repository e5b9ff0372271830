package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/wfrp3e.dice/internal/core/random"
	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/die"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/formula"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/probability"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/roll"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/script"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

// RngRequest represents optional RNG configuration for deterministic rolls.
type RngRequest struct {
	Seed *int64 `json:"seed,omitempty" jsonschema:"optional seed to replay a roll"`
}

// RngResult represents RNG details used for a roll.
type RngResult struct {
	SeedUsed   int64  `json:"seed_used" jsonschema:"seed value used for the roll"`
	SeedSource string `json:"seed_source" jsonschema:"seed source (client or server)"`
}

// SymbolModifierInput is a labeled flat symbol modifier.
type SymbolModifierInput struct {
	Label  string `json:"label" jsonschema:"modifier label, e.g. the talent granting it"`
	Symbol string `json:"symbol" jsonschema:"symbol name, e.g. success or boon"`
	Value  int    `json:"value" jsonschema:"symbols added, negative to remove"`
}

// EffectInput is a Lua triggered effect applied to the pool before rolling.
type EffectInput struct {
	Name   string `json:"name" jsonschema:"effect name"`
	Source string `json:"source" jsonschema:"Lua source using the pool and check globals"`
}

// poolInput selects what to roll: a shorthand pool with optional modifiers
// and effects, or a formula.
type poolInput struct {
	pool    string
	formula string
	symbols []SymbolModifierInput
	effects []EffectInput
}

// RollInput represents the MCP tool input for a WFRP3e roll.
type RollInput struct {
	Pool     string                `json:"pool,omitempty" jsonschema:"pool shorthand, e.g. aaeh"`
	Formula  string                `json:"formula,omitempty" jsonschema:"roll formula, e.g. 2da + 1df + 3"`
	Symbols  []SymbolModifierInput `json:"symbols,omitempty" jsonschema:"flat symbol modifiers for a shorthand pool"`
	Effects  []EffectInput         `json:"effects,omitempty" jsonschema:"triggered effects for a shorthand pool, applied in order"`
	Required int                   `json:"required,omitempty" jsonschema:"net successes needed to pass (at least 1)"`
	Explain  bool                  `json:"explain,omitempty" jsonschema:"include the evaluation steps"`
	Rng      *RngRequest           `json:"rng,omitempty" jsonschema:"optional rng configuration"`
}

// ExplainStep represents a deterministic evaluation step.
type ExplainStep struct {
	Code    string         `json:"code" jsonschema:"stable step identifier"`
	Message string         `json:"message" jsonschema:"human-readable step description"`
	Data    map[string]any `json:"data" jsonschema:"structured step payload"`
}

// RollResult represents the MCP tool output for a WFRP3e roll.
type RollResult struct {
	Formula          string                  `json:"formula" jsonschema:"canonical formula that was rolled"`
	Total            float64                 `json:"total" jsonschema:"numeric total of the arithmetic part"`
	Symbols          symbol.Vector           `json:"symbols" jsonschema:"symbols after cancellation"`
	Aggregate        symbol.Vector           `json:"aggregate" jsonschema:"symbols before cancellation"`
	Dice             []roll.ExportDice       `json:"dice" jsonschema:"rolled special dice"`
	AddedAdjustments []roll.ExportAdjustment `json:"added_adjustments" jsonschema:"flat symbol modifiers"`
	Success          bool                    `json:"success" jsonschema:"whether the check passed"`
	Margin           int                     `json:"margin" jsonschema:"net successes minus required"`
	RulesVersion     string                  `json:"rules_version" jsonschema:"semantic ruleset version"`
	Steps            []ExplainStep           `json:"steps,omitempty" jsonschema:"ordered evaluation steps"`
	Rng              RngResult               `json:"rng" jsonschema:"rng details"`
}

// FacesInput represents the MCP tool input for a face table lookup.
type FacesInput struct {
	Kind string `json:"kind" jsonschema:"die name or shorthand letter"`
}

// FaceResult is one printed face.
type FaceResult struct {
	Value   int           `json:"value" jsonschema:"face value"`
	Label   string        `json:"label" jsonschema:"face label"`
	Icon    string        `json:"icon" jsonschema:"icon identifier"`
	Symbols symbol.Vector `json:"symbols" jsonschema:"symbols printed on the face"`
}

// FacesResult represents the MCP tool output for a face table lookup.
type FacesResult struct {
	Kind     string       `json:"kind" jsonschema:"die name"`
	Code     string       `json:"code" jsonschema:"shorthand letter"`
	Sides    int          `json:"sides" jsonschema:"number of faces"`
	Opposing bool         `json:"opposing" jsonschema:"whether the die works against the acting character"`
	Faces    []FaceResult `json:"faces" jsonschema:"faces in value order"`
}

// ProbabilityInput represents the MCP tool input for pool probabilities.
type ProbabilityInput struct {
	Pool     string                `json:"pool,omitempty" jsonschema:"pool shorthand, e.g. aaeh"`
	Formula  string                `json:"formula,omitempty" jsonschema:"roll formula, e.g. 2da + 1df + 3"`
	Symbols  []SymbolModifierInput `json:"symbols,omitempty" jsonschema:"flat symbol modifiers for a shorthand pool"`
	Effects  []EffectInput         `json:"effects,omitempty" jsonschema:"triggered effects for a shorthand pool, applied in order"`
	Required int                   `json:"required,omitempty" jsonschema:"net successes needed to pass (at least 1)"`
}

// OutcomeProbability is the probability of one cancelled result.
type OutcomeProbability struct {
	NetSuccesses int     `json:"net_successes" jsonschema:"successes minus challenges"`
	NetBoons     int     `json:"net_boons" jsonschema:"boons minus banes"`
	Probability  float64 `json:"probability" jsonschema:"probability of this outcome"`
}

// ProbabilityResult represents the MCP tool output for pool probabilities.
type ProbabilityResult struct {
	Dice                 int                  `json:"dice" jsonschema:"number of special dice"`
	SuccessChance        float64              `json:"success_chance" jsonschema:"probability that the check passes"`
	BoonChance           float64              `json:"boon_chance" jsonschema:"probability of at least one net boon"`
	BaneChance           float64              `json:"bane_chance" jsonschema:"probability of at least one net bane"`
	ExpectedNetSuccesses float64              `json:"expected_net_successes" jsonschema:"mean net successes"`
	ExpectedNetBoons     float64              `json:"expected_net_boons" jsonschema:"mean net boons"`
	Outcomes             []OutcomeProbability `json:"outcomes" jsonschema:"every reachable outcome"`
}

// RulesVersionInput represents the MCP tool input for ruleset metadata.
type RulesVersionInput struct{}

// RulesVersionResult represents the MCP tool output for ruleset metadata.
type RulesVersionResult struct {
	System          string            `json:"system" jsonschema:"game system name"`
	RulesVersion    string            `json:"rules_version" jsonschema:"semantic ruleset version"`
	DiceModel       string            `json:"dice_model" jsonschema:"dice model description"`
	SuccessRule     string            `json:"success_rule" jsonschema:"check success rule"`
	CancelRule      string            `json:"cancel_rule" jsonschema:"symbol cancellation rule"`
	RighteousRule   string            `json:"righteous_rule" jsonschema:"righteous success rule"`
	PassThroughRule string            `json:"pass_through_rule" jsonschema:"symbols that never cancel"`
	ShorthandCodes  map[string]string `json:"shorthand_codes" jsonschema:"shorthand letter to die name"`
}

// RollTool defines the MCP tool schema for rolls.
func RollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "wfrp3e_roll",
		Description: "Rolls a WFRP3e narrative dice pool or formula and cancels the symbols",
	}
}

// FacesTool defines the MCP tool schema for face tables.
func FacesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "wfrp3e_faces",
		Description: "Lists the faces of one WFRP3e die",
	}
}

// ProbabilityTool defines the MCP tool schema for probabilities.
func ProbabilityTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "wfrp3e_probability",
		Description: "Computes the exact outcome distribution of a WFRP3e pool",
	}
}

// RulesVersionTool defines the MCP tool schema for ruleset metadata.
func RulesVersionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "wfrp3e_rules_version",
		Description: "Describes the WFRP3e dice semantics",
	}
}

// RollHandler evaluates a roll with a server or replay seed.
func RollHandler(newSeed func() (int64, error)) mcp.ToolHandlerFor[RollInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollInput) (*mcp.CallToolResult, RollResult, error) {
		var requested *int64
		if input.Rng != nil {
			requested = input.Rng.Seed
		}
		seed, source, err := random.ResolveSeed(requested, newSeed)
		if err != nil {
			return nil, RollResult{}, fmt.Errorf("generate seed: %w", err)
		}

		r, err := rollFor(ctx, poolInput{input.Pool, input.Formula, input.Symbols, input.Effects})
		if err != nil {
			return nil, RollResult{}, toolError(err)
		}
		if err := r.Evaluate(ctx, random.NewSource(seed)); err != nil {
			return nil, RollResult{}, toolError(err)
		}
		export, err := r.Result()
		if err != nil {
			return nil, RollResult{}, toolError(err)
		}
		explanation, err := r.Explain()
		if err != nil {
			return nil, RollResult{}, toolError(err)
		}
		outcome, err := r.Outcome(input.Required)
		if err != nil {
			return nil, RollResult{}, toolError(err)
		}

		result := RollResult{
			Formula:          r.Formula(),
			Total:            export.Total,
			Symbols:          export.Symbols,
			Aggregate:        explanation.Aggregate,
			Dice:             export.Dice,
			AddedAdjustments: export.AddedAdjustments,
			Success:          outcome.Success,
			Margin:           outcome.Margin,
			RulesVersion:     explanation.RulesVersion,
			Rng:              RngResult{SeedUsed: seed, SeedSource: string(source)},
		}
		if input.Explain {
			for _, step := range explanation.Steps {
				result.Steps = append(result.Steps, ExplainStep{Code: step.Code, Message: step.Message, Data: step.Data})
			}
		}
		return nil, result, nil
	}
}

// FacesHandler returns the face table of a die.
func FacesHandler() mcp.ToolHandlerFor[FacesInput, FacesResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input FacesInput) (*mcp.CallToolResult, FacesResult, error) {
		kind, err := die.ParseKind(input.Kind)
		if err != nil {
			return nil, FacesResult{}, toolError(err)
		}
		faces := die.Faces(kind)
		result := FacesResult{
			Kind:     kind.String(),
			Code:     string(kind.Code()),
			Sides:    kind.Sides(),
			Opposing: kind.Opposing(),
			Faces:    make([]FaceResult, 0, len(faces)),
		}
		for _, f := range faces {
			result.Faces = append(result.Faces, FaceResult{Value: f.Value, Label: f.Label, Icon: f.Icon, Symbols: f.Symbols})
		}
		return nil, result, nil
	}
}

// ProbabilityHandler computes the outcome distribution without rolling.
func ProbabilityHandler() mcp.ToolHandlerFor[ProbabilityInput, ProbabilityResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProbabilityInput) (*mcp.CallToolResult, ProbabilityResult, error) {
		terms, err := termsFor(ctx, poolInput{input.Pool, input.Formula, input.Symbols, input.Effects})
		if err != nil {
			return nil, ProbabilityResult{}, toolError(err)
		}
		d, err := probability.ForTerms(terms)
		if err != nil {
			return nil, ProbabilityResult{}, toolError(err)
		}
		result := ProbabilityResult{
			Dice:                 d.Dice(),
			SuccessChance:        d.SuccessChance(input.Required),
			BoonChance:           d.BoonChance(1),
			BaneChance:           d.BaneChance(1),
			ExpectedNetSuccesses: d.ExpectedNetSuccesses(),
			ExpectedNetBoons:     d.ExpectedNetBoons(),
		}
		for _, w := range d.Outcomes() {
			result.Outcomes = append(result.Outcomes, OutcomeProbability{
				NetSuccesses: w.NetSuccesses,
				NetBoons:     w.NetBoons,
				Probability:  w.Probability,
			})
		}
		return nil, result, nil
	}
}

// RulesVersionHandler returns the static ruleset metadata.
func RulesVersionHandler() mcp.ToolHandlerFor[RulesVersionInput, RulesVersionResult] {
	return func(context.Context, *mcp.CallToolRequest, RulesVersionInput) (*mcp.CallToolResult, RulesVersionResult, error) {
		meta := wfrp3e.RulesVersion()
		return nil, RulesVersionResult{
			System:          meta.System,
			RulesVersion:    meta.RulesVersion,
			DiceModel:       meta.DiceModel,
			SuccessRule:     meta.SuccessRule,
			CancelRule:      meta.CancelRule,
			RighteousRule:   meta.RighteousRule,
			PassThroughRule: meta.PassThroughRule,
			ShorthandCodes:  meta.ShorthandCodes,
		}, nil
	}
}

func rollFor(ctx context.Context, input poolInput) (*roll.Roll, error) {
	if strings.TrimSpace(input.pool) != "" {
		p, err := poolFor(ctx, input)
		if err != nil {
			return nil, err
		}
		return roll.FromPool(p)
	}
	terms, err := termsFor(ctx, input)
	if err != nil {
		return nil, err
	}
	return roll.New(terms)
}

func termsFor(ctx context.Context, input poolInput) ([]term.Term, error) {
	hasPool := strings.TrimSpace(input.pool) != ""
	hasFormula := strings.TrimSpace(input.formula) != ""
	switch {
	case hasPool == hasFormula:
		return nil, wfrp3e.Validationf(nil, "exactly one of pool or formula is required")
	case hasFormula && (len(input.symbols) > 0 || len(input.effects) > 0):
		return nil, wfrp3e.Validationf(nil, "symbols and effects apply to a shorthand pool only")
	case hasFormula:
		return formula.Parse(input.formula)
	}
	p, err := poolFor(ctx, input)
	if err != nil {
		return nil, err
	}
	return p.Build()
}

func poolFor(ctx context.Context, input poolInput) (*pool.Pool, error) {
	if strings.TrimSpace(input.formula) != "" {
		return nil, wfrp3e.Validationf(nil, "exactly one of pool or formula is required")
	}
	shorthand, err := formula.ExpandShorthand(input.pool)
	if err != nil {
		return nil, err
	}
	p := pool.New()
	for _, t := range shorthand {
		if d, ok := t.(term.Die); ok {
			if err := p.AdjustCount(d.Kind, d.Count); err != nil {
				return nil, err
			}
		}
	}
	for _, m := range input.symbols {
		s, ok := symbol.Parse(m.Symbol)
		if !ok {
			return nil, wfrp3e.Validationf(nil, "unknown symbol %q", m.Symbol)
		}
		if err := p.AddSymbolAdjustment(m.Label, s, m.Value); err != nil {
			return nil, err
		}
	}
	effects := make([]pool.Mutator, 0, len(input.effects))
	for _, e := range input.effects {
		effect, err := script.New(e.Name, e.Source)
		if err != nil {
			return nil, err
		}
		effects = append(effects, effect)
	}
	if err := p.ApplyTriggeredEffects(ctx, effects...); err != nil {
		return nil, err
	}
	return p, nil
}

// toolError prefixes err with its domain code so MCP clients can branch on
// it without parsing the message.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", apperrors.CodeOf(err), err)
}
