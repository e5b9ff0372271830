// Package roll parses roll command flags and prints an evaluated roll.
package roll

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/message"

	"github.com/louisbranch/wfrp3e.dice/internal/core/random"
	platformcmd "github.com/louisbranch/wfrp3e.dice/internal/platform/cmd"
	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/platform/i18n/catalog"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/check"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/formula"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/probability"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/roll"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/term"
)

// Config holds roll command configuration.
type Config struct {
	Pool        string `env:"POOL"`
	Formula     string `env:"FORMULA"`
	Check       string `env:"CHECK"`
	Seed        int64  `env:"SEED"`
	Required    int    `env:"REQUIRED"     envDefault:"1"`
	JSON        bool   `env:"JSON"`
	Explain     bool   `env:"EXPLAIN"`
	Probability bool   `env:"PROBABILITY"`
	Locale      string `env:"LOCALE"       envDefault:"en-US"`
	Verbose     bool   `env:"VERBOSE"`
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Pool, "pool", cfg.Pool, "pool shorthand, e.g. aaeh")
	fs.StringVar(&cfg.Formula, "formula", cfg.Formula, "roll formula, e.g. 2da + 1df + 3")
	fs.StringVar(&cfg.Check, "check", cfg.Check, "YAML check definition path")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for replay (0 = random)")
	fs.IntVar(&cfg.Required, "required", cfg.Required, "net successes needed to pass (a check definition may raise it)")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "print the result as JSON")
	fs.BoolVar(&cfg.Explain, "explain", cfg.Explain, "print the evaluation steps")
	fs.BoolVar(&cfg.Probability, "probability", cfg.Probability, "print the exact success chance of the pool")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "summary locale (en-US, pt-BR)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose output")
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfigFromArgs(&cfg, fs, args, bindFlags); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate requires exactly one roll source.
func (c Config) Validate() error {
	sources := 0
	for _, s := range []string{c.Pool, c.Formula, c.Check} {
		if strings.TrimSpace(s) != "" {
			sources++
		}
	}
	if sources != 1 {
		return errors.New("exactly one of -pool, -formula or -check is required")
	}
	return nil
}

// prepared is a roll ready to evaluate, with its distribution when the
// caller asked for one.
type prepared struct {
	roll         *roll.Roll
	required     int
	distribution *probability.Distribution
}

// Run evaluates one roll and writes it to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	var requested *int64
	if cfg.Seed != 0 {
		requested = &cfg.Seed
	}
	seed, source, err := random.ResolveSeed(requested, nil)
	if err != nil {
		return err
	}

	p, err := prepare(ctx, cfg)
	if err != nil {
		return err
	}
	if err := p.roll.Evaluate(ctx, random.NewSource(seed)); err != nil {
		return err
	}
	if cfg.Verbose {
		log.Printf("rolled %q with seed %d (%s)", p.roll.Formula(), seed, source)
	}

	if cfg.JSON {
		return writeJSON(out, p.roll)
	}
	loc := catalog.Default().Printer(cfg.Locale)
	return writeSummary(out, loc, p, seed, source, cfg.Explain)
}

func prepare(ctx context.Context, cfg Config) (prepared, error) {
	out := prepared{required: cfg.Required}

	var (
		terms []term.Term
		built *pool.Pool
		err   error
	)
	switch {
	case cfg.Check != "":
		def, err := check.Load(cfg.Check)
		if err != nil {
			return prepared{}, err
		}
		out.required = max(out.required, def.Required)
		if built, err = def.Build(ctx); err != nil {
			return prepared{}, err
		}
	case cfg.Pool != "":
		if built, err = poolFromShorthand(cfg.Pool); err != nil {
			return prepared{}, err
		}
	default:
		if terms, err = formula.Parse(cfg.Formula); err != nil {
			return prepared{}, err
		}
	}

	if cfg.Probability {
		var d probability.Distribution
		if built != nil {
			d, err = probability.ForPool(built)
		} else {
			d, err = probability.ForTerms(terms)
		}
		if err != nil {
			return prepared{}, err
		}
		out.distribution = &d
	}

	if built != nil {
		out.roll, err = roll.FromPool(built)
	} else {
		out.roll, err = roll.New(terms)
	}
	if err != nil {
		return prepared{}, err
	}
	return out, nil
}

// poolFromShorthand loads shorthand letters into a pool so it can be
// measured before it is rolled.
func poolFromShorthand(shorthand string) (*pool.Pool, error) {
	terms, err := formula.ExpandShorthand(shorthand)
	if err != nil {
		return nil, err
	}
	p := pool.New()
	for _, t := range terms {
		if d, ok := t.(term.Die); ok {
			if err := p.AdjustCount(d.Kind, d.Count); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func writeJSON(out io.Writer, r *roll.Roll) error {
	export, err := r.Result()
	if err != nil {
		return err
	}
	if err := roll.ValidateExport(export); err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

func writeSummary(out io.Writer, loc *message.Printer, p prepared, seed int64, source random.SeedSource, explain bool) error {
	r := p.roll
	total, err := r.Total()
	if err != nil {
		return err
	}
	symbols, err := r.Symbols()
	if err != nil {
		return err
	}
	dice, err := r.Dice()
	if err != nil {
		return err
	}
	adjustments, err := r.Adjustments()
	if err != nil {
		return err
	}
	result, err := r.Outcome(p.required)
	if err != nil {
		return err
	}

	lines := []string{
		loc.Sprintf("roll.formula", r.Formula()),
		loc.Sprintf("roll.seed", seed, string(source)),
	}
	for _, g := range dice {
		faces := make([]string, 0, len(g.Results))
		for _, res := range g.Results {
			faces = append(faces, res.Label)
		}
		lines = append(lines, loc.Sprintf("roll.dice", g.Kind, strings.Join(faces, ", ")))
	}
	for _, a := range adjustments {
		lines = append(lines, loc.Sprintf("roll.modifier", a.Label, a.Value, a.Symbol.Label()))
	}
	lines = append(lines,
		loc.Sprintf("roll.total", total),
		loc.Sprintf("roll.symbols", symbols),
	)
	if result.Success {
		lines = append(lines, loc.Sprintf("roll.passed", result.Margin))
	} else {
		lines = append(lines, loc.Sprintf("roll.failed", -result.Margin))
	}
	if d := p.distribution; d != nil {
		lines = append(lines,
			loc.Sprintf("roll.chance", max(p.required, 1), d.SuccessChance(p.required)*100),
			loc.Sprintf("roll.expected", d.ExpectedNetSuccesses(), d.ExpectedNetBoons()),
		)
	}
	if explain {
		explanation, err := r.Explain()
		if err != nil {
			return err
		}
		for _, step := range explanation.Steps {
			lines = append(lines, loc.Sprintf("roll.step", step.Code, step.Message))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// ErrorMessage renders err for the terminal, prefixed with the localized
// text of its domain code when it has one.
func ErrorMessage(locale string, err error) string {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		return err.Error()
	}
	return catalog.Default().Printer(locale).Sprintf("errors."+string(code)) + ": " + err.Error()
}
