// Package check loads check definitions from YAML and turns them into pools.
//
// A definition names the acting character's check, any extra dice and flat
// modifiers, and the triggered effects to apply in order:
//
//	name: Reckless Charge
//	required: 1
//	check:
//	  characteristic: strength
//	  rating: 4
//	  stance: -2
//	  challenge_level: average
//	  training: 1
//	dice:
//	  fortune: 1
//	symbols:
//	  - label: Inspired
//	    symbol: boon
//	    value: 1
//	effects:
//	  - name: charge
//	    source: pool:adjust_count("reckless", 1)
//	  - file: effects/blessing.lua
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/wfrp3e.dice/internal/platform/errors"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/pool"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/script"
	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

// Definition is one check as written in YAML.
type Definition struct {
	Name     string           `yaml:"name"`
	Required int              `yaml:"required,omitempty"`
	Check    Context          `yaml:"check"`
	Dice     map[string]int   `yaml:"dice,omitempty"`
	Symbols  []SymbolModifier `yaml:"symbols,omitempty"`
	Effects  []EffectRef      `yaml:"effects,omitempty"`

	// dir resolves relative effect files.
	dir string
}

// Context is the check context block.
type Context struct {
	Characteristic string `yaml:"characteristic"`
	Rating         int    `yaml:"rating"`
	ChallengeLevel string `yaml:"challenge_level,omitempty"`
	Stance         int    `yaml:"stance,omitempty"`
	Training       int    `yaml:"training,omitempty"`
	Fortune        int    `yaml:"fortune,omitempty"`
	Misfortune     int    `yaml:"misfortune,omitempty"`
}

// SymbolModifier is a labeled flat modifier.
type SymbolModifier struct {
	Label  string `yaml:"label"`
	Symbol string `yaml:"symbol"`
	Value  int    `yaml:"value"`
}

// EffectRef is an inline Lua effect or a path to one.
type EffectRef struct {
	Name   string `yaml:"name,omitempty"`
	Source string `yaml:"source,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// Load reads and validates a definition file. Effect files are resolved
// relative to the definition's directory.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read check definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	def.dir = filepath.Dir(path)
	return def, nil
}

// Parse decodes and validates a definition. Unknown fields are rejected.
func Parse(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, wfrp3e.Validationf(nil, "check definition is empty")
		}
		return Definition{}, apperrors.Wrap(apperrors.CodeValidation, "decode check definition", err)
	}
	def.Normalize()
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// Normalize trims names and fills defaults.
func (d *Definition) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Check.Characteristic = strings.ToLower(strings.TrimSpace(d.Check.Characteristic))
	if strings.TrimSpace(d.Check.ChallengeLevel) == "" {
		d.Check.ChallengeLevel = pool.Simple.String()
	}
	for i := range d.Effects {
		e := &d.Effects[i]
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" && e.File != "" {
			e.Name = strings.TrimSuffix(filepath.Base(e.File), filepath.Ext(e.File))
		}
	}
}

// Validate checks the fields that do not need a pool to verify.
func (d Definition) Validate() error {
	if d.Name == "" {
		return wfrp3e.Validationf(nil, "check definition needs a name")
	}
	if _, err := d.CheckContext(); err != nil {
		return err
	}
	for _, m := range d.Symbols {
		if _, ok := symbol.Parse(m.Symbol); !ok {
			return wfrp3e.Validationf(nil, "unknown symbol %q in modifier %q", m.Symbol, m.Label)
		}
	}
	for i, e := range d.Effects {
		if (e.Source == "") == (e.File == "") {
			return wfrp3e.Validationf(nil, "effect %d needs exactly one of source or file", i+1)
		}
		if e.Name == "" {
			return wfrp3e.Validationf(nil, "effect %d needs a name", i+1)
		}
	}
	return nil
}

// CheckContext converts the YAML context block.
func (d Definition) CheckContext() (pool.CheckContext, error) {
	level, err := pool.ParseChallengeLevel(d.Check.ChallengeLevel)
	if err != nil {
		return pool.CheckContext{}, err
	}
	refs := make([]string, 0, len(d.Effects))
	for _, e := range d.Effects {
		refs = append(refs, e.Name)
	}
	c := pool.CheckContext{
		Characteristic: d.Check.Characteristic,
		Rating:         d.Check.Rating,
		ChallengeLevel: level,
		Stance:         d.Check.Stance,
		Training:       d.Check.Training,
		Fortune:        d.Check.Fortune,
		Misfortune:     d.Check.Misfortune,
		Effects:        refs,
	}
	if err := c.Validate(); err != nil {
		return pool.CheckContext{}, err
	}
	return c, nil
}

// LoadEffects compiles the definition's effects in order.
func (d Definition) LoadEffects() ([]pool.Mutator, error) {
	effects := make([]pool.Mutator, 0, len(d.Effects))
	for _, ref := range d.Effects {
		source := ref.Source
		if ref.File != "" {
			path := ref.File
			if !filepath.IsAbs(path) && d.dir != "" {
				path = filepath.Join(d.dir, path)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read effect %q: %w", ref.Name, err)
			}
			source = string(data)
		}
		effect, err := script.New(ref.Name, source)
		if err != nil {
			return nil, err
		}
		effects = append(effects, effect)
	}
	return effects, nil
}

// Build derives the pool from the check, adds the extra dice and modifiers,
// then applies the effects in order.
func (d Definition) Build(ctx context.Context) (*pool.Pool, error) {
	c, err := d.CheckContext()
	if err != nil {
		return nil, err
	}
	p, err := pool.FromCheck(c)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(d.Dice))
	for name := range d.Dice {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.AdjustCountNamed(name, d.Dice[name]); err != nil {
			return nil, err
		}
	}

	for _, m := range d.Symbols {
		s, _ := symbol.Parse(m.Symbol)
		if err := p.AddSymbolAdjustment(m.Label, s, m.Value); err != nil {
			return nil, err
		}
	}

	effects, err := d.LoadEffects()
	if err != nil {
		return nil, err
	}
	if err := p.ApplyTriggeredEffects(ctx, effects...); err != nil {
		return nil, err
	}
	return p, nil
}
