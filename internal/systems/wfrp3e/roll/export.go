package roll

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

// Export is the read-only view handed to the presentation layer.
type Export struct {
	Total            float64            `json:"total"`
	Symbols          symbol.Vector      `json:"symbols"`
	Dice             []ExportDice       `json:"dice"`
	AddedAdjustments []ExportAdjustment `json:"addedAdjustments"`
}

// ExportDice is one rolled die term.
type ExportDice struct {
	Kind  string       `json:"kind"`
	Faces []ExportFace `json:"faces"`
}

// ExportFace is one rolled die.
type ExportFace struct {
	Value     int    `json:"value"`
	Label     string `json:"label"`
	Icon      string `json:"icon,omitempty"`
	Exploded  bool   `json:"exploded"`
	Discarded bool   `json:"discarded"`
	Rerolled  bool   `json:"rerolled"`
}

// ExportAdjustment is a flat modifier. Value is the magnitude; Negative marks
// a modifier that removes symbols.
type ExportAdjustment struct {
	Label    string `json:"label"`
	Symbol   string `json:"symbol"`
	Value    int    `json:"value"`
	Negative bool   `json:"negative"`
}

// Result returns the export of an evaluated roll.
func (r *Roll) Result() (Export, error) {
	out, err := r.result()
	if err != nil {
		return Export{}, err
	}
	export := Export{
		Total:            out.total,
		Symbols:          out.symbols,
		Dice:             make([]ExportDice, 0, len(out.dice)),
		AddedAdjustments: make([]ExportAdjustment, 0, len(out.adjustments)),
	}
	for _, g := range out.dice {
		faces := make([]ExportFace, 0, len(g.Results))
		for _, res := range g.Results {
			faces = append(faces, ExportFace{
				Value:     res.Value,
				Label:     res.Label,
				Icon:      res.Icon,
				Exploded:  res.Exploded,
				Discarded: res.Discarded,
				Rerolled:  res.Rerolled,
			})
		}
		export.Dice = append(export.Dice, ExportDice{Kind: g.Kind.String(), Faces: faces})
	}
	for _, a := range out.adjustments {
		value := a.Value
		if value < 0 {
			value = -value
		}
		export.AddedAdjustments = append(export.AddedAdjustments, ExportAdjustment{
			Label:    a.Label,
			Symbol:   a.Symbol.String(),
			Value:    value,
			Negative: a.Negative(),
		})
	}
	return export, nil
}

//go:embed export.schema.json
var exportSchemaJSON []byte

const exportSchemaURL = "export.schema.json"

var compileExportSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(exportSchemaURL, bytes.NewReader(exportSchemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(exportSchemaURL)
})

// ExportSchema returns the JSON schema of Export.
func ExportSchema() []byte {
	return append([]byte(nil), exportSchemaJSON...)
}

// ValidateExport checks e against the export JSON schema.
func ValidateExport(e Export) error {
	schema, err := compileExportSchema()
	if err != nil {
		return fmt.Errorf("compile export schema: %w", err)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode export: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("validate export: %w", err)
	}
	return nil
}
