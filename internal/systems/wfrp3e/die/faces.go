package die

import (
	"fmt"
	"strings"

	"github.com/louisbranch/wfrp3e.dice/internal/systems/wfrp3e/symbol"
)

// Face is one printed face of a die.
type Face struct {
	Value   int
	Symbols symbol.Vector
	Label   string
	Icon    string
}

// Face tables, keyed by face value. Built once; never mutated.
var (
	characteristicFaces = table(Characteristic,
		face(1, symbol.Vector{}),
		face(2, symbol.Vector{}),
		face(3, symbol.Vector{}),
		face(4, symbol.Vector{Successes: 1}),
		face(5, symbol.Vector{Successes: 1}),
		face(6, symbol.Vector{Successes: 1}),
		face(7, symbol.Vector{Successes: 1}),
		face(8, symbol.Vector{Successes: 1}),
	)
	fortuneFaces = table(Fortune,
		face(1, symbol.Vector{}),
		face(2, symbol.Vector{}),
		face(3, symbol.Vector{}),
		face(4, symbol.Vector{Successes: 1}),
		face(5, symbol.Vector{Successes: 1}),
		face(6, symbol.Vector{Boons: 1}),
	)
	expertiseFaces = table(Expertise,
		face(1, symbol.Vector{}),
		face(2, symbol.Vector{Successes: 1}),
		face(3, symbol.Vector{RighteousSuccesses: 1}),
		face(4, symbol.Vector{Boons: 1}),
		face(5, symbol.Vector{Boons: 1}),
		face(6, symbol.Vector{SigmarsComets: 1}),
	)
	conservativeFaces = table(Conservative,
		face(1, symbol.Vector{}),
		face(2, symbol.Vector{Successes: 1}),
		face(3, symbol.Vector{Successes: 1}),
		face(4, symbol.Vector{Successes: 1}),
		face(5, symbol.Vector{Successes: 1}),
		face(6, symbol.Vector{Boons: 1}),
		face(7, symbol.Vector{Boons: 1}),
		face(8, symbol.Vector{Successes: 1, Boons: 1}),
		face(9, symbol.Vector{Successes: 1, Delays: 1}),
		face(10, symbol.Vector{Successes: 1, Delays: 1}),
	)
	recklessFaces = table(Reckless,
		face(1, symbol.Vector{}),
		face(2, symbol.Vector{}),
		face(3, symbol.Vector{Successes: 2}),
		face(4, symbol.Vector{Successes: 2}),
		face(5, symbol.Vector{Successes: 1, Boons: 1}),
		face(6, symbol.Vector{Boons: 2}),
		face(7, symbol.Vector{Banes: 1}),
		face(8, symbol.Vector{Banes: 1}),
		face(9, symbol.Vector{Successes: 1, Exertions: 1}),
		face(10, symbol.Vector{Successes: 1, Exertions: 1}),
	)
	challengeFaces = table(Challenge,
		face(1, symbol.Vector{}),
		face(2, symbol.Vector{Challenges: 1}),
		face(3, symbol.Vector{Challenges: 1}),
		face(4, symbol.Vector{Challenges: 2}),
		face(5, symbol.Vector{Challenges: 2}),
		face(6, symbol.Vector{Banes: 1}),
		face(7, symbol.Vector{Banes: 2}),
		face(8, symbol.Vector{ChaosStars: 1}),
	)
	misfortuneFaces = table(Misfortune,
		face(1, symbol.Vector{}),
		face(2, symbol.Vector{}),
		face(3, symbol.Vector{}),
		face(4, symbol.Vector{Challenges: 1}),
		face(5, symbol.Vector{Challenges: 1}),
		face(6, symbol.Vector{Banes: 1}),
	)
)

// Faces returns the face table for kind in face-value order. The slice is
// shared; callers must not modify it.
func Faces(kind Kind) []Face {
	switch kind {
	case Characteristic:
		return characteristicFaces
	case Fortune:
		return fortuneFaces
	case Expertise:
		return expertiseFaces
	case Conservative:
		return conservativeFaces
	case Reckless:
		return recklessFaces
	case Challenge:
		return challengeFaces
	case Misfortune:
		return misfortuneFaces
	default:
		return nil
	}
}

// LookupFace finds the face printed with value. ok is false when the table
// has no such entry.
func LookupFace(kind Kind, value int) (Face, bool) {
	for _, f := range Faces(kind) {
		if f.Value == value {
			return f, true
		}
	}
	return Face{}, false
}

// IsRighteousSuccess reports whether a face result carries a righteous success.
func IsRighteousSuccess(v symbol.Vector) bool {
	return v.RighteousSuccesses > 0
}

func face(value int, v symbol.Vector) Face {
	return Face{Value: value, Symbols: v}
}

// table stamps labels and icon keys onto the faces of kind.
func table(kind Kind, faces ...Face) []Face {
	for i := range faces {
		faces[i].Label = faceLabel(faces[i].Symbols)
		faces[i].Icon = kind.String() + "-" + faceSlug(faces[i].Symbols)
	}
	return faces
}

func faceLabel(v symbol.Vector) string {
	parts := make([]string, 0, 2)
	for _, s := range symbol.All {
		switch n := v.Get(s); {
		case n == 1:
			parts = append(parts, s.Label())
		case n > 1:
			parts = append(parts, fmt.Sprintf("%d× %s", n, s.Label()))
		}
	}
	if len(parts) == 0 {
		return "Blank"
	}
	return strings.Join(parts, " & ")
}

func faceSlug(v symbol.Vector) string {
	parts := make([]string, 0, 2)
	for _, s := range symbol.All {
		n := v.Get(s)
		if n <= 0 {
			continue
		}
		slug := strings.ToLower(strings.NewReplacer(" ", "-", "'", "").Replace(s.Label()))
		for i := 0; i < n; i++ {
			parts = append(parts, slug)
		}
	}
	if len(parts) == 0 {
		return "blank"
	}
	return strings.Join(parts, "-")
}
