// Package random provides seed generation and the random sources used to
// draw die faces.
//
// Rolls draw from a Source rather than from math/rand directly so a roll can
// be replayed from its seed and tests can script exact face values.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// SeedSource records where the seed for a roll came from.
type SeedSource string

const (
	// SeedSourceServer marks a seed generated by NewSeed.
	SeedSourceServer SeedSource = "server"
	// SeedSourceClient marks a seed supplied by the caller for a replay.
	SeedSourceClient SeedSource = "client"
)

// ResolveSeed returns the caller's seed when one is supplied, otherwise a
// fresh seed from generate. A nil generate falls back to NewSeed.
func ResolveSeed(requested *int64, generate func() (int64, error)) (int64, SeedSource, error) {
	if requested != nil {
		return *requested, SeedSourceClient, nil
	}
	if generate == nil {
		generate = NewSeed
	}
	seed, err := generate()
	if err != nil {
		return 0, "", err
	}
	return seed, SeedSourceServer, nil
}
