package random

import (
	"errors"
	"testing"
)

func TestNewSeed(t *testing.T) {
	if _, err := NewSeed(); err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
}

func TestResolveSeedDefaultsToServerSeed(t *testing.T) {
	seed, source, err := ResolveSeed(nil, func() (int64, error) {
		return 123, nil
	})
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 123 {
		t.Fatalf("seed = %d, want 123", seed)
	}
	if source != SeedSourceServer {
		t.Fatalf("seed source = %q, want %q", source, SeedSourceServer)
	}
}

func TestResolveSeedUsesClientSeed(t *testing.T) {
	requested := int64(77)
	seed, source, err := ResolveSeed(&requested, func() (int64, error) {
		t.Fatal("generator must not run when a seed is supplied")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 77 || source != SeedSourceClient {
		t.Fatalf("ResolveSeed = (%d, %q), want (77, %q)", seed, source, SeedSourceClient)
	}
}

func TestResolveSeedPropagatesGeneratorError(t *testing.T) {
	want := errors.New("entropy unavailable")
	_, _, err := ResolveSeed(nil, func() (int64, error) { return 0, want })
	if !errors.Is(err, want) {
		t.Fatalf("ResolveSeed error = %v, want %v", err, want)
	}
}

func TestNewSourceIsDeterministic(t *testing.T) {
	a := NewSource(12345)
	b := NewSource(12345)
	for i := 0; i < 20; i++ {
		if x, y := a.Intn(10), b.Intn(10); x != y {
			t.Fatalf("draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestScriptedReplaysFaces(t *testing.T) {
	src := NewScripted(9, 6, 3)
	if got := src.Intn(10); got != 8 {
		t.Fatalf("first draw = %d, want 8", got)
	}
	if got := src.Intn(10); got != 5 {
		t.Fatalf("second draw = %d, want 5", got)
	}
	if got := src.Intn(6); got != 2 {
		t.Fatalf("third draw = %d, want 2", got)
	}
	if src.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", src.Remaining())
	}
}

func TestScriptedPanicsWhenExhausted(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewScripted().Intn(6)
}

func TestScriptedPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewScripted(7).Intn(6)
}
