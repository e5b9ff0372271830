package random

import (
	"fmt"
	"math/rand"
	"sync"
)

// Source draws uniform integers in [0, n).
type Source interface {
	Intn(n int) int
}

// NewSource returns a deterministic Source for seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// Scripted replays a fixed queue of 1-based face values. Each Intn call pops
// the next value and returns value-1, so Scripted(9, 6, 3) makes the next
// three dice land on faces 9, 6 and 3. It panics when the queue is exhausted
// or a value is out of range for the die being rolled.
type Scripted struct {
	mu     sync.Mutex
	values []int
}

// NewScripted creates a Scripted source from 1-based face values.
func NewScripted(values ...int) *Scripted {
	return &Scripted{values: append([]int(nil), values...)}
}

// Intn implements Source.
func (s *Scripted) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		panic("random: scripted source exhausted")
	}
	value := s.values[0]
	s.values = s.values[1:]
	if value < 1 || value > n {
		panic(fmt.Sprintf("random: scripted face %d out of range 1..%d", value, n))
	}
	return value - 1
}

// Remaining reports how many scripted values have not been drawn.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
