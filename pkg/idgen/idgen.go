// Package idgen produces every identifier the classroom store hands out and
// the cosmetic random picks made when a student joins a classroom.
package idgen

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Clock returns the current time.
type Clock func() time.Time

// Generator issues time based identifiers. It is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	now    Clock
	rnd    *rand.Rand
	lastID int64
}

// New constructs a generator. A nil clock uses time.Now and a zero seed is
// replaced with the current time.
func New(now Clock, seed int64) *Generator {
	if now == nil {
		now = time.Now
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{now: now, rnd: rand.New(rand.NewSource(seed))}
}

// GenerateID returns "<prefix>-<epochMillis>". Two calls within the same
// millisecond return the same value.
func (g *Generator) GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, g.now().UnixMilli())
}

// NextID returns the current epoch millisecond, bumped past the previous
// result when the clock has not advanced, so numeric IDs never repeat within
// one generator.
func (g *Generator) NextID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.now().UnixMilli()
	if id <= g.lastID {
		id = g.lastID + 1
	}
	g.lastID = id
	return id
}

// Observe raises the floor for NextID, so IDs loaded from storage are not
// reissued.
func (g *Generator) Observe(id int64) {
	g.mu.Lock()
	if id > g.lastID {
		g.lastID = id
	}
	g.mu.Unlock()
}

// Intn returns a uniform value in [0, n).
func (g *Generator) Intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.Intn(n)
}

// PickRandom selects one catalog entry uniformly at random. It returns the
// zero value for an empty catalog.
func PickRandom[T any](g *Generator, catalog []T) T {
	var zero T
	if len(catalog) == 0 {
		return zero
	}
	return catalog[g.Intn(len(catalog))]
}
