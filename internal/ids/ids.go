// Package ids provides the identifier generators injected into the store.
package ids

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator hands out identifiers that are unique for the lifetime of a store.
type Generator interface {
	NewID() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }

// ULID generates lexicographically sortable identifiers derived from the
// creation time. Monotonic entropy keeps identifiers created within the same
// millisecond strictly increasing, so they never collide.
type ULID struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy *ulid.MonotonicEntropy
}

func NewULID() *ULID {
	return NewULIDWith(time.Now, rand.Reader)
}

// NewULIDWith is NewULID with an injectable clock and entropy source.
func NewULIDWith(now func() time.Time, r io.Reader) *ULID {
	return &ULID{
		now:     now,
		entropy: ulid.Monotonic(r, 0),
	}
}

func (g *ULID) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

// UUID generates random version 4 identifiers.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// Sequence yields prefix-1, prefix-2, ... and is meant for tests that need
// deterministic identifiers.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

// New returns the generator registered under scheme ("ulid" or "uuid").
func New(scheme string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", "ulid":
		return NewULID(), nil
	case "uuid":
		return UUID{}, nil
	default:
		return nil, fmt.Errorf("unknown id scheme: %s", scheme)
	}
}
