// Package idx hands out ULIDs, used as request correlation ids.
package idx

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID string.
type ID string

const Zero ID = ""

var ErrInvalid = errors.New("idx: invalid ulid")

// Generator issues ULIDs that sort in creation order, including several
// issued in the same millisecond. It is safe for concurrent use.
type Generator struct {
	now func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator returns a Generator reading time from now, or the wall clock
// when now is nil.
func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now, entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a fresh ID stamped with the generator's clock.
func (g *Generator) Next() ID {
	ms := ulid.Timestamp(g.now())

	g.mu.Lock()
	defer g.mu.Unlock()
	return ID(ulid.MustNew(ms, g.entropy).String())
}

var std = NewGenerator(nil)

// New returns an ID from the process-wide generator.
func New() ID { return std.Next() }

// Parse accepts only canonical ULID strings.
func Parse(s string) (ID, error) {
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time is the embedded timestamp, or the zero time when id is not a ULID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
