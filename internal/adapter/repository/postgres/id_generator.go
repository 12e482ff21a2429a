package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs for accounts, entries, transfers and
// outbox events. ulid.Make draws from a process-wide monotonic source, so ids
// issued later compare greater even within one millisecond. History queries
// order by created_at DESC, id DESC, and two entries written by one movement
// share created_at; the id then decides which comes first.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate returns the next ULID in canonical 26-character form.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
