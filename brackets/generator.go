package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/archery-system/models"
)

var (
	// ErrInsufficientEntrants: a group with fewer than two entrants is not
	// a candidate for bracket generation. Reported per group, never fatal
	// for the whole batch.
	ErrInsufficientEntrants = errors.New("not enough entrants to generate a bracket (minimum 2)")

	// ErrInvalidSeeding: seeds are not exactly 1..N. The ranking
	// collaborator owns seed assignment; anything else is rejected.
	ErrInvalidSeeding = errors.New("invalid seeding: seeds must be 1..N without duplicates or gaps")
)

// GeneratedBracket is the full match tree for one group, before
// persistence. Matches are keyed by (round, position) and sorted by round
// then position; byes are already resolved into the second round.
type GeneratedBracket struct {
	Size    int
	Rounds  int
	Matches []*models.Match
}

type Generator interface {
	// Generate builds the bracket for entrants sorted by seed (seed 1
	// first). Pure: either the complete tree is returned or an error,
	// nothing partial.
	Generate(ctx context.Context, entrants []*models.Entrant) (*GeneratedBracket, error)

	GetName() string
}
