package brackets

import (
	"context"
	"sort"

	"github.com/Dosada05/archery-system/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) Generate(ctx context.Context, entrants []*models.Entrant) (*GeneratedBracket, error) {
	n := len(entrants)
	if n < 2 {
		return nil, ErrInsufficientEntrants
	}

	bySeed := make(map[int]*models.Entrant, n)
	for _, e := range entrants {
		if e.Seed < 1 || e.Seed > n {
			return nil, ErrInvalidSeeding
		}
		if _, dup := bySeed[e.Seed]; dup {
			return nil, ErrInvalidSeeding
		}
		bySeed[e.Seed] = e
	}

	rounds := 1
	for (1 << rounds) < n {
		rounds++
	}
	size := 1 << rounds

	order := SeedingOrder(size)

	matches := make([]*models.Match, 0, size)

	// Round 1: pair adjacent positions of the seeding order. A position
	// whose seed exceeds the entrant count stays empty, which makes the
	// pairing a bye for the present entrant. Because size is the smallest
	// power of two >= n, no first-round pair can be empty on both sides.
	for p := 1; p <= size/2; p++ {
		seed1, seed2 := order[2*p-2], order[2*p-1]

		m := &models.Match{
			Round:    1,
			Position: p,
			Status:   models.MatchStatusPending,
		}
		if e, ok := bySeed[seed1]; ok {
			id := e.ID
			m.Slot1EntrantID = &id
		}
		if e, ok := bySeed[seed2]; ok {
			id := e.ID
			m.Slot2EntrantID = &id
		}

		if m.Slot1EntrantID == nil || m.Slot2EntrantID == nil {
			// Bye match: created terminal, the sole entrant is the winner,
			// no sets are ever recorded for it.
			m.IsBye = true
			m.Status = models.MatchStatusCompleted
			if m.Slot1EntrantID != nil {
				m.WinnerEntrantID = m.Slot1EntrantID
			} else {
				m.WinnerEntrantID = m.Slot2EntrantID
			}
		}
		matches = append(matches, m)
	}

	// Later rounds up to the final: empty slots, filled by advancement.
	for r := 2; r <= rounds; r++ {
		for p := 1; p <= size>>uint(r); p++ {
			matches = append(matches, &models.Match{
				Round:    r,
				Position: p,
				Status:   models.MatchStatusPending,
			})
		}
	}

	// Bronze match for the semifinal losers, outside the tree.
	if size >= 4 {
		matches = append(matches, &models.Match{
			Round:    models.BronzeRound,
			Position: 1,
			Status:   models.MatchStatusPending,
		})
	}

	seedByeWinners(matches)

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].Position < matches[j].Position
	})

	return &GeneratedBracket{Size: size, Rounds: rounds, Matches: matches}, nil
}

// seedByeWinners walks the completed first-round bye matches and places
// each winner into its parent-round slot, the same routing the advancement
// resolver uses at runtime: position p feeds position ceil(p/2), odd
// positions fill slot 1, even positions slot 2.
func seedByeWinners(matches []*models.Match) {
	byKey := make(map[[2]int]*models.Match, len(matches))
	for _, m := range matches {
		byKey[[2]int{m.Round, m.Position}] = m
	}

	for _, m := range matches {
		if m.Round != 1 || !m.IsBye || m.WinnerEntrantID == nil {
			continue
		}
		next, ok := byKey[[2]int{2, (m.Position + 1) / 2}]
		if !ok {
			continue
		}
		winner := *m.WinnerEntrantID
		if m.Position%2 == 1 {
			next.Slot1EntrantID = &winner
		} else {
			next.Slot2EntrantID = &winner
		}
	}
}
