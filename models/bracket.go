package models

import "time"

// Bracket is the single-elimination draw of one group. Size is always a
// power of two; entrants beyond the real count are byes granted to the top
// seeds. A bracket is regenerated only wholesale, together with its matches.
type Bracket struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Distance int    `json:"distance"`
	Gender   Gender `json:"gender"`

	Size         int  `json:"size"`
	CurrentRound int  `json:"current_round"`
	IsCompleted  bool `json:"is_completed"`

	CreatedAt time.Time `json:"created_at"`

	Matches []Match `json:"matches,omitempty"`
}

func (b *Bracket) Group() GroupKey {
	return GroupKey{Category: b.Category, Distance: b.Distance, Gender: b.Gender}
}

// FinalRound returns log2(Size): the round number of the final.
func (b *Bracket) FinalRound() int {
	r := 0
	for s := b.Size; s > 1; s >>= 1 {
		r++
	}
	return r
}

// SemifinalRound returns the round whose losers feed the bronze match.
// Meaningless for brackets of size 2, which have no semifinal.
func (b *Bracket) SemifinalRound() int {
	return b.FinalRound() - 1
}

func (b *Bracket) HasBronzeMatch() bool {
	return b.Size >= 4
}
