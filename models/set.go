package models

import "time"

// Canonical set-play parameters for a sanctioned elimination round.
const (
	ArrowsPerSet = 3
	MaxSets      = 5

	// ShootOffSetNumber is the reserved number for the tie-break pseudo-set,
	// so match history stays uniform.
	ShootOffSetNumber = MaxSets + 1

	SetWinPoints     = 2
	SetTiePoints     = 1
	PointsToWinMatch = 6

	// ArrowValueX encodes an inner-ten. It scores 10 but is kept distinct
	// as a tie-break statistic.
	ArrowValueX   = 11
	ArrowValueMax = 10
)

// Set is one scoring unit of an elimination match. Unconfirmed sets may be
// overwritten for re-entry correction; a confirmed set is immutable.
type Set struct {
	ID      int `json:"id"`
	MatchID int `json:"match_id"`
	Number  int `json:"number"`

	Slot1Arrows []int64 `json:"slot1_arrows"`
	Slot2Arrows []int64 `json:"slot2_arrows"`

	// Closest-to-center measurements, only for a shoot-off with equal
	// arrow values. Smaller wins.
	Slot1Distance *float64 `json:"slot1_distance,omitempty"`
	Slot2Distance *float64 `json:"slot2_distance,omitempty"`

	Slot1Points int  `json:"slot1_points"`
	Slot2Points int  `json:"slot2_points"`
	Confirmed   bool `json:"confirmed"`

	CreatedAt time.Time `json:"created_at"`
}

func (s *Set) IsShootOff() bool {
	return s.Number == ShootOffSetNumber
}
