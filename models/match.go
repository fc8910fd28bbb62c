package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusShootOff   MatchStatus = "shoot_off"
	MatchStatusCompleted  MatchStatus = "completed"
)

// BronzeRound is the reserved round number of the third-place match. It sits
// outside the binary advancement tree and is fed by the semifinal losers.
const BronzeRound = 0

// Match is one node of a bracket, keyed by (bracket, round, position).
// Position p in round r feeds position ceil(p/2) in round r+1. Slots are
// mutated only by bracket construction, the bye resolver and the
// advancement resolver.
type Match struct {
	ID        int `json:"id"`
	BracketID int `json:"bracket_id"`
	Round     int `json:"round"`
	Position  int `json:"position"`

	Slot1EntrantID *int `json:"slot1_entrant_id,omitempty"`
	Slot2EntrantID *int `json:"slot2_entrant_id,omitempty"`

	Slot1SetPoints int `json:"slot1_set_points"`
	Slot2SetPoints int `json:"slot2_set_points"`

	Status          MatchStatus `json:"status"`
	WinnerEntrantID *int        `json:"winner_entrant_id,omitempty"`
	IsBye           bool        `json:"is_bye"`

	CreatedAt time.Time `json:"created_at"`

	Sets []Set `json:"sets,omitempty"`
}

func (m *Match) IsBronze() bool {
	return m.Round == BronzeRound
}

// SlotEntrant returns the entrant occupying the given slot (1 or 2), or nil.
func (m *Match) SlotEntrant(slot int) *int {
	if slot == 1 {
		return m.Slot1EntrantID
	}
	return m.Slot2EntrantID
}

// OpponentOf returns the entrant in the other slot relative to entrantID,
// or nil for a bye.
func (m *Match) OpponentOf(entrantID int) *int {
	if m.Slot1EntrantID != nil && *m.Slot1EntrantID == entrantID {
		return m.Slot2EntrantID
	}
	if m.Slot2EntrantID != nil && *m.Slot2EntrantID == entrantID {
		return m.Slot1EntrantID
	}
	return nil
}
