package scoring

import "github.com/Dosada05/archery-system/models"

// Outcome is the standing of a match derived from its confirmed set
// history. WinnerSlot is 0 while the match is undecided.
type Outcome struct {
	Slot1Points int
	Slot2Points int
	Status      models.MatchStatus
	WinnerSlot  int
}

// Evaluate recomputes a match's cumulative set points and status from the
// full confirmed-set history. The history is the only ground truth: cached
// totals on the match row are overwritten with whatever this returns, so a
// replayed or corrected confirmation can never leave the totals drifted.
func Evaluate(sets []models.Set) Outcome {
	var p1, p2, regular int
	shootOffSeen := false

	for _, s := range sets {
		if !s.Confirmed {
			continue
		}
		p1 += s.Slot1Points
		p2 += s.Slot2Points
		if s.IsShootOff() {
			shootOffSeen = true
		} else {
			regular++
		}
	}

	out := Outcome{Slot1Points: p1, Slot2Points: p2}

	switch {
	case p1 >= models.PointsToWinMatch:
		out.Status = models.MatchStatusCompleted
		out.WinnerSlot = 1
	case p2 >= models.PointsToWinMatch:
		out.Status = models.MatchStatusCompleted
		out.WinnerSlot = 2
	case regular >= models.MaxSets && p1 == p2:
		// Sets exhausted at the maximum attainable tie (5-5): sudden death.
		out.Status = models.MatchStatusShootOff
	case regular > 0 || shootOffSeen:
		out.Status = models.MatchStatusInProgress
	default:
		out.Status = models.MatchStatusPending
	}

	return out
}
