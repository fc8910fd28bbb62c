// Package scoring holds the pure set-play rules of an elimination match:
// per-set scoring, the match state machine and the shoot-off procedure.
// Nothing here touches storage; services feed it confirmed set history and
// persist whatever it decides.
package scoring

import (
	"errors"
	"fmt"

	"github.com/Dosada05/archery-system/models"
)

var (
	ErrIncompleteSet     = errors.New("set confirmation requires all arrow values for both archers")
	ErrInvalidArrowValue = errors.New("arrow value out of range")
)

// ArrowScore converts a recorded arrow value into its point value.
// The inner-ten marker scores 10 like a regular ten.
func ArrowScore(v int64) int {
	if v == models.ArrowValueX {
		return 10
	}
	return int(v)
}

// ArrowTotal sums the point values of a group of arrows.
func ArrowTotal(arrows []int64) int {
	total := 0
	for _, v := range arrows {
		total += ArrowScore(v)
	}
	return total
}

// CountInnerTens returns how many arrows are inner-tens, kept as a
// tie-break statistic.
func CountInnerTens(arrows []int64) int {
	n := 0
	for _, v := range arrows {
		if v == models.ArrowValueX {
			n++
		}
	}
	return n
}

func ValidateArrows(arrows []int64) error {
	for _, v := range arrows {
		if v < 0 || (v > models.ArrowValueMax && v != models.ArrowValueX) {
			return fmt.Errorf("%w: %d", ErrInvalidArrowValue, v)
		}
	}
	return nil
}

// ScoreSet compares two fully shot arrow groups and returns the set points
// for each side: 2/0 for a win, 1/1 for a tie. Both groups must contain
// exactly models.ArrowsPerSet values.
func ScoreSet(slot1, slot2 []int64) (int, int, error) {
	if len(slot1) != models.ArrowsPerSet || len(slot2) != models.ArrowsPerSet {
		return 0, 0, ErrIncompleteSet
	}
	if err := ValidateArrows(slot1); err != nil {
		return 0, 0, err
	}
	if err := ValidateArrows(slot2); err != nil {
		return 0, 0, err
	}

	t1, t2 := ArrowTotal(slot1), ArrowTotal(slot2)
	switch {
	case t1 > t2:
		return models.SetWinPoints, 0, nil
	case t2 > t1:
		return 0, models.SetWinPoints, nil
	default:
		return models.SetTiePoints, models.SetTiePoints, nil
	}
}
