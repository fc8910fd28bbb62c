package scoring

import "errors"

var (
	// ErrShootoffDistanceRequired: equal arrow values need a
	// closest-to-center measurement for both sides before a winner
	// can be declared.
	ErrShootoffDistanceRequired = errors.New("shoot-off arrows are equal, closest-to-center distances required for both archers")

	// ErrAmbiguousShootoff: equal values and equal distances. There is no
	// automatic tie-break; the operator must re-measure.
	ErrAmbiguousShootoff = errors.New("shoot-off is tied on value and distance, re-measure required")
)

// ResolveShootoff decides a tied match from one arrow per side. Higher
// arrow value wins outright; on equal values the smaller closest-to-center
// distance wins. Returns the winning slot (1 or 2).
func ResolveShootoff(arrow1, arrow2 int64, dist1, dist2 *float64) (int, error) {
	if err := ValidateArrows([]int64{arrow1, arrow2}); err != nil {
		return 0, err
	}

	s1, s2 := ArrowScore(arrow1), ArrowScore(arrow2)
	if s1 > s2 {
		return 1, nil
	}
	if s2 > s1 {
		return 2, nil
	}

	if dist1 == nil || dist2 == nil {
		return 0, ErrShootoffDistanceRequired
	}
	if *dist1 < 0 || *dist2 < 0 {
		return 0, ErrShootoffDistanceRequired
	}
	if *dist1 == *dist2 {
		return 0, ErrAmbiguousShootoff
	}
	if *dist1 < *dist2 {
		return 1, nil
	}
	return 2, nil
}
