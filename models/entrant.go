package models

import (
	"fmt"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// GroupKey identifies one competition group: age category, distance and gender.
// Every group gets its own independent elimination bracket.
type GroupKey struct {
	Category string `json:"category"`
	Distance int    `json:"distance"`
	Gender   Gender `json:"gender"`
}

func (g GroupKey) String() string {
	return fmt.Sprintf("%s-%dm-%s", g.Category, g.Distance, g.Gender)
}

// Entrant is an archer qualified into the elimination phase. Seed is
// assigned by the qualification subsystem (score desc, then tens, then Xs)
// and is immutable once the bracket is generated.
type Entrant struct {
	ID                 int       `json:"id"`
	FullName           string    `json:"full_name"`
	Club               *string   `json:"club,omitempty"`
	Seed               int       `json:"seed"`
	QualificationScore int       `json:"qualification_score"`
	Tens               int       `json:"tens"`
	Xs                 int       `json:"xs"`
	Category           string    `json:"category"`
	Distance           int       `json:"distance"`
	Gender             Gender    `json:"gender"`
	CreatedAt          time.Time `json:"created_at"`
}

func (e *Entrant) Group() GroupKey {
	return GroupKey{Category: e.Category, Distance: e.Distance, Gender: e.Gender}
}
