package models

import "time"

type UserRole string

const (
	RoleOrganizer UserRole = "organizer"
	RoleJudge     UserRole = "judge"
)

// User is a tournament official. Judges confirm sets and resolve shoot-offs;
// organizers additionally generate brackets and publish results.
type User struct {
	ID           int       `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
