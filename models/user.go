package models

import (
	"errors"
	"time"
)

var ErrNegativePoints = errors.New("points cannot be negative")

// User is a player profile; authentication happens upstream, the core
// only ever sees verified user ids
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Points    int       `json:"points"`
	Ranking   *int      `json:"ranking"` // nil until the first recompute
	Status    string    `json:"status"`  // "active", "inactive", "pending"
	CreatedAt time.Time `json:"created_at"`
}

// AddPoints increases the user's points
func (u *User) AddPoints(points int) error {
	if points < 0 {
		return ErrNegativePoints
	}
	u.Points += points
	return nil
}

// DeductPoints lowers the user's points, never below zero
func (u *User) DeductPoints(points int) error {
	if points < 0 {
		return ErrNegativePoints
	}
	u.Points -= points
	if u.Points < 0 {
		u.Points = 0
	}
	return nil
}
