package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinTier = 1
	MaxTier = 10

	minNameLength = 2
	maxNameLength = 30
)

var (
	ErrInvalidName   = errors.New("character name must be between 2 and 30 characters")
	ErrInvalidTier   = errors.New("tier must be between 1 and 10")
	ErrTierNotHigher = errors.New("new tier must be higher than current tier")
)

// CharacterStats holds the five combat stats, each in [0, 100]
type CharacterStats struct {
	Agility  int `json:"agility"`
	Strength int `json:"strength"`
	HP       int `json:"hp"`
	Defense  int `json:"defense"`
	Speed    int `json:"speed"`
}

// Stat returns the value of the stat with the given name
func (s CharacterStats) Stat(name string) (int, bool) {
	switch name {
	case "agility":
		return s.Agility, true
	case "strength":
		return s.Strength, true
	case "hp":
		return s.HP, true
	case "defense":
		return s.Defense, true
	case "speed":
		return s.Speed, true
	}
	return 0, false
}

// Validate checks that every stat is within [0, 100]
func (s CharacterStats) Validate() error {
	checks := []struct {
		name  string
		value int
	}{
		{"agility", s.Agility},
		{"strength", s.Strength},
		{"hp", s.HP},
		{"defense", s.Defense},
		{"speed", s.Speed},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %d", c.name, c.value)
		}
	}
	return nil
}

// StatUpdate is a partial stat change; nil fields are left untouched
type StatUpdate struct {
	Agility  *int `json:"agility,omitempty"`
	Strength *int `json:"strength,omitempty"`
	HP       *int `json:"hp,omitempty"`
	Defense  *int `json:"defense,omitempty"`
	Speed    *int `json:"speed,omitempty"`
}

// Character represents a playable character
type Character struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Tier      int            `json:"tier"`
	Name      string         `json:"name"`
	Stats     CharacterStats `json:"stats"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewCharacter validates and creates a character
func NewCharacter(userID string, tier int, name string, stats CharacterStats) (*Character, error) {
	name = strings.TrimSpace(name)
	if len(name) < minNameLength || len(name) > maxNameLength {
		return nil, ErrInvalidName
	}
	if tier < MinTier || tier > MaxTier {
		return nil, ErrInvalidTier
	}
	if err := stats.Validate(); err != nil {
		return nil, err
	}

	return &Character{
		ID:        uuid.New().String(),
		UserID:    userID,
		Tier:      tier,
		Name:      name,
		Stats:     stats,
		CreatedAt: time.Now(),
	}, nil
}

// UpdateStats applies a partial update and re-validates the result.
// On validation failure the character is left unchanged.
func (c *Character) UpdateStats(update StatUpdate) error {
	next := c.Stats
	if update.Agility != nil {
		next.Agility = *update.Agility
	}
	if update.Strength != nil {
		next.Strength = *update.Strength
	}
	if update.HP != nil {
		next.HP = *update.HP
	}
	if update.Defense != nil {
		next.Defense = *update.Defense
	}
	if update.Speed != nil {
		next.Speed = *update.Speed
	}
	if err := next.Validate(); err != nil {
		return err
	}
	c.Stats = next
	return nil
}

// UpgradeTier raises the tier; tiers never go down
func (c *Character) UpgradeTier(newTier int) error {
	if newTier < MinTier || newTier > MaxTier {
		return ErrInvalidTier
	}
	if newTier <= c.Tier {
		return ErrTierNotHigher
	}
	c.Tier = newTier
	return nil
}

// PowerLevel is the sum of all stats
func (c *Character) PowerLevel() int {
	return c.Stats.Agility + c.Stats.Strength + c.Stats.HP + c.Stats.Defense + c.Stats.Speed
}
