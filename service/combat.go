package service

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"geoclash/models"
)

const criticalMultiplier = 1.5

// CombatResolver turns an attacker's stats and an attack choice into a
// damage outcome. It has no side effects beyond consuming randomness;
// tests pass a seeded source for deterministic results.
type CombatResolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCombatResolver creates a resolver. A nil source seeds from the clock.
func NewCombatResolver(src rand.Source) *CombatResolver {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &CombatResolver{rng: rand.New(src)}
}

// ResolveRandomAttack picks an attack type uniformly at random from the
// catalog and resolves it
func (r *CombatResolver) ResolveRandomAttack(attackerStats models.CharacterStats) models.AttackResult {
	catalog := models.AttackTypes()
	r.mu.Lock()
	attackType := catalog[r.rng.Intn(len(catalog))]
	r.mu.Unlock()
	return r.ResolveAttack(attackType, attackerStats)
}

// ResolveAttack runs the full damage pipeline for one attack: accuracy
// roll, stat scaling, critical roll, then a final multiplier uniform in
// [0.8, 1.2). Hit damage never drops below 1.
func (r *CombatResolver) ResolveAttack(attackType models.AttackType, attackerStats models.CharacterStats) models.AttackResult {
	r.mu.Lock()
	hitRoll := r.rng.Float64() * 100
	critRoll := r.rng.Float64() * 100
	randomMultiplier := 0.8 + r.rng.Float64()*0.4
	r.mu.Unlock()

	if hitRoll > float64(attackType.Accuracy) {
		return models.AttackResult{
			AttackID:   attackType.ID,
			AttackName: attackType.Name,
			Damage:     0,
			IsCritical: false,
			IsHit:      false,
			Message:    fmt.Sprintf("%s missed!", attackType.Name),
		}
	}

	damage := ExpectedDamage(attackType, attackerStats)

	isCritical := critRoll <= float64(attackType.CriticalChance)
	if isCritical {
		damage = int(math.Floor(float64(damage) * criticalMultiplier))
	}

	damage = int(math.Floor(float64(damage) * randomMultiplier))
	if damage < 1 {
		damage = 1
	}

	message := fmt.Sprintf("%s hit for %d damage!", attackType.Name, damage)
	if isCritical {
		message = fmt.Sprintf("Critical %s! Dealt %d damage!", attackType.Name, damage)
	}

	return models.AttackResult{
		AttackID:   attackType.ID,
		AttackName: attackType.Name,
		Damage:     damage,
		IsCritical: isCritical,
		IsHit:      true,
		Message:    message,
	}
}

// AttackOptions returns count distinct attack types drawn without
// replacement, capped at the catalog size
func (r *CombatResolver) AttackOptions(count int) []models.AttackType {
	catalog := models.AttackTypes()
	r.mu.Lock()
	r.rng.Shuffle(len(catalog), func(i, j int) {
		catalog[i], catalog[j] = catalog[j], catalog[i]
	})
	r.mu.Unlock()
	if count > len(catalog) {
		count = len(catalog)
	}
	if count < 0 {
		count = 0
	}
	return catalog[:count]
}

// ExpectedDamage is the deterministic pre-roll damage of an attack:
// floor(baseDamage * (1 + stat/100)). Used for UI previews.
func ExpectedDamage(attackType models.AttackType, attackerStats models.CharacterStats) int {
	statValue, _ := attackerStats.Stat(attackType.StatMultiplier)
	multiplier := 1 + float64(statValue)/100
	return int(math.Floor(float64(attackType.BaseDamage) * multiplier))
}
