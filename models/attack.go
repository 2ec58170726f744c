package models

// AttackType is an entry in the static attack catalog. The catalog is
// immutable reference data; damage is resolved per battle turn.
type AttackType struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BaseDamage     int    `json:"base_damage"`
	StatMultiplier string `json:"stat_multiplier"` // which CharacterStats field scales damage
	CriticalChance int    `json:"critical_chance"` // 0-100 percent
	Accuracy       int    `json:"accuracy"`        // 0-100 percent
	Description    string `json:"description"`
}

// AttackResult is the outcome of one resolved attack
type AttackResult struct {
	AttackID   string `json:"attack_id"`
	AttackName string `json:"attack_name"`
	Damage     int    `json:"damage"`
	IsCritical bool   `json:"is_critical"`
	IsHit      bool   `json:"is_hit"`
	Message    string `json:"message"`
}

var attackCatalog = []AttackType{
	{
		ID:             "quick-strike",
		Name:           "Quick Strike",
		BaseDamage:     8,
		StatMultiplier: "speed",
		CriticalChance: 15,
		Accuracy:       90,
		Description:    "A fast, precise attack that relies on speed",
	},
	{
		ID:             "power-slam",
		Name:           "Power Slam",
		BaseDamage:     15,
		StatMultiplier: "strength",
		CriticalChance: 10,
		Accuracy:       75,
		Description:    "A devastating attack that relies on raw strength",
	},
	{
		ID:             "agile-combo",
		Name:           "Agile Combo",
		BaseDamage:     12,
		StatMultiplier: "agility",
		CriticalChance: 20,
		Accuracy:       85,
		Description:    "A series of quick strikes that relies on agility",
	},
	{
		ID:             "defensive-counter",
		Name:           "Defensive Counter",
		BaseDamage:     10,
		StatMultiplier: "defense",
		CriticalChance: 12,
		Accuracy:       80,
		Description:    "A counter-attack that turns defense into offense",
	},
	{
		ID:             "balanced-strike",
		Name:           "Balanced Strike",
		BaseDamage:     10,
		StatMultiplier: "hp",
		CriticalChance: 15,
		Accuracy:       85,
		Description:    "A well-rounded attack that uses endurance",
	},
}

// AttackTypes returns a copy of the attack catalog
func AttackTypes() []AttackType {
	out := make([]AttackType, len(attackCatalog))
	copy(out, attackCatalog)
	return out
}

// AttackTypeByID looks up a catalog entry; nil when the id is unknown
func AttackTypeByID(id string) *AttackType {
	for i := range attackCatalog {
		if attackCatalog[i].ID == id {
			at := attackCatalog[i]
			return &at
		}
	}
	return nil
}
