package models

import "testing"

func TestAttackTypes_Catalog(t *testing.T) {
	types := AttackTypes()
	if len(types) != 5 {
		t.Fatalf("expected 5 attack types, got %d", len(types))
	}
	seen := make(map[string]bool)
	for _, at := range types {
		if seen[at.ID] {
			t.Fatalf("duplicate attack id %q", at.ID)
		}
		seen[at.ID] = true
		if at.BaseDamage <= 0 {
			t.Fatalf("%s: base damage must be positive", at.ID)
		}
		if at.Accuracy <= 0 || at.Accuracy > 100 {
			t.Fatalf("%s: accuracy out of range: %d", at.ID, at.Accuracy)
		}
		if _, ok := (CharacterStats{}).Stat(at.StatMultiplier); !ok {
			t.Fatalf("%s: unknown stat multiplier %q", at.ID, at.StatMultiplier)
		}
	}
}

func TestAttackTypes_ReturnsCopy(t *testing.T) {
	types := AttackTypes()
	types[0].BaseDamage = 9999
	if AttackTypes()[0].BaseDamage == 9999 {
		t.Fatal("mutating the returned slice should not touch the catalog")
	}
}

func TestAttackTypeByID(t *testing.T) {
	at := AttackTypeByID("power-slam")
	if at == nil {
		t.Fatal("power-slam should exist")
	}
	if at.BaseDamage != 15 || at.StatMultiplier != "strength" {
		t.Fatalf("unexpected power-slam entry: %+v", at)
	}
	if AttackTypeByID("nonexistent") != nil {
		t.Fatal("unknown id should return nil")
	}
}
