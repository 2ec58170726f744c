package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"go.uber.org/zap"

	"geoclash/models"
	"geoclash/storage"
)

type battleFixture struct {
	svc        *BattleService
	battles    *storage.MemoryBattleStore
	characters *storage.MemoryCharacterStore
	users      *storage.MemoryUserStore
}

func newBattleFixture(t *testing.T, seed int64) *battleFixture {
	t.Helper()
	battles := storage.NewMemoryBattleStore()
	characters := storage.NewMemoryCharacterStore()
	users := storage.NewMemoryUserStore()
	ranking := NewRankingService(users, zap.NewNop())
	resolver := NewCombatResolver(rand.NewSource(seed))
	svc := NewBattleService(battles, characters, resolver, ranking, zap.NewNop())
	return &battleFixture{svc: svc, battles: battles, characters: characters, users: users}
}

func (f *battleFixture) addPlayer(t *testing.T, userID string) *models.Character {
	t.Helper()
	ctx := context.Background()
	if err := f.users.Upsert(ctx, &models.User{ID: userID, Name: userID, Points: 100, Status: "active"}); err != nil {
		t.Fatalf("Upsert(%s): %v", userID, err)
	}
	character, err := models.NewCharacter(userID, 1, userID+" fighter", models.CharacterStats{
		Agility: 50, Strength: 60, HP: 70, Defense: 40, Speed: 55,
	})
	if err != nil {
		t.Fatalf("NewCharacter: %v", err)
	}
	if err := f.characters.Create(ctx, character); err != nil {
		t.Fatalf("Create character: %v", err)
	}
	return character
}

func (f *battleFixture) startBattle(t *testing.T) *models.Battle {
	t.Helper()
	ctx := context.Background()
	c1 := f.addPlayer(t, "alice")
	c2 := f.addPlayer(t, "bob")
	battle, err := f.svc.CreateBattle(ctx, "alice", "bob", c1.ID, c2.ID)
	if err != nil {
		t.Fatalf("CreateBattle: %v", err)
	}
	battle, err = f.svc.StartBattle(ctx, battle.ID)
	if err != nil {
		t.Fatalf("StartBattle: %v", err)
	}
	return battle
}

// --- creation ---

func TestCreateBattle_SelfBattle(t *testing.T) {
	f := newBattleFixture(t, 1)
	c := f.addPlayer(t, "alice")
	if _, err := f.svc.CreateBattle(context.Background(), "alice", "alice", c.ID, c.ID); err != models.ErrSelfBattle {
		t.Fatalf("expected ErrSelfBattle, got %v", err)
	}
}

func TestCreateBattle_UnknownCharacter(t *testing.T) {
	f := newBattleFixture(t, 1)
	c := f.addPlayer(t, "alice")
	f.addPlayer(t, "bob")
	if _, err := f.svc.CreateBattle(context.Background(), "alice", "bob", c.ID, "missing"); err == nil {
		t.Fatal("unknown character should fail battle creation")
	}
}

func TestCreateBattle_BusyPlayer(t *testing.T) {
	f := newBattleFixture(t, 1)
	f.startBattle(t)

	c3 := f.addPlayer(t, "carol")
	bob, err := f.characters.ListByUser(context.Background(), "bob")
	if err != nil || len(bob) != 1 {
		t.Fatalf("ListByUser(bob): %v", err)
	}
	if _, err := f.svc.CreateBattle(context.Background(), "carol", "bob", c3.ID, bob[0].ID); err != ErrPlayerBusy {
		t.Fatalf("expected ErrPlayerBusy, got %v", err)
	}
}

// --- lifecycle ---

func TestStartBattle_Twice(t *testing.T) {
	f := newBattleFixture(t, 1)
	battle := f.startBattle(t)
	if _, err := f.svc.StartBattle(context.Background(), battle.ID); err != models.ErrInvalidTransition {
		t.Fatalf("double start should fail, got %v", err)
	}
}

func TestStartBattle_NotFound(t *testing.T) {
	f := newBattleFixture(t, 1)
	if _, err := f.svc.StartBattle(context.Background(), "nope"); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPerformAttack_PlayedToCompletion(t *testing.T) {
	f := newBattleFixture(t, 42)
	ctx := context.Background()
	battle := f.startBattle(t)

	// alternate turns until someone wins; well under 200 attacks at
	// these damage numbers
	for i := 0; i < 200; i++ {
		attacker := *battle.CurrentTurn
		updated, result, err := f.svc.PerformAttack(ctx, battle.ID, attacker, "")
		if err != nil {
			t.Fatalf("attack %d: %v", i, err)
		}
		if result.Damage < 0 {
			t.Fatalf("attack %d: negative damage %d", i, result.Damage)
		}
		battle = updated
		if battle.Status == models.BattleCompleted {
			break
		}
		if *battle.CurrentTurn == attacker {
			t.Fatalf("attack %d: turn did not change hands", i)
		}
	}

	if battle.Status != models.BattleCompleted {
		t.Fatal("battle never completed")
	}
	if battle.WinnerID == nil {
		t.Fatal("completed battle should have a winner")
	}
	if battle.PointsAwarded <= 0 {
		t.Fatalf("winner should be awarded points, got %d", battle.PointsAwarded)
	}

	winner, err := f.users.Get(ctx, *battle.WinnerID)
	if err != nil {
		t.Fatalf("Get winner: %v", err)
	}
	if winner.Points != 100+battle.PointsAwarded {
		t.Fatalf("winner points: expected %d, got %d", 100+battle.PointsAwarded, winner.Points)
	}
}

func TestPerformAttack_ConcurrentSubmissions(t *testing.T) {
	f := newBattleFixture(t, 9)
	ctx := context.Background()
	battle := f.startBattle(t)

	// one turn, many racing submissions: the per-battle lock serializes
	// them, so exactly one lands and the rest fail the turn check
	const attackers = 8
	results := make(chan error, attackers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attackers; i++ {
		go func() {
			start.Wait()
			_, _, err := f.svc.PerformAttack(ctx, battle.ID, "alice", "")
			results <- err
		}()
	}
	start.Done()

	succeeded, refused := 0, 0
	for i := 0; i < attackers; i++ {
		switch err := <-results; err {
		case nil:
			succeeded++
		case models.ErrNotYourTurn:
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || refused != attackers-1 {
		t.Fatalf("expected 1 success and %d turn refusals, got %d and %d",
			attackers-1, succeeded, refused)
	}

	// the stored battle reflects exactly one applied attack
	stored, err := f.svc.GetBattle(ctx, battle.ID)
	if err != nil {
		t.Fatalf("GetBattle: %v", err)
	}
	if stored.CurrentTurn == nil || *stored.CurrentTurn != "bob" {
		t.Fatalf("turn should have passed to bob exactly once, got %v", stored.CurrentTurn)
	}
	if stored.Player1.CurrentHP != models.DefaultMaxHP {
		t.Fatalf("alice was never attacked, got %d HP", stored.Player1.CurrentHP)
	}
}

func TestPerformAttack_OutOfTurn(t *testing.T) {
	f := newBattleFixture(t, 1)
	battle := f.startBattle(t)
	if _, _, err := f.svc.PerformAttack(context.Background(), battle.ID, "bob", ""); err != models.ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
}

func TestPerformAttack_UnknownAttackID(t *testing.T) {
	f := newBattleFixture(t, 1)
	battle := f.startBattle(t)
	if _, _, err := f.svc.PerformAttack(context.Background(), battle.ID, "alice", "mega-nuke"); err != ErrUnknownAttack {
		t.Fatalf("expected ErrUnknownAttack, got %v", err)
	}
}

func TestPerformAttack_CompletedBattle(t *testing.T) {
	f := newBattleFixture(t, 1)
	ctx := context.Background()
	battle := f.startBattle(t)
	if _, err := f.svc.CancelBattle(ctx, battle.ID, "alice"); err != nil {
		t.Fatalf("CancelBattle: %v", err)
	}
	if _, _, err := f.svc.PerformAttack(ctx, battle.ID, "alice", ""); err != models.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

// --- attack options ---

func TestAttackOptions_ForCurrentTurn(t *testing.T) {
	f := newBattleFixture(t, 1)
	ctx := context.Background()
	battle := f.startBattle(t)

	options, err := f.svc.AttackOptions(ctx, battle.ID, "alice")
	if err != nil {
		t.Fatalf("AttackOptions: %v", err)
	}
	if len(options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(options))
	}

	if _, err := f.svc.AttackOptions(ctx, battle.ID, "bob"); err != models.ErrNotYourTurn {
		t.Fatalf("off-turn player should get ErrNotYourTurn, got %v", err)
	}
}

// --- cancel ---

func TestCancelBattle_NonParticipant(t *testing.T) {
	f := newBattleFixture(t, 1)
	battle := f.startBattle(t)
	if _, err := f.svc.CancelBattle(context.Background(), battle.ID, "mallory"); err != models.ErrNotParticipant {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
}

// --- queries and statistics ---

func TestActiveBattles(t *testing.T) {
	f := newBattleFixture(t, 1)
	f.startBattle(t)
	active, err := f.svc.ActiveBattles(context.Background())
	if err != nil {
		t.Fatalf("ActiveBattles: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active battle, got %d", len(active))
	}
}

func TestStatistics(t *testing.T) {
	f := newBattleFixture(t, 7)
	ctx := context.Background()
	battle := f.startBattle(t)

	for battle.Status != models.BattleCompleted {
		updated, _, err := f.svc.PerformAttack(ctx, battle.ID, *battle.CurrentTurn, "")
		if err != nil {
			t.Fatalf("PerformAttack: %v", err)
		}
		battle = updated
	}

	winner := *battle.WinnerID
	loser, _ := battle.OpponentID(winner)

	stats, err := f.svc.Statistics(ctx, winner)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalBattles != 1 || stats.Wins != 1 || stats.Losses != 0 {
		t.Fatalf("winner stats off: %+v", stats)
	}
	if stats.WinRate != 100 {
		t.Fatalf("winner win rate should be 100, got %g", stats.WinRate)
	}

	stats, err = f.svc.Statistics(ctx, loser)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.Wins != 0 || stats.Losses != 1 {
		t.Fatalf("loser stats off: %+v", stats)
	}
}

func TestStatistics_NoBattles(t *testing.T) {
	f := newBattleFixture(t, 1)
	stats, err := f.svc.Statistics(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalBattles != 0 || stats.WinRate != 0 {
		t.Fatalf("empty stats expected, got %+v", stats)
	}
}
