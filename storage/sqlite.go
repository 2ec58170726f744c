package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"geoclash/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// OpenSQLite opens the database, tunes it and runs migrations
func OpenSQLite(path string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database opened and migrated", zap.String("path", path))
	return db, nil
}

// SQLiteUserStore persists user profiles and ranking points
type SQLiteUserStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteUserStore creates a SQLite-backed user store
func NewSQLiteUserStore(db *sql.DB, logger *zap.Logger) *SQLiteUserStore {
	return &SQLiteUserStore{db: db, logger: logger}
}

func (s *SQLiteUserStore) Get(ctx context.Context, id string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, points, ranking, status, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (s *SQLiteUserStore) Upsert(ctx context.Context, user *models.User) error {
	var ranking sql.NullInt64
	if user.Ranking != nil {
		ranking = sql.NullInt64{Int64: int64(*user.Ranking), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, points, ranking, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   name = excluded.name,
		   email = excluded.email,
		   points = excluded.points,
		   ranking = excluded.ranking,
		   status = excluded.status`,
		user.ID, user.Name, user.Email, user.Points, ranking, user.Status, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.ID, err)
	}
	return nil
}

func (s *SQLiteUserStore) UpdatePoints(ctx context.Context, id string, points int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET points = ? WHERE id = ?`, points, id)
	if err != nil {
		return fmt.Errorf("failed to update points: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteUserStore) UpdateRanking(ctx context.Context, id string, ranking int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET ranking = ? WHERE id = ?`, ranking, id)
	if err != nil {
		return fmt.Errorf("failed to update ranking: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteUserStore) TopPlayers(ctx context.Context, limit int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, points, ranking, status, created_at
		 FROM users ORDER BY points DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top players: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var ranking sql.NullInt64
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Points, &ranking, &user.Status, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if ranking.Valid {
		r := int(ranking.Int64)
		user.Ranking = &r
	}
	return &user, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SQLiteCharacterStore persists characters
type SQLiteCharacterStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteCharacterStore creates a SQLite-backed character store
func NewSQLiteCharacterStore(db *sql.DB, logger *zap.Logger) *SQLiteCharacterStore {
	return &SQLiteCharacterStore{db: db, logger: logger}
}

func (s *SQLiteCharacterStore) Create(ctx context.Context, character *models.Character) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (id, user_id, tier, name, agility, strength, hp, defense, speed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		character.ID, character.UserID, character.Tier, character.Name,
		character.Stats.Agility, character.Stats.Strength, character.Stats.HP,
		character.Stats.Defense, character.Stats.Speed, character.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert character %s: %w", character.ID, err)
	}
	return nil
}

func (s *SQLiteCharacterStore) Get(ctx context.Context, id string) (*models.Character, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, tier, name, agility, strength, hp, defense, speed, created_at
		 FROM characters WHERE id = ?`, id)
	return scanCharacter(row)
}

func (s *SQLiteCharacterStore) ListByUser(ctx context.Context, userID string) ([]*models.Character, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, tier, name, agility, strength, hp, defense, speed, created_at
		 FROM characters WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	defer rows.Close()

	var characters []*models.Character
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, character)
	}
	return characters, rows.Err()
}

func (s *SQLiteCharacterStore) Update(ctx context.Context, character *models.Character) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE characters SET tier = ?, name = ?, agility = ?, strength = ?, hp = ?, defense = ?, speed = ?
		 WHERE id = ?`,
		character.Tier, character.Name,
		character.Stats.Agility, character.Stats.Strength, character.Stats.HP,
		character.Stats.Defense, character.Stats.Speed, character.ID)
	if err != nil {
		return fmt.Errorf("failed to update character %s: %w", character.ID, err)
	}
	return requireRow(result)
}

func (s *SQLiteCharacterStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete character %s: %w", id, err)
	}
	return requireRow(result)
}

func scanCharacter(row rowScanner) (*models.Character, error) {
	var character models.Character
	err := row.Scan(&character.ID, &character.UserID, &character.Tier, &character.Name,
		&character.Stats.Agility, &character.Stats.Strength, &character.Stats.HP,
		&character.Stats.Defense, &character.Stats.Speed, &character.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan character: %w", err)
	}
	return &character, nil
}
