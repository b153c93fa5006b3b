package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Player represents one practicing player. Guests get a row too; the JWT
// subject is the player ID.
type Player struct {
	ID         string    `json:"id"`
	Nickname   string    `json:"nickname"`
	Guest      bool      `json:"guest"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// GameResult is one finished game session.
type GameResult struct {
	ID        string          `json:"id,omitempty"`
	PlayerID  string          `json:"player_id"`
	Game      string          `json:"game"` // spelling, wrongname, sales, gift
	Score     int             `json:"score"`
	Rounds    int             `json:"rounds"`
	Details   json.RawMessage `json:"details,omitempty"` // per-game extras (verdict, round feedback)
	CreatedAt time.Time       `json:"created_at"`
}

// PlayerStats aggregates a player's practice history.
type PlayerStats struct {
	GamesPlayed int            `json:"games_played"`
	BestScores  map[string]int `json:"best_scores"`
	StreakDays  int            `json:"streak_days"`
}

// CreatePlayer inserts a new player and returns it.
func (s *Store) CreatePlayer(ctx context.Context, nickname string, guest bool) (*Player, error) {
	var p Player
	err := s.db.QueryRow(ctx, `
		INSERT INTO players (nickname, guest)
		VALUES ($1, $2)
		RETURNING id, nickname, guest, created_at, last_seen_at
	`, nickname, guest).Scan(&p.ID, &p.Nickname, &p.Guest, &p.CreatedAt, &p.LastSeenAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlayerByID retrieves a player by ID.
func (s *Store) GetPlayerByID(ctx context.Context, id string) (*Player, error) {
	var p Player
	err := s.db.QueryRow(ctx, `
		SELECT id, nickname, guest, created_at, last_seen_at
		FROM players
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Nickname, &p.Guest, &p.CreatedAt, &p.LastSeenAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// TouchPlayer bumps last_seen_at; called on every authenticated request.
func (s *Store) TouchPlayer(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE players SET last_seen_at = NOW() WHERE id = $1
	`, id)
	return err
}

// InsertGameResult records one finished game session.
func (s *Store) InsertGameResult(ctx context.Context, r GameResult) error {
	details := r.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO game_results (id, player_id, game, score, rounds, details)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
	`, r.PlayerID, r.Game, r.Score, r.Rounds, details)
	return err
}

// ListGameResults returns a player's most recent results, newest first.
func (s *Store) ListGameResults(ctx context.Context, playerID string, limit int) ([]GameResult, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, player_id, game, score, rounds, details, created_at
		FROM game_results
		WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []GameResult
	for rows.Next() {
		var r GameResult
		var details []byte
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.Game, &r.Score, &r.Rounds, &details, &r.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			r.Details = json.RawMessage(details)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// GetPlayerStats aggregates games played, best score per game, and the
// current daily practice streak.
func (s *Store) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	stats := &PlayerStats{BestScores: map[string]int{}}

	rows, err := s.db.Query(ctx, `
		SELECT game, COUNT(*), MAX(score)
		FROM game_results
		WHERE player_id = $1
		GROUP BY game
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var game string
		var count, best int
		if err := rows.Scan(&game, &count, &best); err != nil {
			return nil, err
		}
		stats.GamesPlayed += count
		stats.BestScores[game] = best
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days, err := s.practiceDays(ctx, playerID)
	if err != nil {
		return nil, err
	}
	stats.StreakDays = CountStreak(days, time.Now().UTC())
	return stats, nil
}

// practiceDays returns the distinct UTC days with at least one result,
// newest first.
func (s *Store) practiceDays(ctx context.Context, playerID string) ([]time.Time, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT date_trunc('day', created_at AT TIME ZONE 'UTC')
		FROM game_results
		WHERE player_id = $1
		ORDER BY 1 DESC
		LIMIT 366
	`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// CountStreak counts consecutive practice days ending today or yesterday.
// days must be distinct day-truncated timestamps, newest first. A player who
// practiced yesterday but not yet today still holds their streak.
func CountStreak(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expected := today
	if !sameDay(days[0], today) {
		expected = today.AddDate(0, 0, -1)
		if !sameDay(days[0], expected) {
			return 0
		}
	}

	streak := 0
	for _, day := range days {
		if !sameDay(day, expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// IdlePlayersWithTokens returns players who have a push token registered but
// have not finished a game since the cutoff. Used by the practice reminder
// job.
func (s *Store) IdlePlayersWithTokens(ctx context.Context, cutoff time.Time) ([]Player, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT p.id, p.nickname, p.guest, p.created_at, p.last_seen_at
		FROM players p
		JOIN device_push_tokens t ON t.player_id = p.id
		WHERE NOT EXISTS (
			SELECT 1 FROM game_results r
			WHERE r.player_id = p.id AND r.created_at > $1
		)
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var p Player
		if err := rows.Scan(&p.ID, &p.Nickname, &p.Guest, &p.CreatedAt, &p.LastSeenAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// DeletePlayer removes a player and all their data.
func (s *Store) DeletePlayer(ctx context.Context, id string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM game_results WHERE player_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM device_push_tokens WHERE player_id = $1`, id); err != nil {
		return err
	}
	result, err := tx.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}
