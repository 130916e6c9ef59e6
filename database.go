package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// MatchRow represents a completed match
type MatchRow struct {
	ID        int64       `json:"id"`
	SessionID string      `json:"sid"`
	Mode      string      `json:"mode"`
	Ends      int         `json:"ends"`
	Red       int         `json:"red"`
	Blue      int         `json:"blue"`
	Winner    string      `json:"winner"` // "red", "blue" or "draw"
	CreatedAt time.Time   `json:"created_at"`
	EndScores []EndResult `json:"end_scores,omitempty"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL DEFAULT 'casual',
		ends INTEGER NOT NULL DEFAULT 0,
		red_score INTEGER NOT NULL DEFAULT 0,
		blue_score INTEGER NOT NULL DEFAULT 0,
		winner TEXT NOT NULL DEFAULT 'draw',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_ends (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		end_number INTEGER NOT NULL,
		team TEXT NOT NULL,
		points INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, end_number)
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		session_id TEXT,
		data TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_created ON matches(created_at);
	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// RecordResult stores a finished match and its end-by-end scores
func (db *DB) RecordResult(res MatchResult) error {
	winner := "draw"
	if t, ok := res.Winner(); ok {
		winner = t.String()
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	r, err := tx.Exec(
		"INSERT INTO matches (session_id, mode, ends, red_score, blue_score, winner) VALUES (?, ?, ?, ?, ?, ?)",
		res.SessionID, res.Mode.String(), res.TotalEnds, res.Red, res.Blue, winner,
	)
	if err != nil {
		return err
	}
	matchID, err := r.LastInsertId()
	if err != nil {
		return err
	}
	for _, e := range res.Ends {
		if _, err := tx.Exec(
			"INSERT INTO match_ends (match_id, end_number, team, points) VALUES (?, ?, ?, ?)",
			matchID, e.End, e.Team.String(), e.Points,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentMatches returns the latest finished matches, newest first
func (db *DB) RecentMatches(limit int) ([]MatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, session_id, mode, ends, red_score, blue_score, winner, created_at
		FROM matches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchRow
	for rows.Next() {
		var m MatchRow
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Mode, &m.Ends, &m.Red, &m.Blue, &m.Winner, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// MatchEnds returns the end-by-end scores of a match
func (db *DB) MatchEnds(matchID int64) ([]EndResult, error) {
	rows, err := db.conn.Query(
		"SELECT end_number, team, points FROM match_ends WHERE match_id = ? ORDER BY end_number",
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EndResult
	for rows.Next() {
		var e EndResult
		var team string
		if err := rows.Scan(&e.End, &team, &e.Points); err != nil {
			return nil, err
		}
		e.Team, _ = ParseTeam(team)
		result = append(result, e)
	}
	return result, rows.Err()
}

// TeamWins returns how many recorded matches each team won
func (db *DB) TeamWins() (red, blue int, err error) {
	err = db.conn.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN winner = 'red' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN winner = 'blue' THEN 1 ELSE 0 END), 0)
		FROM matches`).Scan(&red, &blue)
	return red, blue, err
}

// GetSetting returns a stored setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
