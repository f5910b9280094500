package models

import (
	"database/sql"
	"time"
)

// Player represents a registered user.
type Player struct {
	ID           int            `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	DisplayName  string         `db:"display_name" json:"display_name"`
	PasswordHash string         `db:"password_hash" json:"-"`
	PhoneNumber  sql.NullString `db:"phone_number" json:"phone_number,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	GamesPlayed  int            `db:"games_played" json:"games_played"`
	BestScore    int            `db:"best_score" json:"best_score"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	LastActive   sql.NullTime   `db:"last_active" json:"last_active,omitempty"`
}

// GameSession represents one player's run.
type GameSession struct {
	ID           int           `db:"id" json:"id"`
	SessionToken string        `db:"session_token" json:"session_token"`
	PlayerID     int           `db:"player_id" json:"player_id"`
	Status       string        `db:"status" json:"status"`
	FinalScore   sql.NullInt64 `db:"final_score" json:"final_score,omitempty"`
	FinalLevel   sql.NullInt64 `db:"final_level" json:"final_level,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	StartedAt    sql.NullTime  `db:"started_at" json:"started_at,omitempty"`
	CompletedAt  sql.NullTime  `db:"completed_at" json:"completed_at,omitempty"`
	ExpiresAt    time.Time     `db:"expires_at" json:"expires_at"`
}

// Score is one finished run's result row.
type Score struct {
	ID           int       `db:"id" json:"id"`
	SessionID    int       `db:"session_id" json:"session_id"`
	PlayerID     int       `db:"player_id" json:"player_id"`
	Score        int       `db:"score" json:"score"`
	LevelReached int       `db:"level_reached" json:"level_reached"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Rank         int       `db:"-" json:"rank"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	Score        int       `db:"score" json:"score"`
	LevelReached int       `db:"level_reached" json:"level_reached"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
