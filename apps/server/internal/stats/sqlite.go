package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type sqliteService struct {
	db *sql.DB
}

func newSQLiteService(dbPath string) (*sqliteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS player_stats (
    username_key    TEXT PRIMARY KEY,
    username        TEXT NOT NULL,
    rounds          INTEGER NOT NULL DEFAULT 0,
    wins            INTEGER NOT NULL DEFAULT 0,
    self_drawn_wins INTEGER NOT NULL DEFAULT 0,
    discard_wins    INTEGER NOT NULL DEFAULT 0,
    payouts         INTEGER NOT NULL DEFAULT 0,
    draws           INTEGER NOT NULL DEFAULT 0,
    score_delta     INTEGER NOT NULL DEFAULT 0,
    last_played     TIMESTAMP NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteService{db: db}, nil
}

func (s *sqliteService) RecordRound(ctx context.Context, outcomes []RoundOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, o := range outcomes {
		key := statsKey(o.Username)
		if key == "" {
			continue
		}
		var (
			win, selfDrawn, discardWin, payout, draw int
		)
		switch {
		case o.Win && o.SelfDrawn:
			win, selfDrawn = 1, 1
		case o.Win:
			win, discardWin = 1, 1
		case o.Payout:
			payout = 1
		case o.DrawGame:
			draw = 1
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO player_stats (username_key, username, rounds, wins, self_drawn_wins, discard_wins, payouts, draws, score_delta, last_played)
VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(username_key) DO UPDATE SET
    rounds = rounds + 1,
    wins = wins + excluded.wins,
    self_drawn_wins = self_drawn_wins + excluded.self_drawn_wins,
    discard_wins = discard_wins + excluded.discard_wins,
    payouts = payouts + excluded.payouts,
    draws = draws + excluded.draws,
    score_delta = score_delta + excluded.score_delta,
    last_played = excluded.last_played`,
			key, o.Username, win, selfDrawn, discardWin, payout, draw, o.Delta, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteService) Get(ctx context.Context, username string) (PlayerStats, error) {
	var ps PlayerStats
	err := s.db.QueryRowContext(ctx, `
SELECT username, rounds, wins, self_drawn_wins, discard_wins, payouts, draws, score_delta, last_played
FROM player_stats WHERE username_key = ?`, statsKey(username)).Scan(
		&ps.Username, &ps.Rounds, &ps.Wins, &ps.SelfDrawnWins, &ps.DiscardWins,
		&ps.Payouts, &ps.Draws, &ps.ScoreDelta, &ps.LastPlayed)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerStats{}, ErrNotFound
	}
	if err != nil {
		return PlayerStats{}, err
	}
	return ps, nil
}

func (s *sqliteService) Top(ctx context.Context, limit int) ([]PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT username, rounds, wins, self_drawn_wins, discard_wins, payouts, draws, score_delta, last_played
FROM player_stats ORDER BY score_delta DESC, username_key ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerStats
	for rows.Next() {
		var ps PlayerStats
		if err := rows.Scan(&ps.Username, &ps.Rounds, &ps.Wins, &ps.SelfDrawnWins, &ps.DiscardWins,
			&ps.Payouts, &ps.Draws, &ps.ScoreDelta, &ps.LastPlayed); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *sqliteService) Close() error { return s.db.Close() }
