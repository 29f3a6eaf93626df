package history

import (
	"context"
	"database/sql"
	"encoding/json"
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
CREATE TABLE IF NOT EXISTS round_records (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    room_id   TEXT NOT NULL,
    round     INTEGER NOT NULL,
    win_type  TEXT NOT NULL,
    winners   TEXT NOT NULL,
    payer     INTEGER NOT NULL,
    draw_game INTEGER NOT NULL,
    players   TEXT NOT NULL,
    events    TEXT NOT NULL,
    played_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_round_records_room ON round_records(room_id, id DESC);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteService{db: db}, nil
}

func (s *sqliteService) Append(ctx context.Context, rec Record) error {
	winners, err := json.Marshal(rec.Winners)
	if err != nil {
		return err
	}
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return err
	}
	events, err := json.Marshal(rec.Events)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO round_records (room_id, round, win_type, winners, payer, draw_game, players, events, played_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RoomID, rec.Round, rec.WinType, string(winners), rec.Payer,
		boolToInt(rec.DrawGame), string(players), string(events), rec.PlayedAt.UTC())
	return err
}

func (s *sqliteService) ListRecent(ctx context.Context, roomID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
SELECT id, room_id, round, win_type, winners, payer, draw_game, players, events, played_at
FROM round_records`
	args := []any{}
	if roomID != "" {
		query += ` WHERE room_id = ?`
		args = append(args, roomID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			winners  string
			players  string
			events   string
			drawGame int
		)
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.Round, &rec.WinType,
			&winners, &rec.Payer, &drawGame, &players, &events, &rec.PlayedAt); err != nil {
			return nil, err
		}
		rec.DrawGame = drawGame != 0
		if err := json.Unmarshal([]byte(winners), &rec.Winners); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(players), &rec.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(events), &rec.Events); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqliteService) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
