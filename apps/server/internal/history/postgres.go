package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type postgresService struct {
	db *sql.DB
}

func newPostgresService(dsn string) (*postgresService, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS round_records (
    id        BIGSERIAL PRIMARY KEY,
    room_id   TEXT NOT NULL,
    round     INTEGER NOT NULL,
    win_type  TEXT NOT NULL,
    winners   JSONB NOT NULL,
    payer     INTEGER NOT NULL,
    draw_game BOOLEAN NOT NULL,
    players   JSONB NOT NULL,
    events    JSONB NOT NULL,
    played_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_round_records_room ON round_records(room_id, id DESC);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &postgresService{db: db}, nil
}

func (s *postgresService) Append(ctx context.Context, rec Record) error {
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
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.RoomID, rec.Round, rec.WinType, winners, rec.Payer, rec.DrawGame, players, events, rec.PlayedAt.UTC())
	return err
}

func (s *postgresService) ListRecent(ctx context.Context, roomID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
SELECT id, room_id, round, win_type, winners, payer, draw_game, players, events, played_at
FROM round_records`
	args := []any{}
	if roomID != "" {
		query += ` WHERE room_id = $1 ORDER BY id DESC LIMIT $2`
		args = append(args, roomID, limit)
	} else {
		query += ` ORDER BY id DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			winners []byte
			players []byte
			events  []byte
		)
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.Round, &rec.WinType,
			&winners, &rec.Payer, &rec.DrawGame, &players, &events, &rec.PlayedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(winners, &rec.Winners); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &rec.Events); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *postgresService) Close() error { return s.db.Close() }
