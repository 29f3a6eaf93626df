package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

type postgresStore struct {
	db *sql.DB
}

func newPostgresStore(dsn string) (*postgresStore, error) {
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
CREATE TABLE IF NOT EXISTS accounts (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL,
    username_key  TEXT NOT NULL UNIQUE,
    password_hash BYTEA NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &postgresStore{db: db}, nil
}

func (s *postgresStore) create(username string, passwordHash []byte) (Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id uint64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO accounts (username, username_key, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, normalizeUsername(username), passwordHash).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return Account{}, ErrUsernameTaken
		}
		return Account{}, err
	}
	return Account{ID: id, Username: username}, nil
}

func (s *postgresStore) byUsername(username string) (Account, []byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		acc  Account
		hash []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM accounts WHERE username_key = $1`,
		normalizeUsername(username)).Scan(&acc.ID, &acc.Username, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, nil, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, nil, err
	}
	return acc, hash, nil
}

func (s *postgresStore) close() error { return s.db.Close() }
