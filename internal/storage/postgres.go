package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied on startup; both tables are idempotent to create.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS summaries (
	id           TEXT PRIMARY KEY,
	room_id      TEXT NOT NULL,
	participants TEXT[] NOT NULL,
	transcript   TEXT NOT NULL,
	summary      TEXT NOT NULL,
	audio_url    TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS summaries_participants_idx
	ON summaries USING GIN (participants);
`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() {
	p.db.Close()
}

// CreateSummary stores a new record.
func (p *PostgresStore) CreateSummary(ctx context.Context, s *Summary) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO summaries (id, room_id, participants, transcript, summary, audio_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.RoomID, s.Participants, s.Transcript, s.Summary, s.AudioURL, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting summary: %w", err)
	}
	return nil
}

// GetSummary fetches one record by ID.
func (p *PostgresStore) GetSummary(ctx context.Context, id string) (*Summary, error) {
	var s Summary
	err := p.db.QueryRow(ctx, `
		SELECT id, room_id, participants, transcript, summary, audio_url, created_at
		FROM summaries WHERE id = $1`, id,
	).Scan(&s.ID, &s.RoomID, &s.Participants, &s.Transcript, &s.Summary, &s.AudioURL, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching summary: %w", err)
	}
	return &s, nil
}

// ListSummariesByParticipant returns matching records newest first.
func (p *PostgresStore) ListSummariesByParticipant(ctx context.Context, participantID string) ([]*Summary, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, room_id, participants, transcript, summary, audio_url, created_at
		FROM summaries
		WHERE $1 = ANY(participants)
		ORDER BY created_at DESC`, participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing summaries: %w", err)
	}
	defer rows.Close()

	var out []*Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.RoomID, &s.Participants, &s.Transcript, &s.Summary, &s.AudioURL, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating summaries: %w", err)
	}
	return out, nil
}

// DeleteSummary removes one record.
func (p *PostgresStore) DeleteSummary(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM summaries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser stores a new account, mapping the unique-email violation
// to ErrEmailTaken.
func (p *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, lower($3), $4, $5)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUser fetches one account by ID.
func (p *PostgresStore) GetUser(ctx context.Context, id string) (*User, error) {
	return p.scanUser(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE id = $1`, id)
}

// GetUserByEmail fetches one account by email.
func (p *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return p.scanUser(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM users WHERE email = lower($1)`, email)
}

func (p *PostgresStore) scanUser(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := p.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}
