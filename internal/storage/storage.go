// Package storage defines the persistence collaborators: summary
// records and user accounts, with in-memory and Postgres
// implementations.
package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned when a signup reuses an email address.
	ErrEmailTaken = errors.New("email already registered")
)

// Summary is the persisted result of a completed transcription job.
type Summary struct {
	ID           string    `json:"id"`
	RoomID       string    `json:"roomId"`
	Participants []string  `json:"participants"`
	Transcript   string    `json:"transcript"`
	Summary      string    `json:"summary"`
	AudioURL     string    `json:"audioUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HasParticipant reports whether the given identity is among the
// record's participants.
func (s *Summary) HasParticipant(id string) bool {
	for _, p := range s.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// User is a registered account. The password is stored only as a
// bcrypt hash.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SummaryStore persists summary records.
type SummaryStore interface {
	// CreateSummary stores a new record.
	CreateSummary(ctx context.Context, s *Summary) error

	// GetSummary fetches one record by ID, or ErrNotFound.
	GetSummary(ctx context.Context, id string) (*Summary, error)

	// ListSummariesByParticipant returns every record the identity is
	// a participant of, newest first.
	ListSummariesByParticipant(ctx context.Context, participantID string) ([]*Summary, error)

	// DeleteSummary removes one record, or ErrNotFound.
	DeleteSummary(ctx context.Context, id string) error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser stores a new account, or ErrEmailTaken.
	CreateUser(ctx context.Context, u *User) error

	// GetUser fetches one account by ID, or ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByEmail fetches one account by email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Store combines both persistence collaborators.
type Store interface {
	SummaryStore
	UserStore
}
