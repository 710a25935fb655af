package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/ad-verify/internal/db"
)

// Message is one entry of a user's chat transcript.
type Message struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	Message   string    `json:"message"`
	IsUser    bool      `json:"is_user"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists chat transcripts.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Add appends a message to userID's transcript.
func (s *Store) Add(ctx context.Context, userID, text string, isUser bool) (*Message, error) {
	m := &Message{
		ID:        uuid.New().String(),
		UserID:    userID,
		Message:   text,
		IsUser:    isUser,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_messages (id, user_id, message, is_user, created_at) VALUES (?, ?, ?, ?, ?)",
		m.ID, m.UserID, m.Message, m.IsUser, db.FormatTime(m.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting chat message: %w", err)
	}
	return m, nil
}

// List returns userID's transcript, oldest first.
func (s *Store) List(ctx context.Context, userID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, is_user, created_at
		FROM chat_messages WHERE user_id = ?
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var (
			m  Message
			ts string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.IsUser, &ts); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = db.ParseTime(ts)
		out = append(out, m)
	}
	return out, rows.Err()
}
