// Package auth manages user accounts, API tokens and stored provider keys.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ziadkadry99/ad-verify/internal/db"
)

var (
	ErrUsernameTaken      = errors.New("a user with that username already exists")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists users and their API tokens. Only SHA-256 hashes of the
// tokens are stored, so a token is shown to the client once.
type Store struct {
	db   *db.DB
	cost int
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, cost: bcrypt.DefaultCost}
}

// Register creates a user and issues its first token.
func (s *Store) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	username = strings.TrimSpace(username)

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&exists)
	if err != nil {
		return nil, "", fmt.Errorf("checking username: %w", err)
	}
	if exists > 0 {
		return nil, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	u := &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Username, u.Email, u.PasswordHash, db.FormatTime(u.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("inserting user: %w", err)
	}

	token, err := s.IssueToken(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login checks the password and issues a new token.
func (s *Store) Login(ctx context.Context, username, password string) (*User, string, error) {
	u, err := s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?",
		strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// IssueToken creates a new API token for the user and returns it in clear.
func (s *Store) IssueToken(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (token_hash, user_id, created_at) VALUES (?, ?, ?)",
		hashToken(token), userID, db.FormatTime(time.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}

// UserForToken resolves a clear-text token to its user.
func (s *Store) UserForToken(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	hash := hashToken(token)
	u, err := s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.created_at
		FROM auth_tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = ?`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}

	_, err = s.db.ExecContext(ctx, "UPDATE auth_tokens SET last_used = ? WHERE token_hash = ?",
		db.FormatTime(time.Now()), hash)
	if err != nil {
		return nil, fmt.Errorf("touching token: %w", err)
	}
	return u, nil
}

// GetUser returns the user with the given id.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at FROM users WHERE id = ?", id))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var (
		u  User
		ts string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &ts); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = db.ParseTime(ts)
	return &u, nil
}

// generateToken returns 20 random bytes as 40 hex characters.
func generateToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
