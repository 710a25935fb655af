package ads

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/ad-verify/internal/db"
)

// Store provides CRUD operations for advertisements and results.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// execer is implemented by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateAdvertisement inserts ad, filling in ID and CreatedAt when empty.
func (s *Store) CreateAdvertisement(ctx context.Context, ad *Advertisement) error {
	return insertAdvertisement(ctx, s.db, ad)
}

func insertAdvertisement(ctx context.Context, ex execer, ad *Advertisement) error {
	if ad.ID == "" {
		ad.ID = uuid.New().String()
	}
	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = time.Now().UTC()
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO advertisements (id, content, url, image_url, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ad.ID, ad.Content, ad.URL, ad.ImageURL, ad.CreatedBy, db.FormatTime(ad.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting advertisement: %w", err)
	}
	return nil
}

// GetAdvertisement returns the advertisement with the given id.
func (s *Store) GetAdvertisement(ctx context.Context, id string) (*Advertisement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, content, url, image_url, created_by, created_at
		FROM advertisements WHERE id = ?`, id)
	ad, err := scanAdvertisement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ad, err
}

// ListAdvertisements returns all advertisements, newest first.
func (s *Store) ListAdvertisements(ctx context.Context) ([]Advertisement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, url, image_url, created_by, created_at
		FROM advertisements ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing advertisements: %w", err)
	}
	defer rows.Close()

	out := []Advertisement{}
	for rows.Next() {
		ad, err := scanAdvertisement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ad)
	}
	return out, rows.Err()
}

// DeleteAdvertisement removes an advertisement created by userID together
// with its results.
func (s *Store) DeleteAdvertisement(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM advertisements WHERE id = ? AND created_by = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting advertisement: %w", err)
	}
	return expectOne(res)
}

// CreateResult inserts r, filling in ID and CreatedAt when empty.
func (s *Store) CreateResult(ctx context.Context, r *VerificationResult) error {
	return insertResult(ctx, s.db, r)
}

func insertResult(ctx context.Context, ex execer, r *VerificationResult) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Issues == nil {
		r.Issues = []string{}
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	issues, err := json.Marshal(r.Issues)
	if err != nil {
		return fmt.Errorf("marshalling issues: %w", err)
	}
	recs, err := json.Marshal(r.Recommendations)
	if err != nil {
		return fmt.Errorf("marshalling recommendations: %w", err)
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO verification_results (
			id, advertisement_id, user_id, credibility_score, explanation,
			issues, recommendations, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AdvertisementID, r.UserID, r.CredibilityScore, r.Explanation,
		string(issues), string(recs), db.FormatTime(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting verification result: %w", err)
	}
	return nil
}

// RecordVerification stores an advertisement and its result atomically.
// The result's AdvertisementID is set from ad.
func (s *Store) RecordVerification(ctx context.Context, ad *Advertisement, r *VerificationResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertAdvertisement(ctx, tx, ad); err != nil {
		return err
	}
	r.AdvertisementID = ad.ID
	if err := insertResult(ctx, tx, r); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing verification: %w", err)
	}
	r.AdvertisementContent = ad.Content
	return nil
}

const resultColumns = `
	r.id, r.advertisement_id, r.user_id, r.credibility_score, r.explanation,
	r.issues, r.recommendations, r.created_at, a.content`

// GetResult returns a result owned by userID.
func (s *Store) GetResult(ctx context.Context, id, userID string) (*VerificationResult, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+resultColumns+`
		FROM verification_results r JOIN advertisements a ON a.id = r.advertisement_id
		WHERE r.id = ? AND r.user_id = ?`, id, userID)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// ListResults returns the results owned by userID, newest first.
func (s *Store) ListResults(ctx context.Context, userID string) ([]VerificationResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resultColumns+`
		FROM verification_results r JOIN advertisements a ON a.id = r.advertisement_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC, r.rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing verification results: %w", err)
	}
	defer rows.Close()

	out := []VerificationResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteResult removes a result owned by userID.
func (s *Store) DeleteResult(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM verification_results WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting verification result: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAdvertisement(sc scanner) (*Advertisement, error) {
	var (
		ad Advertisement
		ts string
	)
	if err := sc.Scan(&ad.ID, &ad.Content, &ad.URL, &ad.ImageURL, &ad.CreatedBy, &ts); err != nil {
		return nil, err
	}
	ad.CreatedAt, _ = db.ParseTime(ts)
	return &ad, nil
}

func scanResult(sc scanner) (*VerificationResult, error) {
	var (
		r                VerificationResult
		issues, recs, ts string
	)
	err := sc.Scan(&r.ID, &r.AdvertisementID, &r.UserID, &r.CredibilityScore, &r.Explanation,
		&issues, &recs, &ts, &r.AdvertisementContent)
	if err != nil {
		return nil, err
	}
	r.CreatedAt, _ = db.ParseTime(ts)
	if err := json.Unmarshal([]byte(issues), &r.Issues); err != nil || r.Issues == nil {
		r.Issues = []string{}
	}
	if err := json.Unmarshal([]byte(recs), &r.Recommendations); err != nil || r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	return &r, nil
}
