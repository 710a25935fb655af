package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/ad-verify/internal/db"
)

// Store persists subscriptions and deliveries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// CreateSubscription inserts sub, filling in its ID and CreatedAt.
func (s *Store) CreateSubscription(ctx context.Context, sub *Subscription) error {
	sub.ID = uuid.New().String()
	sub.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_subscriptions (id, user_id, webhook_url, max_score, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.UserID, sub.WebhookURL, sub.MaxScore, db.FormatTime(sub.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns userID's subscriptions, oldest first.
func (s *Store) ListSubscriptions(ctx context.Context, userID string) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, webhook_url, max_score, created_at
		FROM notification_subscriptions WHERE user_id = ?
		ORDER BY created_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []Subscription{}
	for rows.Next() {
		var (
			sub Subscription
			ts  string
		)
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.WebhookURL, &sub.MaxScore, &ts); err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		sub.CreatedAt, _ = db.ParseTime(ts)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeleteSubscription removes one of userID's subscriptions and its
// delivery log.
func (s *Store) DeleteSubscription(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM notification_subscriptions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("deleting subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordDelivery stores a delivery attempt, filling in its ID and CreatedAt.
func (s *Store) RecordDelivery(ctx context.Context, d *Delivery) error {
	d.ID = uuid.New().String()
	d.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_deliveries (id, subscription_id, result_id, status_code, error, delivered, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SubscriptionID, d.ResultID, d.StatusCode, d.Error, d.Delivered, db.FormatTime(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting delivery: %w", err)
	}
	return nil
}

// ListDeliveries returns the delivery log for userID's subscriptions,
// newest first. limit <= 0 means no limit.
func (s *Store) ListDeliveries(ctx context.Context, userID string, limit int) ([]Delivery, error) {
	query := `
		SELECT d.id, d.subscription_id, d.result_id, d.status_code, d.error, d.delivered, d.created_at
		FROM notification_deliveries d
		JOIN notification_subscriptions s ON s.id = d.subscription_id
		WHERE s.user_id = ?
		ORDER BY d.created_at DESC, d.rowid DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying deliveries: %w", err)
	}
	defer rows.Close()

	out := []Delivery{}
	for rows.Next() {
		var (
			d  Delivery
			ts string
		)
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.ResultID, &d.StatusCode, &d.Error, &d.Delivered, &ts); err != nil {
			return nil, fmt.Errorf("scanning delivery: %w", err)
		}
		d.CreatedAt, _ = db.ParseTime(ts)
		out = append(out, d)
	}
	return out, rows.Err()
}
