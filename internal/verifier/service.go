package verifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/ad-verify/internal/ads"
	"github.com/ziadkadry99/ad-verify/internal/audit"
)

// Verifier is implemented by Engine.
type Verifier interface {
	Verify(ctx context.Context, adContent, adURL string) (*Outcome, error)
}

// ResultStore persists verified advertisements. *ads.Store implements it.
type ResultStore interface {
	RecordVerification(ctx context.Context, ad *ads.Advertisement, r *ads.VerificationResult) error
}

// Record is a verification together with the rows stored for it.
type Record struct {
	Outcome       *Outcome
	Advertisement *ads.Advertisement
	Result        *ads.VerificationResult
}

// Notifier is told about every recorded verification.
// *notifications.Dispatcher implements it.
type Notifier interface {
	NotifyVerification(ctx context.Context, userID string, result *ads.VerificationResult)
}

// Service runs verifications on behalf of a user and records them.
type Service struct {
	verifier Verifier
	store    ResultStore
	audit    audit.Logger
	notifier Notifier
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNotifier sends recorded results to n.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

// NewService creates a Service. auditLog may be nil.
func NewService(v Verifier, store ResultStore, auditLog audit.Logger, opts ...ServiceOption) *Service {
	s := &Service{verifier: v, store: store, audit: auditLog}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the pipeline without recording anything.
func (s *Service) Verify(ctx context.Context, content, url string) (*Outcome, error) {
	return s.verifier.Verify(ctx, content, url)
}

// VerifyAndRecord verifies content for userID, then stores the
// advertisement and its result and writes an audit entry.
func (s *Service) VerifyAndRecord(ctx context.Context, userID, content, url string) (*Record, error) {
	out, err := s.verifier.Verify(ctx, content, url)
	if err != nil {
		return nil, err
	}

	ad := &ads.Advertisement{
		Content:   strings.TrimSpace(content),
		URL:       strings.TrimSpace(url),
		CreatedBy: userID,
	}
	res := &ads.VerificationResult{
		UserID:           userID,
		CredibilityScore: out.CredibilityScore,
		Explanation:      out.Explanation,
		Issues:           out.Issues,
		Recommendations:  out.Recommendations,
	}
	if err := s.store.RecordVerification(ctx, ad, res); err != nil {
		return nil, fmt.Errorf("recording verification: %w", err)
	}

	audit.Record(ctx, s.audit, audit.Entry{
		ActorType: audit.ActorUser,
		ActorID:   userID,
		Action:    audit.ActionVerificationCompleted,
		Scope:     audit.ScopeVerification,
		ScopeID:   res.ID,
		Summary:   "Verified advertisement " + ad.ID,
		Detail:    fmt.Sprintf("score=%.2f issues=%d", out.CredibilityScore, len(out.Issues)),
	})

	if s.notifier != nil {
		s.notifier.NotifyVerification(ctx, userID, res)
	}

	return &Record{Outcome: out, Advertisement: ad, Result: res}, nil
}
