package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ziadkadry99/ad-verify/internal/ads"
)

const deliveryTimeout = 10 * time.Second

// Dispatcher sends verification results to matching webhooks. Deliveries
// run in the background so a slow receiver never holds up a verification.
type Dispatcher struct {
	store  *Store
	client *http.Client
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher that reads subscriptions from store.
func NewDispatcher(store *Store) *Dispatcher {
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: deliveryTimeout},
	}
}

// NotifyVerification queues a delivery to every subscription of userID
// whose threshold the result's score falls under.
func (d *Dispatcher) NotifyVerification(ctx context.Context, userID string, result *ads.VerificationResult) {
	subs, err := d.store.ListSubscriptions(ctx, userID)
	if err != nil {
		log.Printf("notifications: listing subscriptions: %v", err)
		return
	}

	// The request context ends when the handler returns.
	bg := context.WithoutCancel(ctx)
	for _, sub := range subs {
		if !sub.Matches(result.CredibilityScore) {
			continue
		}
		d.wg.Add(1)
		go func(sub Subscription) {
			defer d.wg.Done()
			d.deliver(bg, sub, result)
		}(sub)
	}
}

// Wait blocks until all queued deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, sub Subscription, result *ads.VerificationResult) {
	body, err := json.Marshal(Payload{
		Event:  EventLowCredibility,
		Result: result,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("notifications: encoding payload: %v", err)
		return
	}

	rec := &Delivery{SubscriptionID: sub.ID, ResultID: result.ID}
	status, err := SendWebhook(ctx, d.client, sub.WebhookURL, body)
	rec.StatusCode = status
	if err != nil {
		rec.Error = err.Error()
		log.Printf("notifications: delivering %s to %s: %v", result.ID, sub.WebhookURL, err)
	} else {
		rec.Delivered = true
	}

	if err := d.store.RecordDelivery(ctx, rec); err != nil {
		log.Printf("notifications: recording delivery: %v", err)
	}
}

// SendWebhook POSTs a JSON body to url and returns the response status.
// Any status outside 2xx is an error.
func SendWebhook(ctx context.Context, client *http.Client, url string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Adverify-Event", EventLowCredibility)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
