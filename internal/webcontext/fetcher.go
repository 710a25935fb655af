// Package webcontext pulls readable text from an advertiser's landing page
// so it can be included in the verification prompt.
package webcontext

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// NoURLText is returned when no URL accompanies the advertisement.
	NoURLText = "No URL provided for additional context."
	// ErrorPrefix starts the text returned when fetching or parsing fails.
	ErrorPrefix = "Error scraping URL: "

	DefaultTimeout  = 10 * time.Second
	DefaultMaxChars = 5000

	contentSelector = "p, h1, h2, h3, div, span"
)

// Fetch outcomes reported to the observer.
const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// Fetcher retrieves and flattens web pages. Fetch never fails; problems are
// reported inline in the returned text.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxChars  int
	observe   func(result string)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithObserver registers a callback receiving ResultOK, ResultSkipped or
// ResultError after every Fetch.
func WithObserver(fn func(result string)) Option {
	return func(f *Fetcher) { f.observe = fn }
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		timeout:   DefaultTimeout,
		userAgent: "adverify",
		maxChars:  DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the text of the page at url: the trimmed text of every
// paragraph, heading, div and span, in document order, one per line,
// truncated to 5000 characters.
func (f *Fetcher) Fetch(ctx context.Context, url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		f.report(ResultSkipped)
		return NoURLText
	}

	text, err := f.fetch(ctx, url)
	if err != nil {
		f.report(ResultError)
		return ErrorPrefix + err.Error()
	}
	f.report(ResultOK)
	return text
}

func (f *Fetcher) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}

	return truncate(ExtractText(doc), f.maxChars), nil
}

// ExtractText flattens the content-bearing elements of doc.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()

	var sb strings.Builder
	doc.Find(contentSelector).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			sb.WriteString(text)
			sb.WriteByte('\n')
		}
	})
	return sb.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func (f *Fetcher) report(result string) {
	if f.observe != nil {
		f.observe(result)
	}
}
