// Package fetch provides the HTTP-backed I/O provider behind the runtime's
// fetch primitive. Requests run on their own goroutines, bounded by a
// semaphore, and report back through the completion channel the scheduler
// selects on.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/me/weft/pkg/fiber"
)

// Error is a fetch failure. It carries the request URL and, when the
// server responded at all, the HTTP status.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds provider configuration.
type Config struct {
	Timeout     time.Duration // per-request timeout
	MaxInFlight int64         // concurrent request bound
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:     30 * time.Second,
		MaxInFlight: 8,
	}
}

// HTTPProvider implements fiber.IOProvider over net/http.
type HTTPProvider struct {
	client      *http.Client
	config      Config
	logger      *slog.Logger
	sem         *semaphore.Weighted
	completions chan fiber.IOCompletion

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHTTPProvider creates a provider. Close must be called once the run is
// over to release any requests still in flight.
func NewHTTPProvider(cfg Config, logger *slog.Logger) *HTTPProvider {
	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPProvider{
		client:      &http.Client{},
		config:      cfg,
		logger:      logger.With("component", "fetch"),
		sem:         semaphore.NewWeighted(cfg.MaxInFlight),
		completions: make(chan fiber.IOCompletion, 16),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Submit dispatches the request without blocking the caller.
func (p *HTTPProvider) Submit(req fiber.IORequest) {
	go p.do(req)
}

// Completions returns the channel results are reported on.
func (p *HTTPProvider) Completions() <-chan fiber.IOCompletion {
	return p.completions
}

// Close aborts in-flight requests and unblocks their goroutines.
func (p *HTTPProvider) Close() {
	p.cancel()
}

func (p *HTTPProvider) do(req fiber.IORequest) {
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		return
	}
	defer p.sem.Release(1)

	body, err := p.get(req.URL)
	if err != nil {
		p.logger.Debug("fetch failed", "url", req.URL, "error", err)
	} else {
		p.logger.Debug("fetch done", "url", req.URL, "bytes", len(body))
	}

	select {
	case p.completions <- fiber.IOCompletion{Token: req.Token, Body: body, Err: err}:
	case <-p.ctx.Done():
	}
}

func (p *HTTPProvider) get(url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	return body, nil
}
