package fetch

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/me/weft/pkg/fiber"
)

func testProvider(t *testing.T) *HTTPProvider {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewHTTPProvider(DefaultConfig(), logger)
	t.Cleanup(p.Close)
	return p
}

func collect(t *testing.T, p *HTTPProvider) fiber.IOCompletion {
	t.Helper()
	select {
	case c := <-p.Completions():
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no completion within 5s")
		return fiber.IOCompletion{}
	}
}

func TestSubmitDeliversBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	p := testProvider(t)
	p.Submit(fiber.IORequest{Token: 1, URL: srv.URL})

	c := collect(t, p)
	if c.Token != 1 {
		t.Errorf("token = %d, want 1", c.Token)
	}
	if c.Err != nil {
		t.Fatalf("err = %v", c.Err)
	}
	if string(c.Body) != "payload" {
		t.Errorf("body = %q, want payload", c.Body)
	}
}

func TestNon2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := testProvider(t)
	p.Submit(fiber.IORequest{Token: 2, URL: srv.URL})

	c := collect(t, p)
	var fe *Error
	if !errors.As(c.Err, &fe) {
		t.Fatalf("err = %v, want *fetch.Error", c.Err)
	}
	if fe.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", fe.Status)
	}
	if fe.URL != srv.URL {
		t.Errorf("url = %q, want %q", fe.URL, srv.URL)
	}
}

func TestConnectionFailureIsAnError(t *testing.T) {
	p := testProvider(t)
	// Port 1 is essentially never listening.
	p.Submit(fiber.IORequest{Token: 3, URL: "http://127.0.0.1:1/"})

	c := collect(t, p)
	var fe *Error
	if !errors.As(c.Err, &fe) {
		t.Fatalf("err = %v, want *fetch.Error", c.Err)
	}
	if fe.Status != 0 {
		t.Errorf("status = %d, want 0 (no response)", fe.Status)
	}
}

func TestManyConcurrentSubmissionsAllComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := testProvider(t)
	const n = 32
	for i := 0; i < n; i++ {
		p.Submit(fiber.IORequest{Token: fiber.IOToken(i), URL: srv.URL})
	}

	seen := make(map[fiber.IOToken]bool)
	for i := 0; i < n; i++ {
		c := collect(t, p)
		if c.Err != nil {
			t.Fatalf("completion %d: %v", i, c.Err)
		}
		if seen[c.Token] {
			t.Fatalf("duplicate completion for token %d", c.Token)
		}
		seen[c.Token] = true
	}
}
