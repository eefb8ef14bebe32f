package transform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{APIKey: "k"}); !errors.Is(err, ErrMissingEndpoint) {
		t.Errorf("expected ErrMissingEndpoint, got %v", err)
	}
	if _, err := New(Options{Endpoint: "http://example.test"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
	if _, err := New(Options{Endpoint: "http://example.test", APIKey: "k"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvEndpoint, "http://example.test/stylize")
	t.Setenv(EnvAPIKey, "secret")

	if _, err := NewFromEnv(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	t.Setenv(EnvAPIKey, "")
	if _, err := NewFromEnv(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestStylizeSendsMultipartRequest(t *testing.T) {
	styled := []byte("styled-image-bytes")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("api-key"); got != "secret" {
			t.Errorf("expected api-key header %q, got %q", "secret", got)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart content type, got %q", r.Header.Get("Content-Type"))
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if got := r.FormValue("prompt"); got != "make it watercolor" {
			t.Errorf("expected prompt field, got %q", got)
		}

		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "image.png" {
			t.Errorf("expected filename image.png, got %q", hdr.Filename)
		}
		data, err := io.ReadAll(f)
		if err != nil {
			t.Fatalf("read file part: %v", err)
		}
		if string(data) != "original-image" {
			t.Errorf("file part mismatch: %q", data)
		}

		w.Write(styled)
	}))
	defer srv.Close()

	c, err := New(Options{Endpoint: srv.URL, APIKey: "secret", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := c.Stylize(context.Background(), []byte("original-image"), "make it watercolor")
	if err != nil {
		t.Fatalf("Stylize: %v", err)
	}
	if string(out) != string(styled) {
		t.Errorf("expected styled bytes back, got %q", out)
	}
}

func TestStylizeNon200IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, _ := New(Options{Endpoint: srv.URL, APIKey: "k", HTTPClient: srv.Client()})

	_, err := c.Stylize(context.Background(), []byte("img"), "p")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status code: %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error should carry the body snippet: %v", err)
	}
}

func TestStylizeEmptyBodyIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New(Options{Endpoint: srv.URL, APIKey: "k", HTTPClient: srv.Client()})

	if _, err := c.Stylize(context.Background(), []byte("img"), "p"); err == nil {
		t.Fatal("expected error for empty 200 response")
	}
}
