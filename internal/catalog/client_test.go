package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/resilience"
	"github.com/LavishGent/linernotes/internal/types"
)

func newCatalogServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/entities/resolve", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Query().Get("name") {
		case "Queen":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "42"})
		case "Blank":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": ""})
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/v1/entities/42/content/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get(apiKeyHeader) != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path[len("/v1/entities/42/content/"):] {
		case "bio":
			_ = json.NewEncoder(w).Encode(map[string]string{"content": "British rock band formed in London in 1970."})
		case "funfact:lore":
			w.WriteHeader(http.StatusTooManyRequests)
		case "funfact:bts":
			_ = json.NewEncoder(w).Encode(map[string]string{"content": "   "})
		case "funfact:activity":
			_, _ = w.Write([]byte("<html>not json</html>"))
		case "funfact:surprise":
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	mux.HandleFunc("/v1/entities/slow/content/", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, cfg *config.Config) *Client {
	t.Helper()
	cfg.Catalog.BaseURL = baseURL
	cfg.Catalog.APIKey = config.NewSecretString("s3cret")
	c, err := New(cfg.Catalog, resilience.NewGuard("catalog", cfg, nil, nil), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestClientResolve(t *testing.T) {
	var hits atomic.Int64
	srv := newCatalogServer(t, &hits)
	c := newTestClient(t, srv.URL, config.ForTesting())

	tests := []struct {
		name     string
		input    string
		wantID   string
		wantKind types.Kind
	}{
		{"known entity", "Queen", "42", 0},
		{"unknown entity", "Nobody", "", types.KindEntityNotFound},
		{"empty id", "Blank", "", types.KindEntityNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := c.Resolve(context.Background(), tt.input)
			if tt.wantKind == 0 {
				if err != nil {
					t.Fatalf("Resolve() error = %v", err)
				}
				if id != tt.wantID {
					t.Errorf("Resolve() = %q, want %q", id, tt.wantID)
				}
				return
			}
			if err == nil {
				t.Fatalf("Resolve() error = nil, want %v", tt.wantKind)
			}
			if got := resilience.Classify(err); got.Kind != tt.wantKind {
				t.Errorf("Classify(err) = %v, want %v", got, tt.wantKind)
			}
		})
	}
}

func TestClientFetch(t *testing.T) {
	var hits atomic.Int64
	srv := newCatalogServer(t, &hits)
	c := newTestClient(t, srv.URL, config.ForTesting())

	payload, err := c.Fetch(context.Background(), "42", types.Bio())
	if err != nil {
		t.Fatalf("Fetch(bio) error = %v", err)
	}
	if payload != "British rock band formed in London in 1970." {
		t.Errorf("Fetch(bio) = %q", payload)
	}

	tests := []struct {
		slot types.ContentType
		want types.ErrorKind
	}{
		{types.FunFact(types.FunFactLore), types.ErrorKind{Kind: types.KindRateLimited}},
		{types.FunFact(types.FunFactBehindTheScenes), types.ErrorKind{Kind: types.KindNoContentAvailable}},
		{types.FunFact(types.FunFactActivity), types.ErrorKind{Kind: types.KindMalformedResponse}},
		{types.FunFact(types.FunFactSurprise), types.ServerError(5)},
	}
	for _, tt := range tests {
		t.Run(tt.slot.String(), func(t *testing.T) {
			_, err := c.Fetch(context.Background(), "42", tt.slot)
			if err == nil {
				t.Fatal("Fetch() error = nil")
			}
			if got := resilience.Classify(err); got != tt.want {
				t.Errorf("Classify(err) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientSendsHeaders(t *testing.T) {
	var gotUA, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotKey = r.Header.Get(apiKeyHeader)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "7"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, config.ForTesting())
	if _, err := c.Resolve(context.Background(), "Queen"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if gotUA != "linernotes/1.0" {
		t.Errorf("User-Agent = %q, want linernotes/1.0", gotUA)
	}
	if gotKey != "s3cret" {
		t.Errorf("%s = %q, want s3cret", apiKeyHeader, gotKey)
	}
}

func TestClientRequestTimeout(t *testing.T) {
	var hits atomic.Int64
	srv := newCatalogServer(t, &hits)
	cfg := config.ForTesting()
	cfg.Catalog.RequestTimeout = 20 * time.Millisecond
	c := newTestClient(t, srv.URL, cfg)

	start := time.Now()
	_, err := c.Fetch(context.Background(), "slow", types.Bio())
	if err == nil {
		t.Fatal("Fetch() error = nil, want timeout")
	}
	if got := resilience.Classify(err); got.Kind != types.KindTimeout {
		t.Errorf("Classify(err) = %v, want timeout", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Fetch() took %v, want it cut short by the request timeout", elapsed)
	}
}

func TestClientCircuitOpens(t *testing.T) {
	var hits atomic.Int64
	srv := newCatalogServer(t, &hits)
	cfg := config.ForTesting()
	cfg.CircuitBreaker.Enabled = true
	cfg.CircuitBreaker.FailureThreshold = 2
	cfg.CircuitBreaker.OpenDuration = time.Minute
	c := newTestClient(t, srv.URL, cfg)

	surprise := types.FunFact(types.FunFactSurprise)
	for i := 0; i < 2; i++ {
		if _, err := c.Fetch(context.Background(), "42", surprise); err == nil {
			t.Fatal("Fetch() error = nil, want 503")
		}
	}
	before := hits.Load()

	_, err := c.Fetch(context.Background(), "42", types.Bio())
	if !errors.Is(err, types.ErrCircuitOpen) {
		t.Fatalf("Fetch() error = %v, want ErrCircuitOpen", err)
	}
	if hits.Load() != before {
		t.Error("request reached the server while the circuit was open")
	}
}

func TestClientNotFoundKeepsCircuitClosed(t *testing.T) {
	var hits atomic.Int64
	srv := newCatalogServer(t, &hits)
	cfg := config.ForTesting()
	cfg.CircuitBreaker.Enabled = true
	cfg.CircuitBreaker.FailureThreshold = 1
	c := newTestClient(t, srv.URL, cfg)

	for i := 0; i < 3; i++ {
		if _, err := c.Resolve(context.Background(), "Nobody"); errors.Is(err, types.ErrCircuitOpen) {
			t.Fatalf("attempt %d: circuit opened on a definitive not-found", i)
		}
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	cfg := config.ForTesting().Catalog
	cfg.BaseURL = "/relative"
	if _, err := New(cfg, nil, nil); err == nil {
		t.Error("New() error = nil, want error for relative base URL")
	}
}

func TestClientHost(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://catalog.example.com", "catalog.example.com:80"},
		{"https://catalog.example.com", "catalog.example.com:443"},
		{"http://127.0.0.1:9000/api", "127.0.0.1:9000"},
	}
	for _, tt := range tests {
		cfg := config.ForTesting().Catalog
		cfg.BaseURL = tt.base
		c, err := New(cfg, nil, nil)
		if err != nil {
			t.Fatalf("New(%q) error = %v", tt.base, err)
		}
		if got := c.Host(); got != tt.want {
			t.Errorf("Host() for %q = %q, want %q", tt.base, got, tt.want)
		}
	}
}
