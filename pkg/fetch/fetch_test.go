package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"rando/internal/models"
)

type rewriteRoundTripper struct{ base *url.URL }

func (r rewriteRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c := req.Clone(req.Context())
	c.URL.Scheme = r.base.Scheme
	c.URL.Host = r.base.Host
	c.Host = r.base.Host
	return http.DefaultTransport.RoundTrip(c)
}

func newTestClient(serverURL string) *Client {
	u, _ := url.Parse(serverURL)
	httpClient := &http.Client{Transport: rewriteRoundTripper{base: u}}
	return &Client{httpClient: httpClient, userAgent: "test-agent"}
}

func TestClient_FetchJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dem.json", func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"resolution": {"x": 1, "y": 1}}`)
	})
	mux.HandleFunc("/missing.json", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/broken.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"profile": [`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(server.URL)

	tests := []struct {
		name       string
		url        string
		want       string
		wantStatus int
		wantErr    bool
	}{
		{name: "ok", url: "https://geotrek.test/dem.json", want: `{"resolution": {"x": 1, "y": 1}}`},
		{name: "not found", url: "https://geotrek.test/missing.json", wantStatus: http.StatusNotFound, wantErr: true},
		{name: "invalid json", url: "https://geotrek.test/broken.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.FetchJSON(context.Background(), tt.url)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("FetchJSON error: %v", err)
				}
				if string(got) != tt.want {
					t.Errorf("got %s; want %s", got, tt.want)
				}
				return
			}

			var transport *models.TransportError
			if !errors.As(err, &transport) {
				t.Fatalf("error = %v; want *models.TransportError", err)
			}
			if transport.Status != tt.wantStatus || transport.URL != tt.url {
				t.Errorf("status=%d url=%q; want %d %q", transport.Status, transport.URL, tt.wantStatus, tt.url)
			}
		})
	}
}

func TestClient_FetchJSON_Canceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).FetchJSON(ctx, "https://geotrek.test/slow.json")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want context.Canceled", err)
	}
}

func TestClient_FetchJSON_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"profile": [[0, 1200, [6.5, 45.9]]]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.maxBody = 16

	_, err := client.FetchJSON(context.Background(), "https://geotrek.test/profile.json")
	var transport *models.TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("error = %v; want *models.TransportError", err)
	}
	if !errors.Is(err, errBodyTooLarge) {
		t.Errorf("error = %v; want errBodyTooLarge", err)
	}
	if errors.Is(err, errInvalidJSON) {
		t.Errorf("oversized body reported as invalid JSON: %v", err)
	}

	client.maxBody = 64
	if _, err := client.FetchJSON(context.Background(), "https://geotrek.test/profile.json"); err != nil {
		t.Errorf("body within the limit: %v", err)
	}
}

type mockSource struct {
	calls int
	body  string
	err   error
}

func (m *mockSource) FetchJSON(_ context.Context, _ string) (json.RawMessage, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(m.body), nil
}

type mockObjects struct {
	bucket, key string
	body        []byte
}

func (m *mockObjects) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.bucket, m.key = bucket, key
	if m.body == nil {
		return nil, errors.New("NoSuchKey")
	}
	return m.body, nil
}

func TestRouter_FetchJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.json")
	if err := os.WriteFile(path, []byte(`{"profile": []}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		url       string
		objects   *mockObjects
		want      string
		wantHTTP  int
		wantKey   string
		wantError bool
	}{
		{name: "https goes to http", url: "https://geotrek.test/x.json", want: `{"http": true}`, wantHTTP: 1},
		{name: "s3 object", url: "s3://treks/demo/dem.json", objects: &mockObjects{body: []byte(`{"s3": true}`)}, want: `{"s3": true}`, wantKey: "treks/demo/dem.json"},
		{name: "s3 missing key", url: "s3://treks/none.json", objects: &mockObjects{}, wantKey: "treks/none.json", wantError: true},
		{name: "s3 without store", url: "s3://treks/demo/dem.json", wantError: true},
		{name: "local file", url: "file://" + filepath.ToSlash(path), want: `{"profile": []}`},
		{name: "missing file", url: "file://" + filepath.ToSlash(filepath.Join(dir, "nope.json")), wantError: true},
		{name: "unsupported scheme", url: "ftp://geotrek.test/x.json", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpSrc := &mockSource{body: `{"http": true}`}
			r := &Router{HTTP: httpSrc}
			if tt.objects != nil {
				r.Objects = tt.objects
			}

			got, err := r.FetchJSON(context.Background(), tt.url)
			if tt.wantError {
				var transport *models.TransportError
				if !errors.As(err, &transport) {
					t.Fatalf("error = %v; want *models.TransportError", err)
				}
			} else if err != nil {
				t.Fatalf("FetchJSON error: %v", err)
			} else if string(got) != tt.want {
				t.Errorf("got %s; want %s", got, tt.want)
			}

			if httpSrc.calls != tt.wantHTTP {
				t.Errorf("http calls = %d; want %d", httpSrc.calls, tt.wantHTTP)
			}
			if tt.objects != nil && tt.objects.bucket+"/"+tt.objects.key != tt.wantKey {
				t.Errorf("object = %s/%s; want %s", tt.objects.bucket, tt.objects.key, tt.wantKey)
			}
		})
	}
}

type mockCache struct {
	data   map[string][]byte
	getErr error
	setErr error
	sets   int
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	d, ok := m.data[key]
	return d, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, data []byte) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = data
	return nil
}

func TestCached_FetchJSON(t *testing.T) {
	const key = "https://geotrek.test/dem.json"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		cache      *mockCache
		origin     *mockSource
		want       string
		wantOrigin int
		wantSets   int
		wantErr    bool
	}{
		{
			name:       "miss fills the cache",
			cache:      &mockCache{data: map[string][]byte{}},
			origin:     &mockSource{body: `{"a": 1}`},
			want:       `{"a": 1}`,
			wantOrigin: 1,
			wantSets:   1,
		},
		{
			name:   "hit skips the origin",
			cache:  &mockCache{data: map[string][]byte{key: []byte(`{"b": 2}`)}},
			origin: &mockSource{body: `{"a": 1}`},
			want:   `{"b": 2}`,
		},
		{
			name:       "corrupt entry is refetched",
			cache:      &mockCache{data: map[string][]byte{key: []byte(`{"b"`)}},
			origin:     &mockSource{body: `{"a": 1}`},
			want:       `{"a": 1}`,
			wantOrigin: 1,
			wantSets:   1,
		},
		{
			name:       "cache outage falls through",
			cache:      &mockCache{data: map[string][]byte{}, getErr: errors.New("dial tcp: refused"), setErr: errors.New("dial tcp: refused")},
			origin:     &mockSource{body: `{"a": 1}`},
			want:       `{"a": 1}`,
			wantOrigin: 1,
			wantSets:   1,
		},
		{
			name:       "origin error is returned and not cached",
			cache:      &mockCache{data: map[string][]byte{}},
			origin:     &mockSource{err: &models.TransportError{URL: key, Status: 502}},
			wantOrigin: 1,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCached(tt.origin, tt.cache, logger).FetchJSON(context.Background(), key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v; wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("got %s; want %s", got, tt.want)
			}
			if tt.origin.calls != tt.wantOrigin || tt.cache.sets != tt.wantSets {
				t.Errorf("origin calls=%d sets=%d; want %d %d", tt.origin.calls, tt.cache.sets, tt.wantOrigin, tt.wantSets)
			}
		})
	}
}
