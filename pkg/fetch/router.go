package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"rando/internal/models"
)

// ObjectStore reads one object of an S3-compatible bucket.
type ObjectStore interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Source is anything that can fetch a JSON document by URL.
type Source interface {
	FetchJSON(ctx context.Context, url string) (json.RawMessage, error)
}

// Router dispatches a fetch by URL scheme: http and https go to HTTP,
// s3://bucket/key to the object store and file:// to the local disk.
// A nil Objects disables s3 URLs.
type Router struct {
	HTTP    Source
	Objects ObjectStore
}

func (r *Router) FetchJSON(ctx context.Context, rawURL string) (json.RawMessage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &models.TransportError{URL: rawURL, Err: err}
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return r.HTTP.FetchJSON(ctx, rawURL)
	case "s3":
		return r.fetchObject(ctx, rawURL, u)
	case "file":
		return fetchFile(ctx, rawURL, u)
	}
	return nil, &models.TransportError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
}

func (r *Router) fetchObject(ctx context.Context, rawURL string, u *url.URL) (json.RawMessage, error) {
	if r.Objects == nil {
		return nil, &models.TransportError{URL: rawURL, Err: fmt.Errorf("no object store configured")}
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, &models.TransportError{URL: rawURL, Err: fmt.Errorf("want s3://bucket/key")}
	}
	body, err := r.Objects.GetObject(ctx, u.Host, key)
	if err != nil {
		return nil, &models.TransportError{URL: rawURL, Err: err}
	}
	return validJSON(rawURL, body)
}

func fetchFile(ctx context.Context, rawURL string, u *url.URL) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.TransportError{URL: rawURL, Err: err}
	}
	path := u.Path
	if u.Host != "" && u.Host != "localhost" {
		// file://relative/dir/x.json
		path = filepath.Join(u.Host, u.Path)
	}
	body, err := os.ReadFile(filepath.FromSlash(path))
	if err != nil {
		return nil, &models.TransportError{URL: rawURL, Err: err}
	}
	return validJSON(rawURL, body)
}
