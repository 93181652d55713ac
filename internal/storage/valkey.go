package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

const payloadKeyPrefix = "rando:payload:"

// PayloadCache keeps fetched source documents in Valkey for a fixed TTL.
type PayloadCache struct {
	client valkey.Client
	ttl    time.Duration
}

// NewPayloadCache connects to the Valkey server at addr.
func NewPayloadCache(addr string, ttl time.Duration) (*PayloadCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &PayloadCache{client: client, ttl: ttl}, nil
}

// Get returns the cached document for url. A missing key is a miss, not an
// error.
func (c *PayloadCache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(payloadKeyPrefix+url).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set stores data for url.
func (c *PayloadCache) Set(ctx context.Context, url string, data []byte) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(payloadKeyPrefix+url).Value(valkey.BinaryString(data)).Ex(c.ttl).Build(),
	)
	return cmd.Error()
}

// Close releases the client.
func (c *PayloadCache) Close() {
	c.client.Close()
}
