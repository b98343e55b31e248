package valkey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/valkey-io/valkey-go"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/metrics"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Options tunes the circuit breaker in front of Valkey.
type Options struct {
	BreakerFailures int
	BreakerTimeout  time.Duration
}

// Cache implements ports.CacheService using Valkey (Redis-compatible). Calls
// go through a circuit breaker so a dead cache fails fast instead of adding
// latency to every request.
type Cache struct {
	client valkey.Client
	cb     *gobreaker.CircuitBreaker
}

// New creates a new Valkey cache client.
func New(addr string, opts Options) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client, cb: newBreaker("valkey", opts)}, nil
}

func newBreaker(name string, opts Options) *gobreaker.CircuitBreaker {
	fails := opts.BreakerFailures
	if fails <= 0 {
		fails = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: time.Minute,
		Timeout:  opts.BreakerTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		// A missing key is a healthy answer.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMiss)
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			metrics.CacheBreakerState.Set(float64(to))
		},
	})
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := c.cb.Execute(func() (interface{}, error) {
		b, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
		if valkey.IsValkeyNil(err) {
			return nil, ErrMiss
		}
		return b, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		cmd := c.client.Do(ctx,
			c.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
		)
		return nil, cmd.Error()
	})
	return err
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Do(ctx, c.client.B().Del().Key(key).Build()).Error()
	})
	return err
}

// Ping checks connectivity, bypassing the breaker.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
