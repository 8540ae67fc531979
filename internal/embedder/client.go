package embedder

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kanak8278/IBC-RAG/internal/logger"
)

// backend calls one embedding provider for a batch of texts
type backend interface {
	embed(ctx context.Context, texts []string) ([][]float32, error)
	name() string
	model() string
	dimension() int
	close()
}

// Client adds caching, throttling, batching and retry to a backend
type Client struct {
	backend   backend
	cache     *Cache
	limiter   *rate.Limiter
	retry     RetryConfig
	batchSize int
}

func newClient(b backend, cfg Config) *Client {
	c := &Client{
		backend:   b,
		retry:     DefaultRetryConfig(),
		batchSize: cfg.BatchSize,
		limiter:   rate.NewLimiter(rate.Inf, 0),
	}
	if cfg.CacheSize >= 0 {
		c.cache = NewCache(cfg.CacheSize)
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if c.batchSize <= 0 || c.batchSize > MaxBatchSize {
		c.batchSize = MaxBatchSize
	}
	return c
}

// Embed returns one embedding per text, in order. Cached texts are not
// sent to the provider.
func (c *Client) Embed(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := ValidateTexts(texts); err != nil {
		return nil, err
	}

	out := make([]*Embedding, len(texts))
	hashes := make([]string, len(texts))
	var missing []int
	for i, text := range texts {
		hashes[i] = ComputeHash(text)
		if c.cache != nil {
			if emb, ok := c.cache.Get(hashes[i]); ok {
				out[i] = emb
				continue
			}
		}
		missing = append(missing, i)
	}

	for start := 0; start < len(missing); start += c.batchSize {
		batch := missing[start:min(start+c.batchSize, len(missing))]
		batchTexts := make([]string, len(batch))
		for j, idx := range batch {
			batchTexts[j] = texts[idx]
		}

		vectors, err := c.call(ctx, batchTexts)
		if err != nil {
			return nil, err
		}

		for j, idx := range batch {
			emb := &Embedding{
				Vector:    vectors[j],
				Dimension: len(vectors[j]),
				Provider:  c.backend.name(),
				Model:     c.backend.model(),
				Hash:      hashes[idx],
			}
			if c.cache != nil {
				c.cache.Set(emb.Hash, emb)
			}
			out[idx] = emb
		}
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := retryWithBackoff(ctx, c.retry, func() ([][]float32, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.backend.embed(ctx, texts)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrProviderFailed, c.retry.MaxRetries, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrProviderFailed, len(vectors), len(texts))
	}
	logger.Debug("embedded %d texts with %s", len(texts), c.backend.name())
	return vectors, nil
}

// Dimension returns the vector length of the backend
func (c *Client) Dimension() int { return c.backend.dimension() }

// Provider returns the backend name
func (c *Client) Provider() string { return c.backend.name() }

// Model returns the backend model
func (c *Client) Model() string { return c.backend.model() }

// CacheSize returns the number of cached embeddings
func (c *Client) CacheSize() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Size()
}

// Close releases idle connections
func (c *Client) Close() error {
	c.backend.close()
	return nil
}
