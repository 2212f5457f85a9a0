package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/pkg/logger"
)

const maxAnimationBytes = 2 << 20

// Cache holds the fetched animation between requests.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AnimationFetcher downloads the Lottie animation shown on the dashboard.
type AnimationFetcher struct {
	url        string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
}

func NewAnimationFetcher(url string, timeout time.Duration, cache Cache, cacheTTL time.Duration) *AnimationFetcher {
	return &AnimationFetcher{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (f *AnimationFetcher) cacheKey() string {
	return "animation:" + f.url
}

// Fetch returns the animation JSON, or nil if it cannot be loaded.
func (f *AnimationFetcher) Fetch(ctx context.Context) json.RawMessage {
	if f.url == "" {
		return nil
	}

	if f.cache != nil {
		if data, ok, err := f.cache.Get(ctx, f.cacheKey()); err == nil && ok {
			metrics.CacheHits.WithLabelValues("animation").Inc()
			return json.RawMessage(data)
		}
		metrics.CacheMisses.WithLabelValues("animation").Inc()
	}

	data, err := f.download(ctx)
	if err != nil {
		logger.Warn("Animation unavailable", zap.String("url", f.url), zap.Error(err))
		return nil
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, f.cacheKey(), data, f.cacheTTL); err != nil {
			logger.Debug("Failed to cache animation", zap.Error(err))
		}
	}
	return json.RawMessage(data)
}

func (f *AnimationFetcher) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch animation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("animation returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnimationBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read animation: %w", err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("animation is not valid JSON")
	}
	return body, nil
}
