package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
)

// maxCatalogSize bounds the response body read from the catalog URL.
const maxCatalogSize = 32 << 20

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	URL     string
	TTL     time.Duration
	Timeout time.Duration
	// Refresh skips a fresh cache and always fetches.
	Refresh bool
	// Cache is optional; without it every call fetches.
	Cache *Cache
}

// Provider returns the relay list, from the cache when it is fresh and
// from the network otherwise.
type Provider struct {
	url     string
	ttl     time.Duration
	refresh bool
	cache   *Cache
	client  *http.Client
	now     func() time.Time
}

// NewProvider creates a catalog provider.
func NewProvider(cfg ProviderConfig) *Provider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = common.CatalogTimeout
	}
	url := cfg.URL
	if url == "" {
		url = common.DefaultCatalogURL
	}
	return &Provider{
		url:     url,
		ttl:     cfg.TTL,
		refresh: cfg.Refresh,
		cache:   cfg.Cache,
		client:  &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// Records returns the relay list. A fetch failure falls back to a stale
// cache; with no cache at all the error wraps ErrCatalogUnavailable.
func (p *Provider) Records(ctx context.Context) ([]relay.Record, error) {
	var (
		cached []relay.Record
		stale  bool
	)
	if p.cache != nil {
		records, fetchedAt, err := p.cache.Load(ctx)
		switch {
		case err == nil:
			age := p.now().Sub(fetchedAt)
			if !p.refresh && age < p.ttl {
				common.LogDebug("Using cached relay list (%d relays, age %s)", len(records), age.Round(time.Second))
				return records, nil
			}
			cached, stale = records, true
		case !errors.Is(err, ErrNoCache):
			common.LogWarn("Failed to read relay cache: %v", err)
		}
	}

	records, err := p.fetch(ctx)
	if err != nil {
		if stale {
			common.LogWarn("Failed to fetch relay list, using stale cache: %v", err)
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %w", common.ErrCatalogUnavailable, err)
	}
	common.LogDebug("Fetched %d relays from %s", len(records), p.url)

	if p.cache != nil {
		if err := p.cache.Save(ctx, records, p.now()); err != nil {
			common.LogWarn("Failed to update relay cache: %v", err)
		}
	}
	return records, nil
}

func (p *Provider) fetch(ctx context.Context) ([]relay.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", common.AppName)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay list request returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read relay list: %w", err)
	}
	return Decode(data)
}
