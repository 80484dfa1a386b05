package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"roastery-service/internal/redisclient"
	"roastery-service/internal/util"

	"go.uber.org/zap"
)

// Page is an opaque content document from the managed CMS (homepage, about,
// FAQ, events). The body is passed through to the client untouched.
type Page struct {
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Body      json.RawMessage `json:"body"`
	SEOTitle  string          `json:"seo_title,omitempty"`
	SEODesc   string          `json:"seo_description,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Client fetches CMS page documents, caching them in Redis with a TTL.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cache      *redisclient.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewClient creates a CMS content client
func NewClient(baseURL, token string, cache *redisclient.Client, cacheTTL time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:  baseURL,
		token:    token,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// GetPage returns the page document for a slug, from cache when possible.
// Cache failures fall through to the CMS.
func (c *Client) GetPage(ctx context.Context, slug string) (*Page, error) {
	cacheKey := "cms:page:" + slug

	var page Page
	hit, err := c.cache.GetJSON(ctx, cacheKey, &page)
	if err != nil {
		c.logger.Warn("CMS cache read failed", zap.String("slug", slug), zap.Error(err))
	}
	if hit {
		util.CacheHitsTotal.WithLabelValues("cms").Inc()
		return &page, nil
	}
	util.CacheMissesTotal.WithLabelValues("cms").Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/pages/%s", c.baseURL, url.PathEscape(slug)), nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("page not found: %s", slug)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cms returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	if err := c.cache.SetJSON(ctx, cacheKey, &page, c.cacheTTL); err != nil {
		c.logger.Warn("CMS cache write failed", zap.String("slug", slug), zap.Error(err))
	}

	return &page, nil
}
