// Package catalog searches the retailer's product API by keyword.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var ErrNotConfigured = errors.New("product catalog is not configured")

type Product struct {
	ProductId string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url"`
}

// Searcher is the keyword -> products contract the cart builder depends on.
type Searcher interface {
	Search(ctx context.Context, keyword string) ([]Product, error)
}

type Config struct {
	BaseURL    string
	APIKey     string
	Limit      int
	CacheTTL   time.Duration
	RatePerSec float64
	Timeout    time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	cache   *cache.Cache
	limiter *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		limiter: rate.NewLimiter(limit, 1),
	}
}

type searchResponse struct {
	Products []struct {
		Id       string      `json:"id"`
		Name     string      `json:"name"`
		Price    json.Number `json:"price"`
		ImageURL string      `json:"image_url"`
	} `json:"products"`
}

// Search returns products for the keyword ordered by ascending price.
// Results are cached per normalised keyword.
func (c *Client) Search(ctx context.Context, keyword string) ([]Product, error) {
	if c.cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	key := strings.ToLower(strings.TrimSpace(keyword))
	if key == "" {
		return []Product{}, nil
	}
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]Product), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("q", key)
	q.Set("limit", strconv.Itoa(c.cfg.Limit))
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/products/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	products := make([]Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		price, err := p.Price.Float64()
		if err != nil || p.Id == "" {
			continue
		}
		products = append(products, Product{ProductId: p.Id, Name: p.Name, Price: price, ImageURL: p.ImageURL})
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })

	c.cache.SetDefault(key, products)
	return products, nil
}

// Cheapest returns the lowest priced product, false when none.
func Cheapest(products []Product) (Product, bool) {
	if len(products) == 0 {
		return Product{}, false
	}
	best := products[0]
	for _, p := range products[1:] {
		if p.Price < best.Price {
			best = p
		}
	}
	return best, true
}
