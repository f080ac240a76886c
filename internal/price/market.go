package price

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
	"github.com/Fantasim/looter/internal/throttle"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var priceNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// Unavailable is the quote returned whenever a price cannot be resolved.
func Unavailable() models.Price {
	return models.Price{Text: config.PriceUnavailable}
}

// ParsePrice extracts the first decimal number from a market price string such as
// "$1.25" or "1,25€". The first comma is treated as a decimal separator.
func ParsePrice(text string) (float64, bool) {
	if text == "" || text == config.PriceUnavailable {
		return 0, false
	}

	normalized := strings.Replace(text, ",", ".", 1)
	match := priceNumber.FindString(normalized)
	if match == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MarketOracle resolves item prices from the community market price overview.
// Lookups never fail: anything that goes wrong resolves to Unavailable.
type MarketOracle struct {
	client   *http.Client
	baseURL  string
	currency int
	timeout  time.Duration
	limiter  *throttle.RateLimiter
	breaker  *throttle.CircuitBreaker
	cache    *cache.Cache
}

// NewMarketOracle creates an oracle against baseURL (the community site root).
func NewMarketOracle(client *http.Client, baseURL string, currency, rpm int) *MarketOracle {
	slog.Info("market price oracle initialized",
		"baseURL", baseURL,
		"currency", currency,
		"requestsPerMinute", rpm,
		"timeout", config.PriceLookupTimeout,
	)

	return &MarketOracle{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: currency,
		timeout:  config.PriceLookupTimeout,
		limiter:  throttle.NewPerMinuteLimiter("market", rpm),
		breaker:  throttle.NewCircuitBreaker("market", config.CircuitBreakerLimit, config.CircuitCooldown),
		cache:    cache.New(config.PriceCacheDuration, config.PriceCacheCleanup),
	}
}

// WithTimeout overrides the per-lookup deadline.
func (o *MarketOracle) WithTimeout(d time.Duration) *MarketOracle {
	o.timeout = d
	return o
}

// priceOverviewResponse is the JSON shape of /market/priceoverview/.
type priceOverviewResponse struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	MedianPrice string `json:"median_price"`
	Volume      string `json:"volume"`
}

// Lookup returns the market price for an item of appID named marketName.
// The call is bounded by the oracle timeout, including time spent waiting on the rate limiter.
func (o *MarketOracle) Lookup(ctx context.Context, appID, marketName string) models.Price {
	if marketName == "" {
		return Unavailable()
	}

	key := appID + "|" + marketName
	if cached, ok := o.cache.Get(key); ok {
		slog.Debug("price cache hit", "appID", appID, "name", marketName)
		return cached.(models.Price)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	text, err := o.guardedFetch(lookupCtx, appID, marketName)
	if errors.Is(err, config.ErrCircuitOpen) {
		slog.Debug("market lookup skipped",
			"appID", appID,
			"name", marketName,
			"error", err,
		)
		return Unavailable()
	}
	if err != nil {
		slog.Warn("market price lookup failed",
			"appID", appID,
			"name", marketName,
			"elapsed", time.Since(start).Round(time.Millisecond),
			"error", err,
		)
		return Unavailable()
	}

	p := models.Price{Text: text}
	p.Value, p.Valid = ParsePrice(text)
	o.cache.SetDefault(key, p)

	slog.Debug("market price resolved",
		"appID", appID,
		"name", marketName,
		"price", text,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return p
}

// guardedFetch runs fetch behind the circuit breaker. It returns
// config.ErrCircuitOpen without touching the network while the market is
// considered down.
func (o *MarketOracle) guardedFetch(ctx context.Context, appID, marketName string) (string, error) {
	if !o.breaker.Allow() {
		return "", config.ErrCircuitOpen
	}
	text, err := o.fetch(ctx, appID, marketName)
	o.breaker.Report(err)
	return text, err
}

// fetch performs one priceoverview request. A well-formed response without a
// price is not an error: it resolves to the unavailable text.
func (o *MarketOracle) fetch(ctx context.Context, appID, marketName string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	query := url.Values{
		"appid":            {appID},
		"currency":         {strconv.Itoa(o.currency)},
		"market_hash_name": {marketName},
	}
	reqURL := o.baseURL + config.MarketPricePath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("create price request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s", config.ErrPriceUnavailable, o.timeout)
		}
		return "", fmt.Errorf("%w: %v", config.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", config.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", config.ErrPriceUnavailable, resp.StatusCode)
	}

	var body priceOverviewResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", config.ErrPriceUnavailable, err)
	}

	if !body.Success {
		return config.PriceUnavailable, nil
	}
	for _, text := range []string{body.LowestPrice, body.MedianPrice} {
		if text != "" {
			return text, nil
		}
	}
	return config.PriceUnavailable, nil
}
