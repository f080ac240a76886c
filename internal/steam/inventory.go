package steam

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
)

type inventoryAsset struct {
	AppID      int    `json:"appid"`
	ContextID  string `json:"contextid"`
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
}

type inventoryDescription struct {
	AppID          int    `json:"appid"`
	ClassID        string `json:"classid"`
	InstanceID     string `json:"instanceid"`
	Tradable       int    `json:"tradable"`
	Name           string `json:"name"`
	MarketName     string `json:"market_name"`
	MarketHashName string `json:"market_hash_name"`
	Type           string `json:"type"`
}

type inventoryPage struct {
	Success      int                    `json:"success"`
	Error        string                 `json:"error"`
	Assets       []inventoryAsset       `json:"assets"`
	Descriptions []inventoryDescription `json:"descriptions"`
	MoreItems    int                    `json:"more_items"`
	LastAssetID  string                 `json:"last_assetid"`
	TotalCount   int                    `json:"total_inventory_count"`
}

// Inventory enumerates the tradable items of the logged-in account.
type Inventory struct {
	session *Session
	backoff time.Duration
}

// NewInventory creates an inventory reader over an authenticated session.
func NewInventory(s *Session) *Inventory {
	return &Inventory{
		session: s,
		backoff: config.InventoryRetryBackoff,
	}
}

// Fetch returns every tradable item in the pair's inventory, following
// pagination. A private or missing inventory wraps config.ErrInventoryUnavailable.
func (inv *Inventory) Fetch(ctx context.Context, pair models.InventoryPair) ([]models.Item, error) {
	var (
		items []models.Item
		start string
	)

	for page := 1; ; page++ {
		body, err := inv.fetchPageWithRetry(ctx, pair, start)
		if err != nil {
			return nil, fmt.Errorf("inventory %s: %w", pair, err)
		}

		items = append(items, tradableItems(body, pair)...)

		slog.Debug("inventory page fetched",
			"pair", pair.String(),
			"page", page,
			"assets", len(body.Assets),
			"total", body.TotalCount,
		)

		if body.MoreItems == 0 || body.LastAssetID == "" {
			break
		}
		start = body.LastAssetID
	}

	slog.Info("inventory fetched",
		"pair", pair.String(),
		"tradable", len(items),
	)
	return items, nil
}

func (inv *Inventory) fetchPageWithRetry(ctx context.Context, pair models.InventoryPair, start string) (*inventoryPage, error) {
	var lastErr error
	for attempt := 0; attempt <= config.InventoryMaxRetries; attempt++ {
		if attempt > 0 {
			wait := retryDelay(lastErr, inv.backoff, attempt)
			slog.Warn("retrying inventory page",
				"pair", pair.String(),
				"attempt", attempt,
				"wait", wait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		body, err := inv.fetchPage(ctx, pair, start)
		if err == nil {
			return body, nil
		}
		if !config.IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (inv *Inventory) fetchPage(ctx context.Context, pair models.InventoryPair, start string) (*inventoryPage, error) {
	s := inv.session
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	q := url.Values{
		"l":     {"english"},
		"count": {strconv.Itoa(config.InventoryPageSize)},
	}
	if start != "" {
		q.Set("start_assetid", start)
	}
	path := fmt.Sprintf(config.InventoryPath, s.steamID, pair.AppID, pair.ContextID)

	req, err := s.newRequest(ctx, http.MethodGet, s.endpoints.Community+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", s.endpoints.Community+"/profiles/"+s.steamID+"/inventory")

	var body inventoryPage
	err = s.doJSON(req, &body)
	switch {
	case err == nil:
	case config.IsTransient(err):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", config.ErrInventoryUnavailable, err)
	}

	if body.Success != 1 {
		msg := body.Error
		if msg == "" {
			msg = "request unsuccessful"
		}
		return nil, fmt.Errorf("%w: %s", config.ErrInventoryUnavailable, msg)
	}
	return &body, nil
}

// tradableItems joins assets with their descriptions and keeps tradable ones.
func tradableItems(page *inventoryPage, pair models.InventoryPair) []models.Item {
	type descKey struct{ classID, instanceID string }
	descs := make(map[descKey]inventoryDescription, len(page.Descriptions))
	for _, d := range page.Descriptions {
		descs[descKey{d.ClassID, d.InstanceID}] = d
	}

	items := make([]models.Item, 0, len(page.Assets))
	for _, a := range page.Assets {
		d, ok := descs[descKey{a.ClassID, a.InstanceID}]
		if !ok || d.Tradable != 1 {
			continue
		}

		raw, err := json.Marshal(d)
		if err != nil {
			raw = nil
		}

		contextID := a.ContextID
		if contextID == "" {
			contextID = pair.ContextID
		}
		appID := pair.AppID
		if a.AppID != 0 {
			appID = strconv.Itoa(a.AppID)
		}

		items = append(items, models.Item{
			AppID:          appID,
			ContextID:      contextID,
			AssetID:        a.AssetID,
			ClassID:        a.ClassID,
			InstanceID:     a.InstanceID,
			Amount:         a.Amount,
			MarketHashName: d.MarketHashName,
			MarketName:     d.MarketName,
			Name:           d.Name,
			Raw:            raw,
		})
	}
	return items
}

