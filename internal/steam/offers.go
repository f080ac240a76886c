package steam

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Fantasim/looter/internal/config"
	"github.com/Fantasim/looter/internal/models"
)

// TradeLink is a parsed trade offer link of the recipient.
type TradeLink struct {
	Partner uint32
	Token   string
}

// ParseTradeLink extracts the partner account ID and access token from a
// trade offer URL.
func ParseTradeLink(link string) (TradeLink, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return TradeLink{}, fmt.Errorf("%w: %v", config.ErrInvalidTradeLink, err)
	}

	q := u.Query()
	partner, err := strconv.ParseUint(q.Get("partner"), 10, 32)
	if err != nil {
		return TradeLink{}, fmt.Errorf("%w: bad partner %q", config.ErrInvalidTradeLink, q.Get("partner"))
	}
	token := q.Get("token")
	if token == "" {
		return TradeLink{}, fmt.Errorf("%w: missing token", config.ErrInvalidTradeLink)
	}

	return TradeLink{Partner: uint32(partner), Token: token}, nil
}

// SteamID64 returns the recipient's 64-bit ID.
func (l TradeLink) SteamID64() string {
	return strconv.FormatUint(config.SteamIDBase+uint64(l.Partner), 10)
}

type offerAsset struct {
	AppID     int    `json:"appid"`
	ContextID string `json:"contextid"`
	Amount    int    `json:"amount"`
	AssetID   string `json:"assetid"`
}

type offerSide struct {
	Assets   []offerAsset  `json:"assets"`
	Currency []interface{} `json:"currency"`
	Ready    bool          `json:"ready"`
}

type offerPayload struct {
	NewVersion bool      `json:"newversion"`
	Version    int       `json:"version"`
	Me         offerSide `json:"me"`
	Them       offerSide `json:"them"`
}

type sendOfferResponse struct {
	TradeOfferID            string `json:"tradeofferid"`
	NeedsMobileConfirmation bool   `json:"needs_mobile_confirmation"`
	NeedsEmailConfirmation  bool   `json:"needs_email_confirmation"`
	StrError                string `json:"strError"`
}

// Offers sends one-sided trade offers from the logged-in account.
type Offers struct {
	session *Session
}

// NewOffers creates an offer sender over an authenticated session.
func NewOffers(s *Session) *Offers {
	return &Offers{session: s}
}

// Send offers every item to the owner of link, asking nothing in return.
// Any failure wraps config.ErrTransport.
func (o *Offers) Send(ctx context.Context, link string, items []models.Item) (models.OfferResult, error) {
	tl, err := ParseTradeLink(link)
	if err != nil {
		return models.OfferResult{}, fmt.Errorf("%w: %w", config.ErrTransport, err)
	}

	payload, err := buildOfferPayload(items)
	if err != nil {
		return models.OfferResult{}, fmt.Errorf("%w: %v", config.ErrTransport, err)
	}
	params, err := json.Marshal(map[string]string{"trade_offer_access_token": tl.Token})
	if err != nil {
		return models.OfferResult{}, fmt.Errorf("%w: encode params: %v", config.ErrTransport, err)
	}

	s := o.session
	form := url.Values{
		"sessionid":                 {s.sessionID},
		"serverid":                  {"1"},
		"partner":                   {tl.SteamID64()},
		"tradeoffermessage":         {""},
		"json_tradeoffer":           {string(payload)},
		"captcha":                   {""},
		"trade_offer_create_params": {string(params)},
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.endpoints.Community+config.TradeOfferSendPath, form)
	if err != nil {
		return models.OfferResult{}, fmt.Errorf("%w: %v", config.ErrTransport, err)
	}
	req.Header.Set("Referer", fmt.Sprintf("%s%s?partner=%d&token=%s",
		s.endpoints.Community, config.TradeOfferNewPath, tl.Partner, url.QueryEscape(tl.Token)))

	resp, err := s.client.Do(req)
	if err != nil {
		return models.OfferResult{}, fmt.Errorf("%w: %v", config.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.OfferResult{}, fmt.Errorf("%w: read response: %v", config.ErrTransport, err)
	}

	// Failures arrive as non-200 with a strError body.
	var out sendOfferResponse
	if jsonErr := json.Unmarshal(data, &out); jsonErr != nil && resp.StatusCode == http.StatusOK {
		return models.OfferResult{}, fmt.Errorf("%w: decode response: %v", config.ErrTransport, jsonErr)
	}
	if out.StrError != "" {
		return models.OfferResult{}, fmt.Errorf("%w: %s", config.ErrTransport, out.StrError)
	}
	if resp.StatusCode != http.StatusOK {
		return models.OfferResult{}, fmt.Errorf("%w: HTTP %d", config.ErrTransport, resp.StatusCode)
	}
	if out.TradeOfferID == "" {
		return models.OfferResult{}, fmt.Errorf("%w: no offer id in response", config.ErrTransport)
	}

	result := models.OfferResult{
		OfferID:           out.TradeOfferID,
		NeedsConfirmation: out.NeedsMobileConfirmation || out.NeedsEmailConfirmation,
	}

	slog.Info("trade offer sent",
		"offerID", result.OfferID,
		"items", len(items),
		"needsConfirmation", result.NeedsConfirmation,
	)
	return result, nil
}

func buildOfferPayload(items []models.Item) ([]byte, error) {
	assets := make([]offerAsset, 0, len(items))
	for _, it := range items {
		appID, err := strconv.Atoi(it.AppID)
		if err != nil {
			return nil, fmt.Errorf("item %s: bad app id %q", it.AssetID, it.AppID)
		}
		amount, err := strconv.Atoi(it.Amount)
		if err != nil || amount < 1 {
			amount = 1
		}
		assets = append(assets, offerAsset{
			AppID:     appID,
			ContextID: it.ContextID,
			Amount:    amount,
			AssetID:   it.AssetID,
		})
	}

	return json.Marshal(offerPayload{
		NewVersion: true,
		Version:    len(assets) + 1,
		Me:         offerSide{Assets: assets, Currency: []interface{}{}},
		Them:       offerSide{Assets: []offerAsset{}, Currency: []interface{}{}},
	})
}
