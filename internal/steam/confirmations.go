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
)

type confirmation struct {
	ID        string `json:"id"`
	Nonce     string `json:"nonce"`
	CreatorID string `json:"creator_id"`
	Type      int    `json:"type"`
}

type confirmationList struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Conf    []confirmation `json:"conf"`
}

type confirmationOpResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Confirmations accepts pending mobile confirmations with the identity secret.
type Confirmations struct {
	session        *Session
	identitySecret string
	now            func() time.Time
}

// NewConfirmations creates a confirmer for the logged-in account.
func NewConfirmations(s *Session, identitySecret string) *Confirmations {
	return &Confirmations{
		session:        s,
		identitySecret: identitySecret,
		now:            time.Now,
	}
}

// AcceptConfirmation approves the pending confirmation created by offerID.
// When the platform does not list it yet, or refuses to act on it, the error
// wraps config.ErrConfirmationNotApplicable.
func (c *Confirmations) AcceptConfirmation(ctx context.Context, offerID string) error {
	list, err := c.list(ctx)
	if err != nil {
		return err
	}

	var target *confirmation
	for i := range list {
		if list[i].CreatorID == offerID {
			target = &list[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: no confirmation for offer %s", config.ErrConfirmationNotApplicable, offerID)
	}

	q, err := c.query(config.ConfirmationAllowTag)
	if err != nil {
		return err
	}
	q.Set("op", config.ConfirmationAllowTag)
	q.Set("cid", target.ID)
	q.Set("ck", target.Nonce)

	var out confirmationOpResponse
	if err := c.get(ctx, config.ConfirmationOpPath, q, &out); err != nil {
		return fmt.Errorf("respond to confirmation: %w", err)
	}
	if !out.Success {
		slog.Warn("confirmation rejected",
			"offerID", offerID,
			"confirmationID", target.ID,
			"message", out.Message,
		)
		return fmt.Errorf("%w: %s", config.ErrConfirmationNotApplicable, config.ConfirmationNotActMsg)
	}

	slog.Info("confirmation accepted",
		"offerID", offerID,
		"confirmationID", target.ID,
	)
	return nil
}

// AcknowledgeNewOffer tells the platform an offer was just created and
// returns the HTTP status of the call.
func (c *Confirmations) AcknowledgeNewOffer(ctx context.Context) (int, error) {
	s := c.session
	form := url.Values{
		"sessionid": {s.sessionID},
		"message":   {"1"},
	}
	req, err := s.newRequest(ctx, http.MethodPost, s.endpoints.Community+config.AcknowledgePath, form)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Referer", s.endpoints.Community)

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("acknowledge new offer: %w", err)
	}
	resp.Body.Close()

	slog.Debug("new offer acknowledged", "status", resp.StatusCode)
	return resp.StatusCode, nil
}

func (c *Confirmations) list(ctx context.Context) ([]confirmation, error) {
	q, err := c.query(config.ConfirmationListTag)
	if err != nil {
		return nil, err
	}

	var out confirmationList
	if err := c.get(ctx, config.ConfirmationListPath, q, &out); err != nil {
		return nil, fmt.Errorf("list confirmations: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("list confirmations: %s", out.Message)
	}
	return out.Conf, nil
}

// query builds the signed parameters shared by every confirmation call.
func (c *Confirmations) query(tag string) (url.Values, error) {
	now := c.now()
	key, err := ConfirmationKey(c.identitySecret, now, tag)
	if err != nil {
		return nil, err
	}

	s := c.session
	return url.Values{
		"p":   {DeviceID(s.steamID)},
		"a":   {s.steamID},
		"k":   {key},
		"t":   {strconv.FormatInt(now.Unix(), 10)},
		"m":   {"react"},
		"tag": {tag},
	}, nil
}

func (c *Confirmations) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	s := c.session
	req, err := s.newRequest(ctx, http.MethodGet, s.endpoints.Community+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	return s.doJSON(req, out)
}
