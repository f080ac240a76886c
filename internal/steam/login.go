package steam

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Fantasim/looter/internal/config"
)

// Credentials identify the account that owns the items.
type Credentials struct {
	Account      string
	Password     string
	SharedSecret string
}

type rsaKeyResponse struct {
	Response struct {
		PublicKeyMod string `json:"publickey_mod"`
		PublicKeyExp string `json:"publickey_exp"`
		Timestamp    string `json:"timestamp"`
	} `json:"response"`
}

type beginAuthResponse struct {
	Response struct {
		ClientID  string `json:"client_id"`
		RequestID string `json:"request_id"`
		SteamID   string `json:"steamid"`
	} `json:"response"`
}

type pollAuthResponse struct {
	Response struct {
		RefreshToken string `json:"refresh_token"`
		AccessToken  string `json:"access_token"`
		AccountName  string `json:"account_name"`
	} `json:"response"`
}

type finalizeResponse struct {
	SteamID      string `json:"steamID"`
	Error        string `json:"error"`
	TransferInfo []struct {
		URL    string            `json:"url"`
		Params map[string]string `json:"params"`
	} `json:"transfer_info"`
}

// Login authenticates with the password and a fresh guard code, then
// establishes web cookies on every domain the login service hands out.
// Failures wrap config.ErrLogin or config.ErrSession.
func (s *Session) Login(ctx context.Context, creds Credentials) error {
	slog.Info("logging in", "account", creds.Account)

	key, err := s.fetchRSAKey(ctx, creds.Account)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrLogin, err)
	}

	encrypted, err := encryptPassword(key.Response.PublicKeyMod, key.Response.PublicKeyExp, creds.Password)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrLogin, err)
	}

	begin, err := s.beginAuth(ctx, creds.Account, encrypted, key.Response.Timestamp)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrLogin, err)
	}

	code, err := GenerateAuthCode(creds.SharedSecret, time.Now())
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrLogin, err)
	}
	if err := s.submitGuardCode(ctx, begin.Response.ClientID, begin.Response.SteamID, code); err != nil {
		return fmt.Errorf("%w: %v", config.ErrLogin, err)
	}

	refreshToken, err := s.pollAuth(ctx, begin.Response.ClientID, begin.Response.RequestID)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrLogin, err)
	}

	slog.Info("logged into steam",
		"account", creds.Account,
		"steamID", begin.Response.SteamID,
	)

	if err := s.finalize(ctx, refreshToken); err != nil {
		return fmt.Errorf("%w: %v", config.ErrSession, err)
	}

	s.account = creds.Account
	s.steamID = begin.Response.SteamID

	slog.Info("web session established", "account", creds.Account)
	return nil
}

func (s *Session) fetchRSAKey(ctx context.Context, account string) (*rsaKeyResponse, error) {
	q := url.Values{"account_name": {account}}
	req, err := s.newRequest(ctx, http.MethodGet, s.endpoints.WebAPI+config.RSAKeyPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var out rsaKeyResponse
	if err := s.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("fetch rsa key: %w", err)
	}
	if out.Response.PublicKeyMod == "" {
		return nil, fmt.Errorf("fetch rsa key: empty key for %q", account)
	}
	return &out, nil
}

func (s *Session) beginAuth(ctx context.Context, account, encryptedPassword, timestamp string) (*beginAuthResponse, error) {
	form := url.Values{
		"account_name":         {account},
		"encrypted_password":   {encryptedPassword},
		"encryption_timestamp": {timestamp},
		"remember_login":       {"false"},
		"persistence":          {"1"},
		"website_id":           {config.SteamWebsiteID},
	}
	req, err := s.newRequest(ctx, http.MethodPost, s.endpoints.WebAPI+config.BeginAuthPath, form)
	if err != nil {
		return nil, err
	}

	var out beginAuthResponse
	if err := s.doJSON(req, &out); err != nil {
		return nil, fmt.Errorf("begin auth session: %w", err)
	}
	if out.Response.ClientID == "" || out.Response.SteamID == "" {
		return nil, fmt.Errorf("begin auth session: credentials rejected")
	}
	return &out, nil
}

func (s *Session) submitGuardCode(ctx context.Context, clientID, steamID, code string) error {
	form := url.Values{
		"client_id": {clientID},
		"steamid":   {steamID},
		"code":      {code},
		"code_type": {strconv.Itoa(config.SteamGuardDeviceCode)},
	}
	req, err := s.newRequest(ctx, http.MethodPost, s.endpoints.WebAPI+config.SubmitGuardCodePath, form)
	if err != nil {
		return err
	}

	var out map[string]interface{}
	if err := s.doJSON(req, &out); err != nil {
		return fmt.Errorf("submit guard code: %w", err)
	}
	return nil
}

// pollAuth waits for the login service to issue a refresh token.
func (s *Session) pollAuth(ctx context.Context, clientID, requestID string) (string, error) {
	form := url.Values{
		"client_id":  {clientID},
		"request_id": {requestID},
	}

	for attempt := 1; attempt <= config.LoginPollAttempts; attempt++ {
		req, err := s.newRequest(ctx, http.MethodPost, s.endpoints.WebAPI+config.PollAuthPath, form)
		if err != nil {
			return "", err
		}

		var out pollAuthResponse
		if err := s.doJSON(req, &out); err != nil {
			return "", fmt.Errorf("poll auth session: %w", err)
		}
		if out.Response.RefreshToken != "" {
			return out.Response.RefreshToken, nil
		}

		slog.Debug("auth session pending", "attempt", attempt)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(config.LoginPollInterval):
		}
	}

	return "", fmt.Errorf("poll auth session: no token after %d attempts", config.LoginPollAttempts)
}

// finalize exchanges the refresh token for web cookies.
func (s *Session) finalize(ctx context.Context, refreshToken string) error {
	form := url.Values{
		"nonce":     {refreshToken},
		"sessionid": {s.sessionID},
		"redir":     {s.endpoints.Community + "/login/home/?goto="},
	}
	req, err := s.newRequest(ctx, http.MethodPost, s.endpoints.Login+config.FinalizeLoginPath, form)
	if err != nil {
		return err
	}

	var out finalizeResponse
	if err := s.doJSON(req, &out); err != nil {
		return fmt.Errorf("finalize login: %w", err)
	}
	if out.Error != "" {
		return fmt.Errorf("finalize login: %s", out.Error)
	}

	for _, transfer := range out.TransferInfo {
		form := url.Values{"steamID": {out.SteamID}}
		for k, v := range transfer.Params {
			form.Set(k, v)
		}

		req, err := s.newRequest(ctx, http.MethodPost, transfer.URL, form)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return fmt.Errorf("transfer cookies to %s: %w", transfer.URL, err)
		}
		resp.Body.Close()
		if err := checkStatus(resp); err != nil {
			return fmt.Errorf("transfer cookies to %s: %w", transfer.URL, err)
		}

		slog.Debug("session cookies transferred", "url", transfer.URL)
	}

	return nil
}

// encryptPassword encrypts password with the hex-encoded RSA key using
// PKCS#1 v1.5 and returns it base64 encoded.
func encryptPassword(modHex, expHex, password string) (string, error) {
	mod, ok := new(big.Int).SetString(modHex, 16)
	if !ok {
		return "", fmt.Errorf("invalid rsa modulus")
	}
	exp, ok := new(big.Int).SetString(expHex, 16)
	if !ok || !exp.IsInt64() {
		return "", fmt.Errorf("invalid rsa exponent")
	}

	pub := &rsa.PublicKey{N: mod, E: int(exp.Int64())}
	cipher, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(password))
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(cipher), nil
}
