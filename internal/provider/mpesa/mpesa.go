package mpesa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pesagate/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Daraja credential/config errors, surfaced when an outbound call is made
// rather than at startup so the ingestion side can run without them.
var ErrMissingCredentials = errors.New("mpesa consumer key/secret not configured")

type Provider struct {
	cfg        config.MpesaCfg
	appBaseURL string
	base       string // overridable in tests
	http       *http.Client
}

func New(cfg config.Cfg) *Provider {
	return &Provider{
		cfg:        cfg.Mpesa,
		appBaseURL: cfg.App.BaseURL,
		base:       baseURL(cfg.Mpesa.Environment),
		http:       &http.Client{Timeout: 15 * time.Second},
	}
}

func baseURL(env string) string {
	if env == "production" {
		return "https://api.safaricom.co.ke"
	}
	return "https://sandbox.safaricom.co.ke"
}

// doWithRetry runs a Daraja request with bounded exponential backoff.
// Transport errors and 5xx responses retry; anything else is final. The
// request is rebuilt per attempt so POST bodies can be re-sent.
func (p *Provider) doWithRetry(ctx context.Context, newReq func() (*http.Request, error)) (*http.Response, error) {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	var res *http.Response
	err := backoff.Retry(func() error {
		req, err := newReq()
		if err != nil {
			return backoff.Permanent(err)
		}
		r, err := p.http.Do(req)
		if err != nil {
			log.Warn().Err(err).Str("url", req.URL.Path).Msg("daraja request failed, retrying")
			return err
		}
		if r.StatusCode >= 500 {
			b, _ := io.ReadAll(r.Body)
			r.Body.Close()
			return fmt.Errorf("daraja %s: %s", r.Status, string(b))
		}
		res = r
		return nil
	}, bo)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Token fetches an OAuth access token from Daraja.
func (p *Provider) Token(ctx context.Context) (string, error) {
	if p.cfg.ConsumerKey == "" || p.cfg.ConsumerSecret == "" {
		return "", ErrMissingCredentials
	}

	res, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "GET",
			p.base+"/oauth/v1/generate?grant_type=client_credentials", nil)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(p.cfg.ConsumerKey, p.cfg.ConsumerSecret)
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		b, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("auth failed: %s; body=%s", res.Status, string(b))
	}

	var t struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&t); err != nil {
		return "", err
	}
	if t.AccessToken == "" {
		return "", fmt.Errorf("empty access token returned")
	}
	return t.AccessToken, nil
}
