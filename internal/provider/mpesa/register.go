package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type registerURLReq struct {
	ShortCode       string `json:"ShortCode"`
	ResponseType    string `json:"ResponseType"` // "Completed" or "Cancelled"
	ConfirmationURL string `json:"ConfirmationURL"`
	ValidationURL   string `json:"ValidationURL"`
}

// RegisterURLs points Daraja C2B callbacks at this service's webhook
// endpoints.
func (p *Provider) RegisterURLs(ctx context.Context, confirmURL, validateURL, responseType string) error {
	token, err := p.Token(ctx)
	if err != nil {
		return err
	}

	if responseType == "" {
		responseType = "Completed"
	}
	if confirmURL == "" {
		confirmURL = p.appBaseURL + "/webhooks/confirm"
	}
	if validateURL == "" {
		validateURL = p.appBaseURL + "/webhooks/validate"
	}

	payload := registerURLReq{
		ShortCode:       p.cfg.ShortCode,
		ResponseType:    responseType,
		ConfirmationURL: confirmURL,
		ValidationURL:   validateURL,
	}
	b, _ := json.Marshal(payload)

	res, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "POST",
			p.base+"/mpesa/c2b/v1/registerurl", bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		return fmt.Errorf("register urls failed: %s", res.Status)
	}
	return nil
}
