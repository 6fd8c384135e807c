package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// STK push parameter errors, checked by the caller with errors.Is.
var (
	ErrInvalidAmount    = errors.New("amount must be a positive whole number")
	ErrBlankAccountRef  = errors.New("account reference cannot be blank")
	ErrBlankDescription = errors.New("transaction description cannot be blank")
)

type STKPushReq struct {
	Amount      int
	Phone       string
	AccountRef  string
	Description string
}

type STKPushResp struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	CustomerMessage   string `json:"CustomerMessage"`
}

// STKPush validates the request, normalizes the payer's phone number and
// asks Daraja to prompt the payer's device.
func (p *Provider) STKPush(ctx context.Context, r STKPushReq) (*STKPushResp, error) {
	if r.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(r.AccountRef) == "" {
		return nil, ErrBlankAccountRef
	}
	if strings.TrimSpace(r.Description) == "" {
		return nil, ErrBlankDescription
	}
	phone, err := NormalizePhone(r.Phone)
	if err != nil {
		return nil, err
	}

	token, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}

	// Timestamp in EAT
	ts := time.Now().In(time.FixedZone("EAT", 3*3600)).Format("20060102150405")
	pwd := base64.StdEncoding.EncodeToString([]byte(p.cfg.ShortCode + p.cfg.Passkey + ts))

	payload := map[string]any{
		"BusinessShortCode": p.cfg.ShortCode,
		"Password":          pwd,
		"Timestamp":         ts,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            r.Amount,
		"PartyA":            phone,
		"PartyB":            p.cfg.ShortCode,
		"PhoneNumber":       phone,
		"CallBackURL":       p.appBaseURL + "/webhooks/confirm",
		"AccountReference":  r.AccountRef,
		"TransactionDesc":   r.Description,
	}
	b, _ := json.Marshal(payload)

	res, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, "POST",
			p.base+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		b2, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("stk failed: %s; body=%s", res.Status, string(b2))
	}

	var out STKPushResp
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
