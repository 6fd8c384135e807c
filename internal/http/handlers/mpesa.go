package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"pesagate/internal/provider/mpesa"

	"github.com/rs/zerolog/log"
)

// Gateway is the slice of the M-Pesa provider the outbound handlers need.
type Gateway interface {
	Token(ctx context.Context) (string, error)
	STKPush(ctx context.Context, r mpesa.STKPushReq) (*mpesa.STKPushResp, error)
	RegisterURLs(ctx context.Context, confirmURL, validateURL, responseType string) error
}

// Token fetches a Daraja OAuth token and returns it to the caller.
func Token(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, err := gw.Token(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("token fetch failed")
			http.Error(w, "token fetch failed", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	}
}

type registerReq struct {
	ResponseType string `json:"responseType,omitempty"` // default "Completed"
	ConfirmURL   string `json:"confirmUrl,omitempty"`
	ValidateURL  string `json:"validateUrl,omitempty"`
}

// RegisterURLs registers this service's webhook endpoints with Daraja.
func RegisterURLs(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in registerReq
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}

		if err := gw.RegisterURLs(r.Context(), in.ConfirmURL, in.ValidateURL, in.ResponseType); err != nil {
			log.Error().Err(err).Msg("register urls failed")
			http.Error(w, "register failed", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

type stkReq struct {
	Amount      int    `json:"amount"`
	Phone       string `json:"phone"`
	AccountRef  string `json:"accountRef"`
	Description string `json:"description"`
}

type stkResp struct {
	CheckoutRequestID string `json:"checkoutRequestId"`
	CustomerMessage   string `json:"customerMessage"`
}

// CreateSTK initiates an STK push prompt on the payer's device.
func CreateSTK(gw Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in stkReq
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		out, err := gw.STKPush(r.Context(), mpesa.STKPushReq{
			Amount:      in.Amount,
			Phone:       in.Phone,
			AccountRef:  in.AccountRef,
			Description: in.Description,
		})
		if err != nil {
			switch {
			case errors.Is(err, mpesa.ErrInvalidAmount),
				errors.Is(err, mpesa.ErrBlankAccountRef),
				errors.Is(err, mpesa.ErrBlankDescription),
				errors.Is(err, mpesa.ErrPhoneTooShort):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				log.Error().Err(err).
					Str("phone", in.Phone).
					Int("amount", in.Amount).
					Msg("STK push failed")
				http.Error(w, "stk failed", http.StatusBadGateway)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stkResp{
			CheckoutRequestID: out.CheckoutRequestID,
			CustomerMessage:   out.CustomerMessage,
		})
	}
}
