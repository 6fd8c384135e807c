package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pesagate/internal/domain/payment"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// ConfirmationReader is the read side of the confirmation store.
type ConfirmationReader interface {
	GetConfirmation(ctx context.Context, id int64) (*payment.Record, error)
	ListConfirmations(ctx context.Context, limit, offset int) ([]payment.Record, error)
}

type paymentItem struct {
	ID              int64     `json:"id"`
	TransactionType *string   `json:"transactionType,omitempty"`
	TransID         string    `json:"transId"`
	TransTime       *string   `json:"transTime,omitempty"`
	Amount          *string   `json:"amount,omitempty"`
	ShortCode       *string   `json:"businessShortCode,omitempty"`
	BillRef         *string   `json:"billRefNumber,omitempty"`
	InvoiceNo       *string   `json:"invoiceNumber,omitempty"`
	OrgBalance      *string   `json:"orgAccountBalance,omitempty"`
	ThirdPartyID    *string   `json:"thirdPartyTransId,omitempty"`
	MSISDN          *string   `json:"msisdn,omitempty"`
	FirstName       *string   `json:"firstName,omitempty"`
	MiddleName      *string   `json:"middleName,omitempty"`
	LastName        *string   `json:"lastName,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toItem(rec payment.Record) paymentItem {
	return paymentItem{
		ID:              rec.ID,
		TransactionType: rec.TransactionType,
		TransID:         rec.TransID,
		TransTime:       rec.TransTime,
		Amount:          moneyStr(rec.Amount),
		ShortCode:       rec.ShortCode,
		BillRef:         rec.BillRef,
		InvoiceNo:       rec.InvoiceNo,
		OrgBalance:      moneyStr(rec.OrgBalance),
		ThirdPartyID:    rec.ThirdPartyID,
		MSISDN:          rec.MSISDN,
		FirstName:       rec.FirstName,
		MiddleName:      rec.MiddleName,
		LastName:        rec.LastName,
		CreatedAt:       rec.CreatedAt,
	}
}

func moneyStr(m *payment.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

// ListPayments returns persisted confirmations, newest first.
func ListPayments(store ConfirmationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 50)
		if limit > 200 {
			limit = 200
		}
		offset := queryInt(r, "offset", 0)

		recs, err := store.ListConfirmations(r.Context(), limit, offset)
		if err != nil {
			http.Error(w, "list failed", http.StatusInternalServerError)
			return
		}

		items := make([]paymentItem, 0, len(recs))
		for _, rec := range recs {
			items = append(items, toItem(rec))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(items)
	}
}

// GetPayment returns one confirmation by id.
func GetPayment(store ConfirmationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}

		rec, err := store.GetConfirmation(r.Context(), id)
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toItem(*rec))
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
