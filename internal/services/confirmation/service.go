// Package confirmation ingests Daraja C2B confirmation callbacks and
// persists them as immutable payment records.
package confirmation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pesagate/internal/domain/payment"

	"github.com/rs/zerolog/log"
)

// Payload carries the provider's native field names. Every field is
// optional at the transport level; a missing key stays nil and maps to a
// NULL column, never to an empty string.
type Payload struct {
	TransactionType   *string `json:"TransactionType"`
	TransID           *string `json:"TransID"`
	TransTime         *string `json:"TransTime"`
	TransAmount       *string `json:"TransAmount"`
	BusinessShortCode *string `json:"BusinessShortCode"`
	BillRefNumber     *string `json:"BillRefNumber"`
	InvoiceNumber     *string `json:"InvoiceNumber"`
	OrgAccountBalance *string `json:"OrgAccountBalance"`
	ThirdPartyTransID *string `json:"ThirdPartyTransID"`
	MSISDN            *string `json:"MSISDN"`
	FirstName         *string `json:"FirstName"`
	MiddleName        *string `json:"MiddleName"`
	LastName          *string `json:"LastName"`
}

// ErrMalformedPayload rejects callbacks that cannot identify a payment
// before any database work happens.
var ErrMalformedPayload = errors.New("malformed confirmation payload")

// StoreError reports a failed persist. The underlying cause is preserved
// for the caller to log or act on; it is never flattened into a string.
type StoreError struct {
	Cause error
}

func (e *StoreError) Error() string { return fmt.Sprintf("persist confirmation: %v", e.Cause) }
func (e *StoreError) Unwrap() error { return e.Cause }

// Store is the persistence dependency. The postgres repository satisfies
// it; tests substitute fakes.
type Store interface {
	InsertConfirmation(ctx context.Context, rec *payment.Record) (int64, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// Ingest maps a callback payload onto a payment.Record field by field and
// commits it in a single transaction. Exactly one of two outcomes is
// possible: the row is durably persisted and its id returned, or nothing is
// written and an error comes back. A replayed TransID resolves to the
// already-persisted row and counts as success.
func (s *Service) Ingest(ctx context.Context, p Payload) (int64, error) {
	transID := deref(p.TransID)
	if strings.TrimSpace(transID) == "" {
		return 0, fmt.Errorf("%w: missing TransID", ErrMalformedPayload)
	}

	rec := payment.Record{
		TransactionType: p.TransactionType,
		TransID:         transID,
		TransTime:       p.TransTime,
		ShortCode:       p.BusinessShortCode,
		BillRef:         p.BillRefNumber,
		InvoiceNo:       p.InvoiceNumber,
		ThirdPartyID:    p.ThirdPartyTransID,
		MSISDN:          p.MSISDN,
		FirstName:       p.FirstName,
		MiddleName:      p.MiddleName,
		LastName:        p.LastName,
	}

	if p.TransAmount != nil {
		amt, err := payment.ParseMoney(*p.TransAmount)
		if err != nil {
			return 0, fmt.Errorf("%w: bad TransAmount: %v", ErrMalformedPayload, err)
		}
		rec.Amount = &amt
	}
	if p.OrgAccountBalance != nil {
		bal, err := payment.ParseMoney(*p.OrgAccountBalance)
		if err != nil {
			return 0, fmt.Errorf("%w: bad OrgAccountBalance: %v", ErrMalformedPayload, err)
		}
		rec.OrgBalance = &bal
	}

	id, err := s.store.InsertConfirmation(ctx, &rec)
	if err != nil {
		log.Error().Err(err).Str("trans_id", transID).Msg("confirmation persist failed")
		return 0, &StoreError{Cause: err}
	}

	log.Info().Int64("confirmation_id", id).Str("trans_id", transID).Msg("confirmation persisted")
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
