package payment

import (
	"fmt"
	"strings"
	"time"
)

// Record is one confirmed C2B payment as reported by Daraja. Rows are
// append-only: a record is written once when the confirmation callback is
// accepted and never mutated afterwards.
type Record struct {
	ID              int64
	TransactionType *string
	TransID         string
	TransTime       *string // provider format YYYYMMDDHHMMSS, stored verbatim
	Amount          *Money
	ShortCode       *string
	BillRef         *string
	InvoiceNo       *string
	OrgBalance      *Money
	ThirdPartyID    *string
	MSISDN          *string
	FirstName       *string
	MiddleName      *string
	LastName        *string
	CreatedAt       time.Time
}

// Money represents a monetary amount in smallest currency unit (cents).
type Money int64

// Currency represents a currency code.
type Currency string

const (
	KES Currency = "KES"
)

// ParseMoney converts a decimal amount string like "10.00" into cents.
// Parsing is exact: no float ever carries the value. A third decimal digit
// rounds half-up, which matches how Daraja reports KES amounts.
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if whole == "" {
		whole = "0"
	}

	var cents Money
	for _, c := range whole {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		cents = cents*10 + Money(c-'0')
	}
	cents *= 100

	for i, c := range frac {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		switch i {
		case 0:
			cents += Money(c-'0') * 10
		case 1:
			cents += Money(c - '0')
		case 2:
			if c >= '5' {
				cents++
			}
		}
		// digits past the third carry no weight
	}

	if neg {
		cents = -cents
	}
	return cents, nil
}

// String formats the amount back to a two-decimal string, e.g. "10.00".
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
