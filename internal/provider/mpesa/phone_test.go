package mpesa

import (
	"errors"
	"testing"
)

func TestNormalizePhoneLocalFormat(t *testing.T) {
	got, err := NormalizePhone("0712345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "254712345678" {
		t.Fatalf("got %q, want 254712345678", got)
	}
}

func TestNormalizePhoneTooShort(t *testing.T) {
	_, err := NormalizePhone("712345")
	if !errors.Is(err, ErrPhoneTooShort) {
		t.Fatalf("got %v, want ErrPhoneTooShort", err)
	}
}

func TestNormalizePhoneKeepsLastNineDigits(t *testing.T) {
	cases := map[string]string{
		"254712345678":  "254712345678", // already international
		"+254712345678": "254712345678", // last 9 win; plus discarded
		"712345678":     "254712345678", // bare subscriber number
	}
	for in, want := range cases {
		got, err := NormalizePhone(in)
		if err != nil {
			t.Fatalf("NormalizePhone(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizePhoneStableUnderReapplication(t *testing.T) {
	once, err := NormalizePhone("0712345678")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := NormalizePhone(once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Fatalf("normalization not stable: %q then %q", once, twice)
	}
}
