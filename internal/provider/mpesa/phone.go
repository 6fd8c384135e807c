package mpesa

import "errors"

// ErrPhoneTooShort is returned when a phone number has fewer than nine
// characters and cannot carry a Kenyan subscriber number.
var ErrPhoneTooShort = errors.New("phone number too short")

// NormalizePhone converts a locally formatted phone number into the
// international form Daraja expects: "254" followed by the last nine
// characters of the input. Inputs already carrying a country code come out
// unchanged, so re-normalizing is a no-op. Digit content is not validated
// here; Daraja rejects garbage on its side.
func NormalizePhone(raw string) (string, error) {
	if len(raw) < 9 {
		return "", ErrPhoneTooShort
	}
	return "254" + raw[len(raw)-9:], nil
}
