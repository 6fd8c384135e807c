package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pesagate/internal/domain/payment"
	"pesagate/internal/services/confirmation"
)

type fakeStore struct {
	rec *payment.Record
	id  int64
	err error
}

func (f *fakeStore) InsertConfirmation(_ context.Context, rec *payment.Record) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.rec = rec
	return f.id, nil
}

func postConfirm(t *testing.T, store *fakeStore, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := MpesaConfirmation(confirmation.NewService(store))
	req := httptest.NewRequest("POST", "/webhooks/confirm", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeAck(t *testing.T, w *httptest.ResponseRecorder) resultAck {
	t.Helper()
	var ack resultAck
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("bad ack body %q: %v", w.Body.String(), err)
	}
	return ack
}

func TestConfirmationPersistsAndAccepts(t *testing.T) {
	store := &fakeStore{id: 1}
	w := postConfirm(t, store,
		`{"TransID":"ABC123","TransAmount":"10.00","MSISDN":"254712345678"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	ack := decodeAck(t, w)
	if ack.ResultCode != 0 || ack.ResultDesc != "Accepted" {
		t.Fatalf("ack = %+v", ack)
	}

	if store.rec == nil {
		t.Fatal("nothing persisted")
	}
	if store.rec.TransID != "ABC123" {
		t.Fatalf("TransID = %q", store.rec.TransID)
	}
	if store.rec.Amount == nil || *store.rec.Amount != 1000 {
		t.Fatalf("Amount = %v, want 1000 cents", store.rec.Amount)
	}
	if store.rec.BillRef != nil || store.rec.FirstName != nil {
		t.Fatal("absent payload fields must stay absent")
	}
}

func TestConfirmationRejectsWhenPersistFails(t *testing.T) {
	store := &fakeStore{err: errors.New("commit failed")}
	w := postConfirm(t, store,
		`{"TransID":"ABC123","TransAmount":"10.00"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the provider retries", w.Code)
	}
	ack := decodeAck(t, w)
	if ack.ResultCode != 1 || ack.ResultDesc != "Failed" {
		t.Fatalf("ack = %+v", ack)
	}
}

func TestConfirmationRejectsMalformedPayload(t *testing.T) {
	store := &fakeStore{}
	w := postConfirm(t, store, `{"TransAmount":"10.00"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if ack := decodeAck(t, w); ack.ResultCode != 1 {
		t.Fatalf("ack = %+v", ack)
	}
	if store.rec != nil {
		t.Fatal("malformed payload must not reach the store")
	}
}

func TestConfirmationRejectsBadJSON(t *testing.T) {
	w := postConfirm(t, &fakeStore{}, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestValidationAlwaysAccepts(t *testing.T) {
	h := MpesaValidation()
	req := httptest.NewRequest("POST", "/webhooks/validate",
		strings.NewReader(`{"TransID":"ABC123","BillRefNumber":"whatever"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ack := decodeAck(t, w); ack.ResultCode != 0 || ack.ResultDesc != "Accepted" {
		t.Fatalf("ack = %+v", ack)
	}
}
