package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"pesagate/internal/services/confirmation"

	"github.com/rs/zerolog/log"
)

// resultAck is the acknowledgment shape Daraja expects back from C2B
// validation and confirmation endpoints.
type resultAck struct {
	ResultCode int    `json:"ResultCode"` // 0 accept; non-zero reject
	ResultDesc string `json:"ResultDesc"`
}

func writeAck(w http.ResponseWriter, status int, ack resultAck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ack)
}

// MpesaValidation accepts every transaction. Validation rules belong to the
// merchant; this deployment has none, matching the registered
// ResponseType=Completed behavior.
func MpesaValidation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		log.Info().RawJSON("payload", body).Msg("c2b validation request")
		writeAck(w, http.StatusOK, resultAck{ResultCode: 0, ResultDesc: "Accepted"})
	}
}

// MpesaConfirmation persists the confirmation before ACKing. A non-2xx
// response makes Daraja retry, so the ACK only goes out once the row is
// durably committed (or already exists from an earlier delivery).
func MpesaConfirmation(svc *confirmation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p confirmation.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if _, err := svc.Ingest(r.Context(), p); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, confirmation.ErrMalformedPayload) {
				status = http.StatusBadRequest
			}
			writeAck(w, status, resultAck{ResultCode: 1, ResultDesc: "Failed"})
			return
		}

		writeAck(w, http.StatusOK, resultAck{ResultCode: 0, ResultDesc: "Accepted"})
	}
}
