package httpx

import (
	"encoding/json"
	"net/http"

	"pesagate/internal/config"
	"pesagate/internal/http/handlers"
	middlewarex "pesagate/internal/http/middleware"
	"pesagate/internal/services/confirmation"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Config   config.Cfg
	Store    handlers.ConfirmationReader
	Ingest   *confirmation.Service
	Gateway  handlers.Gateway
	RedisCli *redis.Client
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Outbound Daraja operations
	r.Route("/mpesa", func(r chi.Router) {
		r.Get("/token", handlers.Token(d.Gateway))
		r.Post("/register", handlers.RegisterURLs(d.Gateway))
		r.Post("/stkpush", handlers.CreateSTK(d.Gateway))
	})

	// Provider callbacks (public; rate limited)
	r.Route("/webhooks", func(r chi.Router) {
		r.Use(middlewarex.RateLimit(d.RedisCli, d.Config.Sec.RateLimitPerMin))
		r.Post("/validate", handlers.MpesaValidation())
		r.Post("/confirm", handlers.MpesaConfirmation(d.Ingest))
	})

	// Read API
	r.Get("/payments", handlers.ListPayments(d.Store))
	r.Get("/payments/{id}", handlers.GetPayment(d.Store))

	return r
}
