package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Config carries the cross-cutting settings the router wires as middleware.
type Config struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	DefaultLocale   string
	Country         middleware.CountryLookup
	Logger          zerolog.Logger
}

func NewRouter(app *handlers.App, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(cfg.Logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.I18N(cfg.DefaultLocale, cfg.Country),
	)

	// Health stays public for load balancer probes.
	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(cfg.JWTSecret))

		r.Route("/v1/campaigns", func(r chi.Router) {
			r.Post("/", app.CampaignsCreate)
			r.Get("/", app.CampaignsList)
			r.Get("/{id}", app.CampaignsGet)
			r.Get("/{id}/progress", app.CampaignsProgress)
		})

		r.Route("/v1/donations", func(r chi.Router) {
			r.Post("/", app.DonationsCreate)
			r.Get("/recent", app.DonationsRecent)
			r.Patch("/{id}/status", app.DonationsSetStatus)
		})

		r.Route("/v1/me", func(r chi.Router) {
			r.Get("/", app.Me)
			r.Get("/donations", app.DonationsMine)
		})

		r.Get("/v1/stats/summary", app.Stats)
	})

	return r
}
