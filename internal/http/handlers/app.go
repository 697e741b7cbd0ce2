package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/service"
)

// App is the handler container wired by the router. Ledger serves the write
// paths, SQL serves aggregate read queries from sqlinline.
type App struct {
	Ledger   *service.Ledger
	Users    domain.UserRepository
	SQL      infra.SQLExecutor
	Logger   zerolog.Logger
	Currency string
}

func NewApp(ledger *service.Ledger, users domain.UserRepository, sql infra.SQLExecutor, logger zerolog.Logger, currency string) *App {
	return &App{Ledger: ledger, Users: users, SQL: sql, Logger: logger, Currency: currency}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, map[string]any{"error": map[string]string{"kind": kind, "message": msg}})
}

// fail maps domain errors onto stable error kinds. 5xx responses never carry
// internal error text.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "admin role required")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		a.error(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, domain.ErrTransientStore):
		a.error(w, http.StatusServiceUnavailable, "unavailable", "store temporarily unavailable")
	case errors.Is(err, domain.ErrConsistency):
		a.error(w, http.StatusInternalServerError, "consistency", "ledger update could not be applied")
	default:
		a.Logger.Error().Err(err).Msg("unhandled request error")
		a.error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// currentUser resolves the authenticated principal from the verified token
// subject. The user row is the authoritative role source.
func (a *App) currentUser(r *http.Request) (*domain.User, error) {
	id := middleware.UserIDFromContext(r.Context())
	if id == "" {
		return nil, domain.ErrUnauthorized
	}
	u, err := a.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}
