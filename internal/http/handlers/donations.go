package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/service"
	"server/internal/sqlinline"
)

type donationRequest struct {
	CampaignID string           `json:"campaign_id"`
	UserID     string           `json:"user_id"`
	Amount     *decimal.Decimal `json:"amount"`
	Status     string           `json:"status"`
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := a.currentUser(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	var req donationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "invalid payload")
		return
	}
	if req.Amount == nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "amount required")
		return
	}
	d, err := a.Ledger.RecordDonation(r.Context(), actor, service.RecordDonationInput{
		CampaignID: req.CampaignID,
		UserID:     req.UserID,
		Amount:     *req.Amount,
		Status:     domain.DonationStatus(req.Status),
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"donation": toDonationDTO(d)})
}

type donationStatusRequest struct {
	Status string `json:"status"`
}

func (a *App) DonationsSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := a.currentUser(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	var req donationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "invalid payload")
		return
	}
	d, err := a.Ledger.SetDonationStatus(r.Context(), actor, chi.URLParam(r, "id"), domain.DonationStatus(req.Status))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"donation": toDonationDTO(d)})
}

func (a *App) DonationsMine(w http.ResponseWriter, r *http.Request) {
	actor, err := a.currentUser(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	donations, err := a.Ledger.DonationsByUser(r.Context(), actor.ID, parseLimit(r, 50))
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]donationDTO, 0, len(donations))
	for i := range donations {
		items = append(items, toDonationDTO(&donations[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

type recentDonationRow struct {
	ID           string          `json:"id"`
	CampaignID   string          `json:"campaign_id"`
	CampaignName string          `json:"campaign_name"`
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DonationsRecent is the admin feed. It joins campaign and donor names in a
// single query instead of fanning out through the repositories.
func (a *App) DonationsRecent(w http.ResponseWriter, r *http.Request) {
	actor, err := a.currentUser(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	if !actor.IsAdmin() {
		a.fail(w, domain.ErrForbidden)
		return
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QListRecentDonations, parseLimit(r, 10))
	if err != nil {
		a.fail(w, err)
		return
	}
	defer rows.Close()

	items := make([]recentDonationRow, 0)
	for rows.Next() {
		var row recentDonationRow
		if err := rows.Scan(&row.ID, &row.CampaignID, &row.CampaignName, &row.UserID, &row.UserName, &row.Amount, &row.Status, &row.CreatedAt); err != nil {
			a.fail(w, err)
			return
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > 100 {
		return fallback
	}
	return n
}
