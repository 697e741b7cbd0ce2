package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/sqlinline"
)

// Stats serves the admin dashboard summary in one round trip.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	actor, err := a.currentUser(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	if !actor.IsAdmin() {
		a.fail(w, domain.ErrForbidden)
		return
	}

	var (
		campaigns       int64
		activeCampaigns int64
		donations       int64
		totalDonated    decimal.Decimal
		donationsLast24 int64
		members         int64
	)
	err = a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary).Scan(
		&campaigns, &activeCampaigns, &donations, &totalDonated, &donationsLast24, &members,
	)
	if err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"campaigns":          campaigns,
		"active_campaigns":   activeCampaigns,
		"donations":          donations,
		"total_donated":      totalDonated,
		"donations_last_24h": donationsLast24,
		"members":            members,
	})
}
