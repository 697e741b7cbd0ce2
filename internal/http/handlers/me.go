package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"server/internal/sqlinline"
)

// Me returns the authenticated user's profile, campaign memberships and
// lifetime donated total.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := a.currentUser(r)
	if err != nil {
		a.fail(w, err)
		return
	}

	memberships, err := a.Ledger.MembershipsByUser(r.Context(), actor.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]membershipDTO, 0, len(memberships))
	for _, m := range memberships {
		items = append(items, membershipDTO{CampaignID: m.CampaignID, Role: string(m.Role), CreatedAt: m.CreatedAt})
	}

	var total decimal.Decimal
	if err := a.SQL.QueryRow(r.Context(), sqlinline.QUserTotalDonations, actor.ID).Scan(&total); err != nil {
		a.fail(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":     actor.ID,
			"email":  actor.Email,
			"name":   actor.Name,
			"locale": actor.Locale,
			"role":   string(actor.Role),
		},
		"memberships":   items,
		"total_donated": total,
	})
}
