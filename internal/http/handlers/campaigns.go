package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/i18n"
	"server/internal/middleware"
	"server/internal/service"
)

type campaignRequest struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	Status       string           `json:"status"`
}

func (a *App) CampaignsCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := a.currentUser(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "invalid payload")
		return
	}
	if req.TargetAmount == nil {
		a.error(w, http.StatusBadRequest, "invalid_argument", "target_amount required")
		return
	}
	c, err := a.Ledger.RecordCampaign(r.Context(), actor, service.RecordCampaignInput{
		Name:         req.Name,
		Description:  req.Description,
		TargetAmount: *req.TargetAmount,
		Status:       domain.CampaignStatus(req.Status),
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"campaign": toCampaignDTO(c)})
}

func (a *App) CampaignsList(w http.ResponseWriter, r *http.Request) {
	if _, err := a.currentUser(r); err != nil {
		a.fail(w, err)
		return
	}
	campaigns, err := a.Ledger.ListCampaigns(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	items := make([]campaignDTO, 0, len(campaigns))
	for i := range campaigns {
		items = append(items, toCampaignDTO(&campaigns[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) CampaignsGet(w http.ResponseWriter, r *http.Request) {
	if _, err := a.currentUser(r); err != nil {
		a.fail(w, err)
		return
	}
	c, err := a.Ledger.GetCampaign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"campaign": toCampaignDTO(c)})
}

// CampaignsProgress serves the derived read backing progress bars. Raised
// comes from the authoritative cached aggregate, never a recomputed sum.
func (a *App) CampaignsProgress(w http.ResponseWriter, r *http.Request) {
	if _, err := a.currentUser(r); err != nil {
		a.fail(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	p, err := a.Ledger.CampaignProgress(r.Context(), id)
	if err != nil {
		a.fail(w, err)
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, map[string]any{
		"campaign_id":    id,
		"raised":         p.Raised,
		"target":         p.Target,
		"percent":        p.Percent,
		"raised_display": i18n.FormatAmount(locale, a.Currency, p.Raised),
		"target_display": i18n.FormatAmount(locale, a.Currency, p.Target),
	})
}
