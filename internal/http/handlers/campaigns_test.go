package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/service"
)

func seedCampaignWithDonation(t *testing.T, app *App, target, donated int64) *domain.Campaign {
	t.Helper()
	ctx := context.Background()
	admin, err := app.Users.GetByID(ctx, testAdminID)
	if err != nil {
		t.Fatalf("load admin: %v", err)
	}
	c, err := app.Ledger.RecordCampaign(ctx, admin, service.RecordCampaignInput{
		Name:         "Drone Fund",
		Description:  "recon drones",
		TargetAmount: decimal.NewFromInt(target),
	})
	if err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	if donated > 0 {
		if _, err := app.Ledger.RecordDonation(ctx, admin, service.RecordDonationInput{
			CampaignID: c.ID,
			UserID:     testUserID,
			Amount:     decimal.NewFromInt(donated),
		}); err != nil {
			t.Fatalf("seed donation: %v", err)
		}
	}
	return c
}

func TestCampaignsCreate(t *testing.T) {
	app, _ := newTestApp(t, nil)

	body := strings.NewReader(`{"name":"Medkits","description":"field medkits","target_amount":1000}`)
	rec := httptest.NewRecorder()
	app.CampaignsCreate(rec, authedRequest(http.MethodPost, "/v1/campaigns", testAdminID, body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Campaign campaignDTO `json:"campaign"`
	}
	decodeBody(t, rec, &resp)
	if resp.Campaign.ID == "" {
		t.Fatal("campaign id missing")
	}
	if resp.Campaign.Status != string(domain.CampaignStatusActive) {
		t.Fatalf("status = %q, want active", resp.Campaign.Status)
	}
	if !resp.Campaign.CurrentAmount.IsZero() {
		t.Fatalf("current_amount = %s, want 0", resp.Campaign.CurrentAmount)
	}
}

func TestCampaignsCreateMissingTarget(t *testing.T) {
	app, _ := newTestApp(t, nil)

	rec := httptest.NewRecorder()
	app.CampaignsCreate(rec, authedRequest(http.MethodPost, "/v1/campaigns", testAdminID, strings.NewReader(`{"name":"Medkits","description":"x"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if kind := errorKind(t, rec); kind != "invalid_argument" {
		t.Fatalf("error kind = %q, want invalid_argument", kind)
	}
}

func TestCampaignsCreateRequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t, nil)

	body := strings.NewReader(`{"name":"Medkits","description":"x","target_amount":10}`)
	rec := httptest.NewRecorder()
	app.CampaignsCreate(rec, authedRequest(http.MethodPost, "/v1/campaigns", testUserID, body))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCampaignsGetNotFound(t *testing.T) {
	app, _ := newTestApp(t, nil)

	req := withURLParam(authedRequest(http.MethodGet, "/v1/campaigns/nope", testUserID, nil), "id", "nope")
	rec := httptest.NewRecorder()
	app.CampaignsGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCampaignsProgress(t *testing.T) {
	app, _ := newTestApp(t, nil)
	c := seedCampaignWithDonation(t, app, 1000, 370)

	req := withURLParam(authedRequest(http.MethodGet, "/v1/campaigns/"+c.ID+"/progress", testUserID, nil), "id", c.ID)
	rec := httptest.NewRecorder()
	app.CampaignsProgress(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		CampaignID    string          `json:"campaign_id"`
		Raised        decimal.Decimal `json:"raised"`
		Target        decimal.Decimal `json:"target"`
		Percent       int64           `json:"percent"`
		RaisedDisplay string          `json:"raised_display"`
	}
	decodeBody(t, rec, &resp)
	if resp.CampaignID != c.ID {
		t.Fatalf("campaign_id = %q, want %q", resp.CampaignID, c.ID)
	}
	if !resp.Raised.Equal(decimal.NewFromInt(370)) {
		t.Fatalf("raised = %s, want 370", resp.Raised)
	}
	if resp.Percent != 37 {
		t.Fatalf("percent = %d, want 37", resp.Percent)
	}
	if !strings.Contains(resp.RaisedDisplay, "370") {
		t.Fatalf("raised_display = %q, want formatted amount", resp.RaisedDisplay)
	}
}

func TestCampaignsList(t *testing.T) {
	app, _ := newTestApp(t, nil)
	seedCampaignWithDonation(t, app, 500, 0)
	seedCampaignWithDonation(t, app, 800, 0)

	rec := httptest.NewRecorder()
	app.CampaignsList(rec, authedRequest(http.MethodGet, "/v1/campaigns", testUserID, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Items []campaignDTO `json:"items"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
}
