package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/events"
)

// Drift describes a campaign whose cached running total disagreed with the
// sum of its counted donations.
type Drift struct {
	CampaignID string
	Cached     decimal.Decimal
	Computed   decimal.Decimal
	Repaired   bool
}

// Reconciler audits the ledger invariant and repairs drift. It is the safety
// net behind the transactional write path: if a total ever diverges, the
// divergence is detected, repaired and alerted instead of silently carried.
type Reconciler struct {
	campaigns domain.CampaignRepository
	donations domain.DonationRepository
	publisher events.Publisher
	logger    zerolog.Logger
}

// New creates a reconciler. A nil publisher disables event emission.
func New(campaigns domain.CampaignRepository, donations domain.DonationRepository, publisher events.Publisher, logger zerolog.Logger) *Reconciler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Reconciler{
		campaigns: campaigns,
		donations: donations,
		publisher: publisher,
		logger:    logger,
	}
}

// Run audits on the given interval until the context is canceled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.ReconcileOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("reconcile pass failed")
			}
		}
	}
}

// ReconcileOnce recomputes each campaign's counted donation sum and repairs
// any mismatch with a compare-and-swap update, so a donation landing between
// the read and the repair is never clobbered.
func (r *Reconciler) ReconcileOnce(ctx context.Context) ([]Drift, error) {
	campaigns, err := r.campaigns.List(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, c := range campaigns {
		sum, err := r.donations.SumByCampaign(ctx, c.ID)
		if err != nil {
			r.logger.Error().Err(err).Str("campaign_id", c.ID).Msg("sum recompute failed")
			continue
		}
		if sum.Equal(c.CurrentAmount) {
			continue
		}

		repaired, err := r.campaigns.ResetTotal(ctx, c.ID, c.CurrentAmount, sum)
		if err != nil {
			r.logger.Error().Err(err).Str("campaign_id", c.ID).Msg("drift repair failed")
		}
		drift := Drift{CampaignID: c.ID, Cached: c.CurrentAmount, Computed: sum, Repaired: repaired}
		drifts = append(drifts, drift)

		// Error level on purpose: drift means the ledger invariant was
		// violated and must reach an operator, not just a log file grep.
		r.logger.Error().
			Str("campaign_id", c.ID).
			Str("cached", c.CurrentAmount.String()).
			Str("computed", sum.String()).
			Bool("repaired", repaired).
			Msg("ledger consistency fault: campaign total drifted")

		if err := r.publisher.Publish(ctx, events.LedgerDrift{
			CampaignID: c.ID,
			Cached:     c.CurrentAmount,
			Computed:   sum,
			Repaired:   repaired,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			r.logger.Warn().Err(err).Str("campaign_id", c.ID).Msg("drift event publish failed")
		}
	}
	return drifts, nil
}
