package quoter

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
)

// record publishes and stores a served quote. Failures are logged and never
// affect the caller; a cancelled request still gets recorded.
func (s *Service) record(ctx context.Context, res *QuoteResult) {
	if s.feed == nil && s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	defer cancel()

	ev := quoteEvent(res, s.clock())
	log := s.logger.WithFields(logrus.Fields{"pool": res.Pool, "quote_id": res.ID})

	if s.feed != nil {
		if err := s.feed.AddRecentQuote(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to add recent quote")
		}
		if err := s.feed.PublishQuote(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to publish quote")
		}
	}
	if s.store != nil {
		if err := s.store.InsertQuote(ctx, ev); err != nil {
			log.WithError(err).Warn("failed to store quote")
		}
	}

	if res.Divergence != nil {
		s.writeDivergence(ctx, divergenceRecord(res.Divergence, ev.Timestamp))
	}
}

// recordDivergence stores and publishes a divergence that was rejected
// before a quote could be served.
func (s *Service) recordDivergence(ctx context.Context, d *DivergenceError) {
	if s.feed == nil && s.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	defer cancel()

	s.writeDivergence(ctx, divergenceRecord(d, s.clock()))
}

func (s *Service) writeDivergence(ctx context.Context, d *models.Divergence) {
	log := s.logger.WithFields(logrus.Fields{"pool": d.Pool, "diff_bps": d.DiffBps})
	if s.feed != nil {
		if err := s.feed.PublishDivergence(ctx, d); err != nil {
			log.WithError(err).Warn("failed to publish divergence")
		}
	}
	if s.store != nil {
		if err := s.store.InsertDivergence(ctx, d); err != nil {
			log.WithError(err).Warn("failed to store divergence")
		}
	}
}

func quoteEvent(res *QuoteResult, now time.Time) *models.QuoteEvent {
	return &models.QuoteEvent{
		ID:              res.ID,
		Timestamp:       now.UTC(),
		Pool:            res.Pool,
		Direction:       res.Direction,
		InputAmount:     res.InputAmount.String(),
		OutputAmount:    res.Quote.OutputAmount.String(),
		MinOutputAmount: res.MinOutputAmount.String(),
		FeeAmount:       res.Quote.FeeAmount.String(),
		EffectiveFeeBps: res.Quote.EffectiveFeeBps,
		PriceImpactBps:  res.PriceImpactBps,
		PrizePoolShare:  res.Split.PrizePoolShare.String(),
		TreasuryShare:   res.Split.TreasuryShare.String(),
		SpotPrice:       res.SpotPrice.String(),
		Slot:            res.Slot,
		Source:          res.Source,
	}
}

func divergenceRecord(d *DivergenceError, at time.Time) *models.Divergence {
	return &models.Divergence{
		Timestamp:           at.UTC(),
		Pool:                d.Pool,
		Direction:           d.Direction,
		InputAmount:         d.InputAmount.String(),
		LocalOutput:         d.Local.OutputAmount.String(),
		AuthoritativeOutput: d.Authoritative.OutputAmount.String(),
		LocalFeeBps:         d.Local.EffectiveFeeBps,
		AuthoritativeFeeBps: d.Authoritative.EffectiveFeeBps,
		DiffBps:             d.DiffBps,
	}
}
