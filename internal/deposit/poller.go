package deposit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"deposit-bot/internal/ledger"
)

// Poller is the fallback for payments whose webhook never arrives: it
// periodically asks the gateway for the status of every pending entry
// and feeds the answer into the same idempotent reconcile path.
type Poller struct {
	store    *ledger.Store
	svc      *Service
	gw       Gateway
	interval time.Duration
	log      *zap.Logger
}

func NewPoller(store *ledger.Store, svc *Service, gw Gateway, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		store:    store,
		svc:      svc,
		gw:       gw,
		interval: interval,
		log:      log,
	}
}

func (p *Poller) Start(ctx context.Context) {
	t := time.NewTicker(p.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep polls every pending payment once. Gateway failures skip the
// entry; the next sweep retries it.
func (p *Poller) Sweep(ctx context.Context) {
	for _, pend := range p.store.ListPending() {
		status, err := p.gw.GetStatus(ctx, pend.PaymentID)
		if err != nil {
			p.log.Debug("poller: status lookup failed",
				zap.String("payment_id", pend.PaymentID),
				zap.Error(err),
			)
			continue
		}

		if _, err := p.svc.Reconcile(ctx, pend.PaymentID, status, 0); err != nil {
			p.log.Warn("poller: reconcile failed",
				zap.String("payment_id", pend.PaymentID),
				zap.Error(err),
			)
		}
	}
}
