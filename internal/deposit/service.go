package deposit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"deposit-bot/internal/event"
	"deposit-bot/internal/gateway"
	"deposit-bot/internal/ledger"
	"deposit-bot/internal/monitoring"
)

// Service owns the settlement state machine for crypto deposits. Webhook
// deliveries and status polls both funnel into Reconcile, so duplicated
// or reordered notifications resolve the same way regardless of source.
type Service struct {
	mu    sync.Mutex
	store *ledger.Store
	gw    Gateway
	bus   *event.Bus
	audit Audit
	log   *zap.Logger
}

func NewService(store *ledger.Store, gw Gateway, bus *event.Bus, audit Audit, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: store,
		gw:    gw,
		bus:   bus,
		audit: audit,
		log:   log,
	}
}

// CreateDeposit asks the gateway for a new payment and tracks it as
// pending until a webhook or poll resolves it.
func (s *Service) CreateDeposit(ctx context.Context, userID string, usdAmount float64, payCurrency string) (*ledger.PendingPayment, error) {
	if usdAmount <= 0 {
		return nil, ledger.ErrInvalidAmount
	}

	s.store.GetOrCreateUser(userID)

	orderID := s.gw.OrderID(userID)
	pay, err := s.gw.CreatePayment(ctx, usdAmount, payCurrency, userID, orderID)
	if err != nil {
		return nil, err
	}
	if pay.PaymentID == "" {
		return nil, fmt.Errorf("%w: empty payment id", gateway.ErrGateway)
	}

	p := ledger.PendingPayment{
		PaymentID:   string(pay.PaymentID),
		UserID:      userID,
		PriceAmount: usdAmount,
		PayCurrency: payCurrency,
		PayAmount:   pay.PayAmount,
		PayAddress:  pay.PayAddress,
		OrderID:     orderID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.AddPending(userID, p); err != nil {
		s.log.Error("deposit: gateway returned tracked payment id",
			zap.String("payment_id", p.PaymentID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.audit.Log(userID, "deposit_rejected", "duplicate payment id "+p.PaymentID)
		return nil, err
	}

	s.audit.Log(userID, "deposit_created", fmt.Sprintf("payment %s for %.2f USD via %s", p.PaymentID, usdAmount, payCurrency))
	return &p, nil
}

// Reconcile applies one reported status to one pending payment, exactly
// once. reportedUSD is the settled amount from the notification when the
// source carries one, 0 otherwise; a mismatch against the requested
// amount is logged but the requested amount is what gets credited.
//
// The mutex makes peek, remove and credit one critical section: two
// deliveries for the same payment cannot both observe it pending.
func (s *Service) Reconcile(ctx context.Context, paymentID, status string, reportedUSD float64) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, p, ok := s.store.PeekPending(paymentID)
	if !ok {
		// Already reconciled or never tracked; replayed webhooks land here.
		s.log.Info("deposit: reconcile for unknown payment", zap.String("payment_id", paymentID))
		return OutcomeNotFound, nil
	}

	switch status {
	case gateway.StatusFinished:
		s.store.RemovePending(paymentID)

		if reportedUSD > 0 && reportedUSD != p.PriceAmount {
			s.log.Warn("deposit: settled amount differs from requested",
				zap.String("payment_id", paymentID),
				zap.Float64("requested", p.PriceAmount),
				zap.Float64("reported", reportedUSD),
			)
		}

		newBalance, err := s.store.CreditBalance(userID, p.PriceAmount, paymentID)
		if err != nil {
			// Credit refused; put the entry back so a later pass can retry.
			if addErr := s.store.AddPending(userID, p); addErr != nil {
				s.log.Error("deposit: failed to restore pending entry",
					zap.String("payment_id", paymentID),
					zap.Error(addErr),
				)
			}
			return OutcomePending, err
		}

		monitoring.BalanceCredits.Inc()
		s.audit.Log(userID, "deposit_settled", fmt.Sprintf("payment %s credited %.2f USD", paymentID, p.PriceAmount))
		s.bus.Publish(event.EventPaymentSettled, event.PaymentSettled{
			UserID:     userID,
			Amount:     p.PriceAmount,
			NewBalance: newBalance,
			PaymentID:  paymentID,
		})
		return OutcomeSettled, nil

	case gateway.StatusFailed, gateway.StatusExpired:
		s.store.RemovePending(paymentID)

		s.audit.Log(userID, "deposit_failed", fmt.Sprintf("payment %s closed as %s", paymentID, status))
		s.bus.Publish(event.EventPaymentFailed, event.PaymentFailed{
			UserID:    userID,
			PaymentID: paymentID,
			Status:    status,
		})
		return OutcomeClosed, nil

	default:
		// Non-terminal status; the entry stays pending.
		return OutcomePending, nil
	}
}
