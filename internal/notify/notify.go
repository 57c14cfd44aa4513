package notify

import (
	"go.uber.org/zap"

	"deposit-bot/internal/event"
)

type Broadcaster interface {
	BroadcastJSON(v interface{})
}

// Register wires the best-effort user notification consumers. Delivery
// failure is swallowed; the balance mutation already happened and is the
// source of truth.
func Register(bus *event.Bus, hub Broadcaster, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}

	bus.Subscribe(event.EventPaymentSettled, func(payload interface{}) {
		ev, ok := payload.(event.PaymentSettled)
		if !ok {
			return
		}

		log.Info("payment settled",
			zap.String("user_id", ev.UserID),
			zap.String("payment_id", ev.PaymentID),
			zap.Float64("amount", ev.Amount),
			zap.Float64("new_balance", ev.NewBalance),
		)

		if hub != nil {
			hub.BroadcastJSON(map[string]interface{}{
				"event":   event.EventPaymentSettled,
				"payload": ev,
			})
		}
	})

	bus.Subscribe(event.EventPaymentFailed, func(payload interface{}) {
		ev, ok := payload.(event.PaymentFailed)
		if !ok {
			return
		}

		log.Info("payment failed",
			zap.String("user_id", ev.UserID),
			zap.String("payment_id", ev.PaymentID),
			zap.String("status", ev.Status),
		)

		if hub != nil {
			hub.BroadcastJSON(map[string]interface{}{
				"event":   event.EventPaymentFailed,
				"payload": ev,
			})
		}
	})
}
