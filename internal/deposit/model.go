package deposit

import (
	"context"

	"deposit-bot/internal/gateway"
)

// Gateway is the slice of the payment processor client the deposit
// service needs.
type Gateway interface {
	CreatePayment(ctx context.Context, usdAmount float64, payCurrency, userID, orderID string) (*gateway.Payment, error)
	GetStatus(ctx context.Context, paymentID string) (string, error)
	OrderID(userID string) string
}

type Audit interface {
	Log(userID, action, metadata string)
}

// Outcome is the caller-visible result of one reconcile call.
type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeSettled
	OutcomeClosed
	OutcomePending
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeClosed:
		return "closed"
	case OutcomePending:
		return "pending"
	default:
		return "not_found"
	}
}
