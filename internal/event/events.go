package event

const (
	EventPaymentSettled = "payment.settled"
	EventPaymentFailed  = "payment.failed"
)

type PaymentSettled struct {
	UserID     string  `json:"userId"`
	Amount     float64 `json:"amount"`
	NewBalance float64 `json:"newBalance"`
	PaymentID  string  `json:"paymentId"`
}

type PaymentFailed struct {
	UserID    string `json:"userId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
}
