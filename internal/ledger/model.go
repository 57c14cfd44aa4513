package ledger

import "time"

const EntryTypeCryptoDeposit = "crypto_deposit"

// PendingPayment is a payment request created with the gateway and not
// yet resolved by a webhook or status poll.
type PendingPayment struct {
	PaymentID   string    `json:"paymentId"`
	UserID      string    `json:"userId"`
	PriceAmount float64   `json:"priceAmount"`
	PayCurrency string    `json:"payCurrency"`
	PayAmount   float64   `json:"payAmount,omitempty"`
	PayAddress  string    `json:"payAddress,omitempty"`
	OrderID     string    `json:"orderId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LedgerEntry is an append-only history record. History is audit data;
// the balance is maintained incrementally, never derived by replay.
type LedgerEntry struct {
	Amount    float64   `json:"amount"`
	PaymentID string    `json:"paymentId"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

type UserRecord struct {
	Balance         float64                    `json:"balance"`
	PendingPayments map[string]*PendingPayment `json:"pendingPayments"`
	PaymentHistory  []LedgerEntry              `json:"paymentHistory"`
}
