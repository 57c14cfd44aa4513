package ledger

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrDuplicatePaymentID = errors.New("payment id already tracked")
)
