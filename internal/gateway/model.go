package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexID absorbs the gateway's habit of returning payment ids as JSON
// numbers in API responses but as strings in some IPN payloads.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 1 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// FloatString parses amounts delivered either as numbers or as quoted
// decimal strings.
type FloatString float64

func (f *FloatString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 1 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = FloatString(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FloatString(v)
	return nil
}

// Payment is the gateway's view of one payment request.
type Payment struct {
	PaymentID     FlexID  `json:"payment_id"`
	PaymentStatus string  `json:"payment_status"`
	PayAddress    string  `json:"pay_address"`
	PriceAmount   float64 `json:"price_amount"`
	PriceCurrency string  `json:"price_currency"`
	PayAmount     float64 `json:"pay_amount"`
	PayCurrency   string  `json:"pay_currency"`
	OrderID       string  `json:"order_id"`
	CreatedAt     string  `json:"created_at"`
}

// IPN is the webhook callback body. Only payment_id, payment_status and
// price_amount are consumed by reconciliation.
type IPN struct {
	PaymentID     FlexID      `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	PriceAmount   FloatString `json:"price_amount"`
	OrderID       string      `json:"order_id"`
}

// Terminal payment_status values. Everything else is non-terminal and
// leaves the payment pending.
const (
	StatusFinished = "finished"
	StatusFailed   = "failed"
	StatusExpired  = "expired"
)
