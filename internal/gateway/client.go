package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"deposit-bot/internal/cache"
	"deposit-bot/internal/monitoring"
)

const (
	prodBaseURL    = "https://api.nowpayments.io/v1"
	sandboxBaseURL = "https://api-sandbox.nowpayments.io/v1"

	currencyCacheTTL = 10 * time.Minute
)

var (
	ErrGateway            = errors.New("gateway error")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
)

type Config struct {
	APIKey     string
	Sandbox    bool
	BaseURL    string // overrides Sandbox when set; used by tests
	IPNSecret  string
	WebhookURL string
	Timeout    time.Duration
}

// Client talks to the external payment processor. Every call carries a
// timeout; a timed-out call surfaces ErrGatewayUnavailable to the
// caller, which must not retry inside the hot path.
type Client struct {
	cfg   Config
	base  string
	httpc *http.Client
	cache *cache.Cache
	log   *zap.Logger
}

func New(cfg Config, c *cache.Cache, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	base := cfg.BaseURL
	if base == "" {
		base = prodBaseURL
		if cfg.Sandbox {
			base = sandboxBaseURL
		}
	}

	return &Client{
		cfg:   cfg,
		base:  base,
		httpc: &http.Client{Timeout: cfg.Timeout},
		cache: c,
		log:   log,
	}
}

type createPaymentRequest struct {
	PriceAmount      float64 `json:"price_amount"`
	PriceCurrency    string  `json:"price_currency"`
	PayCurrency      string  `json:"pay_currency"`
	IPNCallbackURL   string  `json:"ipn_callback_url,omitempty"`
	OrderID          string  `json:"order_id"`
	OrderDescription string  `json:"order_description"`
}

// CreatePayment registers a USD top-up with the processor and returns
// the payment the user must fund.
func (c *Client) CreatePayment(ctx context.Context, usdAmount float64, payCurrency, userID, orderID string) (*Payment, error) {
	body := createPaymentRequest{
		PriceAmount:      usdAmount,
		PriceCurrency:    "usd",
		PayCurrency:      payCurrency,
		IPNCallbackURL:   c.cfg.WebhookURL,
		OrderID:          orderID,
		OrderDescription: fmt.Sprintf("Balance top-up for user %s", userID),
	}

	var p Payment
	if err := c.do(ctx, http.MethodPost, "/payment", nil, body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetStatus polls the processor for the current payment_status string.
func (c *Client) GetStatus(ctx context.Context, paymentID string) (string, error) {
	var p Payment
	if err := c.do(ctx, http.MethodGet, "/payment/"+paymentID, nil, nil, &p); err != nil {
		return "", err
	}
	return p.PaymentStatus, nil
}

// AvailableCurrencies lists the settlement currencies the processor
// accepts. Results are cached best-effort.
func (c *Client) AvailableCurrencies(ctx context.Context) ([]string, error) {
	if v, ok := c.cache.Get(ctx, "gw:currencies"); ok {
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err == nil {
			return out, nil
		}
	}

	var resp struct {
		Currencies []string `json:"currencies"`
	}
	if err := c.do(ctx, http.MethodGet, "/currencies", nil, nil, &resp); err != nil {
		return nil, err
	}

	if data, err := json.Marshal(resp.Currencies); err == nil {
		c.cache.Set(ctx, "gw:currencies", string(data), currencyCacheTTL)
	}
	return resp.Currencies, nil
}

// MinimumAmount reports the smallest accepted payment in the source
// currency.
func (c *Client) MinimumAmount(ctx context.Context, currencyFrom, currencyTo string) (float64, error) {
	if currencyTo == "" {
		currencyTo = "usd"
	}

	key := "gw:minamount:" + currencyFrom + ":" + currencyTo
	if v, ok := c.cache.Get(ctx, key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
	}

	q := url.Values{}
	q.Set("currency_from", currencyFrom)
	q.Set("currency_to", currencyTo)

	var resp struct {
		MinAmount float64 `json:"min_amount"`
	}
	if err := c.do(ctx, http.MethodGet, "/min-amount", q, nil, &resp); err != nil {
		return 0, err
	}

	c.cache.Set(ctx, key, strconv.FormatFloat(resp.MinAmount, 'f', -1, 64), currencyCacheTTL)
	return resp.MinAmount, nil
}

// EstimatedPrice converts amount between currencies at the processor's
// current rate.
func (c *Client) EstimatedPrice(ctx context.Context, amount float64, currencyFrom, currencyTo string) (float64, error) {
	if currencyTo == "" {
		currencyTo = "usd"
	}

	q := url.Values{}
	q.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))
	q.Set("currency_from", currencyFrom)
	q.Set("currency_to", currencyTo)

	var resp struct {
		EstimatedAmount FloatString `json:"estimated_amount"`
	}
	if err := c.do(ctx, http.MethodGet, "/estimate", q, nil, &resp); err != nil {
		return 0, err
	}
	return float64(resp.EstimatedAmount), nil
}

// OrderID builds a unique order reference for a user's deposit request.
func (c *Client) OrderID(userID string) string {
	return userID + "-" + uuid.New().String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrGateway, err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		monitoring.GatewayRequests.WithLabelValues(path, "unavailable").Inc()
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		monitoring.GatewayRequests.WithLabelValues(path, "unavailable").Inc()
		return fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode >= 400 {
		monitoring.GatewayRequests.WithLabelValues(path, "error").Inc()
		c.log.Warn("gateway: API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return fmt.Errorf("%w: status %d", ErrGateway, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			monitoring.GatewayRequests.WithLabelValues(path, "error").Inc()
			return fmt.Errorf("%w: decode response: %v", ErrGateway, err)
		}
	}

	monitoring.GatewayRequests.WithLabelValues(path, "ok").Inc()
	return nil
}
