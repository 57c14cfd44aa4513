package deposit

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"deposit-bot/internal/gateway"
	"deposit-bot/internal/ledger"
	"deposit-bot/internal/monitoring"
)

type Verifier interface {
	VerifySignature(rawBody []byte, signature string) bool
}

type CurrencySource interface {
	AvailableCurrencies(ctx context.Context) ([]string, error)
	MinimumAmount(ctx context.Context, currencyFrom, currencyTo string) (float64, error)
	EstimatedPrice(ctx context.Context, amount float64, currencyFrom, currencyTo string) (float64, error)
}

// RegisterWebhook mounts the gateway's IPN callback. The signature is
// checked against the exact raw body before anything else; an unsigned
// or tampered payload never reaches reconciliation.
func RegisterWebhook(r fiber.Router, svc *Service, v Verifier) {

	r.Post("/ipn", func(c *fiber.Ctx) error {
		raw := c.Body()

		if !v.VerifySignature(raw, c.Get("x-nowpayments-sig")) {
			monitoring.WebhookEvents.WithLabelValues("rejected").Inc()
			return c.Status(401).JSON(fiber.Map{"error": "invalid signature"})
		}

		var ipn gateway.IPN
		if err := json.Unmarshal(raw, &ipn); err != nil || ipn.PaymentID == "" {
			monitoring.WebhookEvents.WithLabelValues("malformed").Inc()
			return c.Status(400).JSON(fiber.Map{"error": "malformed payload"})
		}

		outcome, err := svc.Reconcile(c.UserContext(), string(ipn.PaymentID), ipn.PaymentStatus, float64(ipn.PriceAmount))
		if err != nil {
			monitoring.WebhookEvents.WithLabelValues("error").Inc()
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		// Unknown ids and non-terminal statuses still answer 200 so an
		// at-least-once gateway stops redelivering.
		monitoring.WebhookEvents.WithLabelValues("accepted").Inc()
		return c.JSON(fiber.Map{"result": outcome.String()})
	})
}

// RegisterAPI mounts the operator surface the chat front-end calls into.
func RegisterAPI(r fiber.Router, svc *Service, store *ledger.Store, currencies CurrencySource) {

	r.Post("/deposit", func(c *fiber.Ctx) error {
		type Req struct {
			UserID      string  `json:"user_id"`
			Amount      float64 `json:"amount"`
			PayCurrency string  `json:"pay_currency"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.SendStatus(400)
		}
		if body.UserID == "" || body.PayCurrency == "" {
			return c.Status(400).JSON(fiber.Map{"error": "user_id and pay_currency are required"})
		}

		p, err := svc.CreateDeposit(c.UserContext(), body.UserID, body.Amount, body.PayCurrency)
		if err != nil {
			status := 400
			if errors.Is(err, gateway.ErrGateway) || errors.Is(err, gateway.ErrGatewayUnavailable) {
				status = 502
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(p)
	})

	r.Get("/balance/:uid", func(c *fiber.Ctx) error {
		uid := c.Params("uid")
		store.GetOrCreateUser(uid)
		bal, _ := store.Balance(uid)
		return c.JSON(fiber.Map{"balance": bal})
	})

	r.Get("/history/:uid", func(c *fiber.Ctx) error {
		entries := store.History(c.Params("uid"))
		if entries == nil {
			entries = []ledger.LedgerEntry{}
		}
		return c.JSON(entries)
	})

	r.Get("/currencies", func(c *fiber.Ctx) error {
		list, err := currencies.AvailableCurrencies(c.UserContext())
		if err != nil {
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"currencies": list})
	})

	r.Get("/min-amount", func(c *fiber.Ctx) error {
		from := c.Query("currency_from")
		if from == "" {
			return c.Status(400).JSON(fiber.Map{"error": "currency_from is required"})
		}
		min, err := currencies.MinimumAmount(c.UserContext(), from, c.Query("currency_to", "usd"))
		if err != nil {
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"currency_from": from, "min_amount": min})
	})

	r.Get("/estimate", func(c *fiber.Ctx) error {
		amount, err := strconv.ParseFloat(c.Query("amount"), 64)
		if err != nil || amount <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "amount must be a positive number"})
		}
		to := c.Query("currency_to")
		if to == "" {
			return c.Status(400).JSON(fiber.Map{"error": "currency_to is required"})
		}
		est, err := currencies.EstimatedPrice(c.UserContext(), amount, c.Query("currency_from", "usd"), to)
		if err != nil {
			return c.Status(502).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"estimated_amount": est, "currency_to": to})
	})
}
