package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/studentseats/ticket-marketplace/internal/config"
	"github.com/studentseats/ticket-marketplace/internal/model"
	"github.com/studentseats/ticket-marketplace/internal/repository"
)

// PaymentsProvider is the slice of the payment processor the webhook handler
// needs: signature verification plus capture/cancel of an authorization hold.
// internal/payment implements it against Stripe.
type PaymentsProvider interface {
	VerifySignature(payload []byte, sigHeader string) error
	Capture(ctx context.Context, paymentIntentID string) error
	Cancel(ctx context.Context, paymentIntentID string) error
}

// WebhookHandler processes payment authorization webhooks. A webhook arriving
// means the buyer's funds are on hold; the gatekeeper check decides whether
// the hold becomes a charge (reservation still valid -> ticket Paid, capture)
// or a release (reservation lapsed -> cancel the hold, leave the ticket for
// the cleanup sweeper).
type WebhookHandler struct {
	Cfg      config.Config
	Tickets  TicketStore
	Payments PaymentStore
	Provider PaymentsProvider
}

func NewWebhookHandler(cfg config.Config, tickets TicketStore, payments PaymentStore, provider PaymentsProvider) *WebhookHandler {
	return &WebhookHandler{Cfg: cfg, Tickets: tickets, Payments: payments, Provider: provider}
}

// Wire shapes of the subset of the Stripe event we consume.
type stripeEvent struct {
	Type string `json:"type"`
	Data struct {
		Object stripePaymentIntent `json:"object"`
	} `json:"data"`
}

type stripePaymentIntent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Metadata struct {
		TicketID string `json:"ticket_id"`
		BuyerID  string `json:"buyer_id"`
	} `json:"metadata"`
}

const capturableEvent = "payment_intent.amount_capturable_updated"

// HandleStripe verifies, records and acts on a Stripe webhook delivery.
// Deliveries are acknowledged with 200 even when the reservation has lapsed;
// Stripe retries on anything else and there is nothing to retry.
func (h *WebhookHandler) HandleStripe(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	sig := c.Request().Header.Get("Stripe-Signature")
	if sig == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing signature"})
	}
	if err := h.Provider.VerifySignature(body, sig); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}

	var ev stripeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	if ev.Type != capturableEvent {
		// Not an event we act on; acknowledge so Stripe stops redelivering.
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	pi := ev.Data.Object
	if pi.Metadata.TicketID == "" || pi.Metadata.BuyerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing ticket metadata"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err = h.Payments.Record(ctx, model.PaymentIntent{
		ID:          pi.ID,
		TicketID:    pi.Metadata.TicketID,
		BuyerID:     pi.Metadata.BuyerID,
		AmountCents: pi.Amount,
		Currency:    pi.Currency,
		Status:      model.PaymentCapturable,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Redelivery of a webhook already processed.
		return c.JSON(http.StatusOK, echo.Map{"received": true, "duplicate": true})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}

	h.gatekeeperCheck(ctx, pi)

	return c.JSON(http.StatusOK, echo.Map{"received": true, "payment_intent_id": pi.ID})
}

// gatekeeperCheck resolves an authorization hold against the reservation
// state. Processor call failures are logged, not returned: the webhook is
// acknowledged either way and the mismatch needs manual follow-up.
func (h *WebhookHandler) gatekeeperCheck(ctx context.Context, pi stripePaymentIntent) {
	fields := log.Fields{
		"payment_intent": pi.ID,
		"ticket_id":      pi.Metadata.TicketID,
		"buyer_id":       pi.Metadata.BuyerID,
	}

	// The processor call comes before the local status update in both
	// branches: an intent stays 'capturable' until Stripe has actually
	// captured or released the hold, so a failed call never leaves the
	// stored status claiming something the processor did not do.
	_, err := h.Tickets.MarkPaid(ctx, pi.Metadata.TicketID, pi.Metadata.BuyerID, h.Cfg.ReservationWindow)
	switch {
	case err == nil:
		if err := h.Provider.Capture(ctx, pi.ID); err != nil {
			log.WithFields(fields).WithError(err).Error("capture failed, ticket already paid")
			return
		}
		if err := h.Payments.SetStatus(ctx, pi.ID, model.PaymentCaptured); err != nil {
			log.WithFields(fields).WithError(err).Error("update payment intent failed")
		}
		log.WithFields(fields).Info("payment captured, ticket paid")

	case errors.Is(err, repository.ErrInvalidTransition):
		// Reservation lapsed or belongs to someone else: release the hold.
		if err := h.Provider.Cancel(ctx, pi.ID); err != nil {
			log.WithFields(fields).WithError(err).Error("cancel authorization failed")
			return
		}
		if err := h.Payments.SetStatus(ctx, pi.ID, model.PaymentCancelled); err != nil {
			log.WithFields(fields).WithError(err).Error("update payment intent failed")
		}
		log.WithFields(fields).Warn("reservation expired, authorization released")

	default:
		log.WithFields(fields).WithError(err).Error("gatekeeper check failed")
	}
}
