// Package payment wraps the Stripe API behind the narrow surface the webhook
// handler needs.
package payment

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/paymentintent"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeProvider verifies webhook signatures and captures or cancels
// authorization holds. The zero value is unusable; construct with New.
type StripeProvider struct {
	webhookSecret string
}

// New configures the global Stripe client key and returns a provider. An
// empty secretKey leaves capture/cancel calls failing loudly, which is the
// right behavior for a misconfigured deployment.
func New(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

// VerifySignature checks the Stripe-Signature header against the raw payload.
func (p *StripeProvider) VerifySignature(payload []byte, sigHeader string) error {
	if _, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret); err != nil {
		return fmt.Errorf("verify webhook signature: %w", err)
	}
	return nil
}

// Capture charges the buyer for a previously authorized payment intent.
func (p *StripeProvider) Capture(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	if _, err := paymentintent.Capture(paymentIntentID, params); err != nil {
		return fmt.Errorf("capture payment intent %s: %w", paymentIntentID, err)
	}
	return nil
}

// Cancel releases the authorization hold on a payment intent.
func (p *StripeProvider) Cancel(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(paymentIntentID, params); err != nil {
		return fmt.Errorf("cancel payment intent %s: %w", paymentIntentID, err)
	}
	return nil
}
