package model

import "time"

// PaymentIntentStatus tracks what the marketplace believes Stripe has done
// with an authorization hold.
type PaymentIntentStatus string

const (
	PaymentCapturable PaymentIntentStatus = "capturable" // funds authorized, awaiting gatekeeper check
	PaymentCaptured   PaymentIntentStatus = "captured"   // buyer charged
	PaymentCancelled  PaymentIntentStatus = "cancelled"  // hold released (reservation expired)
)

// PaymentIntent mirrors the `payment_intents` table. The primary key is the
// Stripe payment intent ID ("pi_..."), which also gives webhook processing
// its idempotency: a duplicate delivery inserts nothing and is acknowledged
// without re-running the gatekeeper check.
type PaymentIntent struct {
	ID          string // Stripe payment intent ID
	TicketID    string
	BuyerID     string
	AmountCents int64
	Currency    string // ISO code, e.g. "usd"
	Status      PaymentIntentStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
