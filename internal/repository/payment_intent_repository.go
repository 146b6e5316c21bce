package repository

import (
	"context"
	"database/sql"

	"github.com/studentseats/ticket-marketplace/internal/model"
)

type PaymentIntentRepo struct{ DB *sql.DB }

func NewPaymentIntentRepo(db *sql.DB) *PaymentIntentRepo { return &PaymentIntentRepo{DB: db} }

// Record inserts a payment intent keyed by the Stripe ID. Webhooks can be
// delivered more than once; INSERT IGNORE plus the RowsAffected check makes
// the first delivery the only one that proceeds to the gatekeeper check, and
// duplicates surface as ErrDuplicate.
func (r *PaymentIntentRepo) Record(ctx context.Context, pi model.PaymentIntent) error {
	res, err := r.DB.ExecContext(ctx, `
INSERT IGNORE INTO payment_intents (id, ticket_id, buyer_id, amount, currency, status)
VALUES (?,?,?,?,?,?)`,
		pi.ID, pi.TicketID, pi.BuyerID, pi.AmountCents, pi.Currency, string(pi.Status))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

// SetStatus records the outcome of the gatekeeper check (captured or
// cancelled).
func (r *PaymentIntentRepo) SetStatus(ctx context.Context, id string, status model.PaymentIntentStatus) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE payment_intents SET status=? WHERE id=?", string(status), id)
	return err
}
