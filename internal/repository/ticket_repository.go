package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studentseats/ticket-marketplace/internal/model"
)

// TicketRepo provides data access to the tickets table. Every lifecycle
// transition is a single compare-and-swap UPDATE whose WHERE clause names the
// required current status; a zero-row result means the precondition did not
// hold and surfaces as ErrInvalidTransition with the row untouched. That one
// statement is also the mutual-exclusion guarantee for reservations: two
// concurrent buyers race on the same `status='verified'` predicate and MySQL
// lets exactly one of them through.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

const ticketColumns = `id,seller_id,game_id,event_name,event_date,level,seat_section,seat_row,
seat_number,price,status,transfer_deadline,price_at_reservation,reserved_at,reserved_by,
created_at,updated_at`

// Create inserts a new Unverified listing and returns it. The event name and
// date are denormalized from the game; the transfer deadline is the earlier
// of created_at+window and the game's trading cutoff.
func (r *TicketRepo) Create(ctx context.Context, sellerID string, game model.Game, level, section, row, number string, priceCents int64, transferWindow time.Duration) (model.Ticket, error) {
	now := time.Now().UTC()
	deadline := now.Add(transferWindow)
	if deadline.After(game.CutoffTime) {
		deadline = game.CutoffTime
	}
	t := model.Ticket{
		ID:               uuid.NewString(),
		SellerID:         sellerID,
		GameID:           game.ID,
		EventName:        game.Name,
		EventDate:        game.GameTime,
		Level:            level,
		SeatSection:      section,
		SeatRow:          row,
		SeatNumber:       number,
		PriceCents:       priceCents,
		Status:           model.StatusUnverified,
		TransferDeadline: deadline,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	_, err := r.DB.ExecContext(ctx, `
INSERT INTO tickets (id, seller_id, game_id, event_name, event_date,
  level, seat_section, seat_row, seat_number, price, status, transfer_deadline)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.SellerID, t.GameID, t.EventName, t.EventDate,
		t.Level, t.SeatSection, t.SeatRow, t.SeatNumber, t.PriceCents,
		t.Status, t.TransferDeadline)
	if err != nil {
		return model.Ticket{}, err
	}
	return t, nil
}

// GetByID fetches a single ticket.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (model.Ticket, error) {
	return scanTicket(r.DB.QueryRowContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE id=? LIMIT 1", id))
}

const ticketColumnsQualified = `t.id,t.seller_id,t.game_id,t.event_name,t.event_date,t.level,
t.seat_section,t.seat_row,t.seat_number,t.price,t.status,t.transfer_deadline,
t.price_at_reservation,t.reserved_at,t.reserved_by,t.created_at,t.updated_at`

// ListBuyable returns Verified tickets for games still open for trading.
// These are the listings a buyer may reserve.
func (r *TicketRepo) ListBuyable(ctx context.Context) ([]model.Ticket, error) {
	return r.list(ctx, `
SELECT `+ticketColumnsQualified+` FROM tickets t
JOIN games g ON g.id = t.game_id
WHERE t.status = 'verified' AND g.cutoff_time > UTC_TIMESTAMP()
ORDER BY t.event_date ASC, t.price ASC`)
}

// ListBySeller returns a seller's listings, newest first, optionally filtered
// to one status.
func (r *TicketRepo) ListBySeller(ctx context.Context, sellerID string, status *model.Status) ([]model.Ticket, error) {
	if status != nil {
		return r.list(ctx,
			"SELECT "+ticketColumns+" FROM tickets WHERE seller_id=? AND status=? ORDER BY created_at DESC",
			sellerID, *status)
	}
	return r.list(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE seller_id=? ORDER BY created_at DESC",
		sellerID)
}

// Claim moves a seller's own ticket Unverified -> Verifying when the seller
// starts the custodial transfer.
func (r *TicketRepo) Claim(ctx context.Context, ticketID, sellerID string) error {
	return r.cas(ctx, `
UPDATE tickets SET status='verifying'
WHERE id=? AND seller_id=? AND status='unverified'`, ticketID, sellerID)
}

// Unclaim moves a seller's own ticket Verifying -> Unverified when the seller
// abandons the custodial transfer.
func (r *TicketRepo) Unclaim(ctx context.Context, ticketID, sellerID string) error {
	return r.cas(ctx, `
UPDATE tickets SET status='unverified'
WHERE id=? AND seller_id=? AND status='verifying'`, ticketID, sellerID)
}

// Verify moves a ticket Verifying -> Verified once the custodial transfer has
// been checked. Admin-only at the handler layer.
func (r *TicketRepo) Verify(ctx context.Context, ticketID string) error {
	return r.cas(ctx, `
UPDATE tickets SET status='verified'
WHERE id=? AND status='verifying'`, ticketID)
}

// Cancel moves a ticket from any non-terminal status to Cancelled.
func (r *TicketRepo) Cancel(ctx context.Context, ticketID string) error {
	return r.cas(ctx, `
UPDATE tickets SET status='cancelled'
WHERE id=? AND status NOT IN ('sold','cancelled')`, ticketID)
}

// Reserve attempts the Verified -> Reserved transition on behalf of a buyer.
// The price is frozen into price_at_reservation in the same statement that
// flips the status, so there is no window in which a price edit could leak
// into an existing reservation. The swap additionally requires that the
// game's trading cutoff has not passed and that the buyer is not the seller.
// On success the updated ticket is returned.
func (r *TicketRepo) Reserve(ctx context.Context, ticketID, buyerID string) (model.Ticket, error) {
	res, err := r.DB.ExecContext(ctx, `
UPDATE tickets t
JOIN games g ON g.id = t.game_id
SET t.status='reserved',
    t.price_at_reservation = t.price,
    t.reserved_at = UTC_TIMESTAMP(),
    t.reserved_by = ?
WHERE t.id = ?
  AND t.status = 'verified'
  AND t.seller_id <> ?
  AND g.cutoff_time > UTC_TIMESTAMP()`,
		buyerID, ticketID, buyerID)
	if err != nil {
		return model.Ticket{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Ticket{}, err
	}
	if n == 0 {
		// Distinguish "no such ticket" from a failed precondition.
		if _, err := r.GetByID(ctx, ticketID); errors.Is(err, ErrNotFound) {
			return model.Ticket{}, ErrNotFound
		}
		return model.Ticket{}, ErrInvalidTransition
	}
	return r.GetByID(ctx, ticketID)
}

// MarkPaid performs the gatekeeper transition Reserved -> Paid: it succeeds
// only while the ticket is still reserved by the given buyer inside the
// reservation window. Returns the frozen price on success.
func (r *TicketRepo) MarkPaid(ctx context.Context, ticketID, buyerID string, window time.Duration) (int64, error) {
	err := r.cas(ctx, `
UPDATE tickets SET status='paid'
WHERE id=? AND status='reserved' AND reserved_by=?
  AND reserved_at > UTC_TIMESTAMP() - INTERVAL ? SECOND`,
		ticketID, buyerID, int64(window.Seconds()))
	if err != nil {
		return 0, err
	}
	var price sql.NullInt64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT price_at_reservation FROM tickets WHERE id=?", ticketID).Scan(&price); err != nil {
		return 0, err
	}
	return price.Int64, nil
}

// MarkSold completes the lifecycle Paid -> Sold once the custodial ticket has
// been handed to the buyer.
func (r *TicketRepo) MarkSold(ctx context.Context, ticketID string) error {
	return r.cas(ctx, `
UPDATE tickets SET status='sold'
WHERE id=? AND status='paid'`, ticketID)
}

// DeleteExpiredUnverified removes Unverified listings whose transfer deadline
// has passed. Used by the cleanup sweeper.
func (r *TicketRepo) DeleteExpiredUnverified(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM tickets WHERE status='unverified' AND transfer_deadline <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ResetStuckVerifying returns tickets that have sat in Verifying longer than
// the timeout to Unverified so the seller can retry the transfer.
func (r *TicketRepo) ResetStuckVerifying(ctx context.Context, timeout time.Duration) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
UPDATE tickets SET status='unverified'
WHERE status='verifying' AND updated_at < UTC_TIMESTAMP() - INTERVAL ? SECOND`,
		int64(timeout.Seconds()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseExpiredReservations returns Reserved tickets whose window has lapsed
// to Verified, clearing the frozen price and the buyer bookkeeping so the
// listing is buyable again.
func (r *TicketRepo) ReleaseExpiredReservations(ctx context.Context, window time.Duration) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `
UPDATE tickets
SET status='verified', price_at_reservation=NULL, reserved_at=NULL, reserved_by=NULL
WHERE status='reserved' AND reserved_at < UTC_TIMESTAMP() - INTERVAL ? SECOND`,
		int64(window.Seconds()))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// cas runs a compare-and-swap UPDATE and maps a zero-row result to
// ErrInvalidTransition.
func (r *TicketRepo) cas(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *TicketRepo) list(ctx context.Context, query string, args ...any) ([]model.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicketRows(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func scanTicket(row *sql.Row) (model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(&t.ID, &t.SellerID, &t.GameID, &t.EventName, &t.EventDate,
		&t.Level, &t.SeatSection, &t.SeatRow, &t.SeatNumber, &t.PriceCents,
		&t.Status, &t.TransferDeadline, &t.PriceAtReservation, &t.ReservedAt,
		&t.ReservedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Ticket{}, ErrNotFound
	}
	return t, err
}

func scanTicketRows(rows *sql.Rows) (model.Ticket, error) {
	var t model.Ticket
	err := rows.Scan(&t.ID, &t.SellerID, &t.GameID, &t.EventName, &t.EventDate,
		&t.Level, &t.SeatSection, &t.SeatRow, &t.SeatNumber, &t.PriceCents,
		&t.Status, &t.TransferDeadline, &t.PriceAtReservation, &t.ReservedAt,
		&t.ReservedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
