package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a ticket. The canonical (JSON) form is
// capitalized; the database stores the lowercase form. A ticket only ever
// moves forward along
//
//	Unverified → Verifying → Verified → Reserved → Paid → Sold
//
// with Cancelled reachable from any non-terminal state. Sold and Cancelled
// are terminal.
type Status string

const (
	StatusUnverified Status = "Unverified"
	StatusVerifying  Status = "Verifying"
	StatusVerified   Status = "Verified"
	StatusReserved   Status = "Reserved"
	StatusPaid       Status = "Paid"
	StatusSold       Status = "Sold"
	StatusCancelled  Status = "Cancelled"
)

// ParseStatus normalizes a user- or database-supplied status string. The
// match is case-insensitive so the my-listings filter can lowercase its
// input, as the web client does.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unverified":
		return StatusUnverified, nil
	case "verifying":
		return StatusVerifying, nil
	case "verified":
		return StatusVerified, nil
	case "reserved":
		return StatusReserved, nil
	case "paid":
		return StatusPaid, nil
	case "sold":
		return StatusSold, nil
	case "cancelled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown ticket status %q", s)
}

// Terminal reports whether no further transition is allowed out of s.
func (s Status) Terminal() bool {
	return s == StatusSold || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle
// step. Unclaiming (Verifying back to Unverified) is the one permitted
// backward edge: a seller may abandon a custodial transfer, and the stuck
// verifying sweeper uses the same edge.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusUnverified:
		return next == StatusVerifying
	case StatusVerifying:
		return next == StatusVerified || next == StatusUnverified
	case StatusVerified:
		return next == StatusReserved
	case StatusReserved:
		return next == StatusPaid || next == StatusVerified
	case StatusPaid:
		return next == StatusSold
	}
	return false
}

// DBValue is the lowercase form stored in the tickets.status column.
func (s Status) DBValue() string { return strings.ToLower(string(s)) }

// Value implements driver.Valuer so repositories can bind a Status directly.
func (s Status) Value() (driver.Value, error) { return s.DBValue(), nil }

// Scan implements sql.Scanner, mapping the stored lowercase value back to the
// canonical form.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Ticket mirrors the `tickets` table. Event name and date are denormalized
// from the game at listing time so the listing survives a game rename.
// Reservation bookkeeping (reserved_at, reserved_by) is internal and never
// serialized to clients; price_at_reservation is exposed once set because the
// buyer-facing price is frozen from that moment.
type Ticket struct {
	ID                 string     `json:"id"`
	SellerID           string     `json:"seller_id"`
	GameID             string     `json:"game_id"`
	EventName          string     `json:"event_name"`
	EventDate          time.Time  `json:"event_date"`
	Level              string     `json:"level"`
	SeatSection        string     `json:"seat_section"`
	SeatRow            string     `json:"seat_row"`
	SeatNumber         string     `json:"seat_number"`
	PriceCents         int64      `json:"price"`
	Status             Status     `json:"status"`
	TransferDeadline   time.Time  `json:"transfer_deadline"`
	PriceAtReservation *int64     `json:"price_at_reservation,omitempty"`
	ReservedAt         *time.Time `json:"-"`
	ReservedBy         *string    `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"-"`
}
