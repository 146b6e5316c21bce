// Package queue defines the message payloads exchanged over the broker and
// the background consumer for reservation events.
package queue

// TicketReservedEvent is published when a buyer successfully reserves a
// ticket. It carries enough for downstream consumers to log or notify
// without querying the primary database.
type TicketReservedEvent struct {
	TicketID           string `json:"ticket_id"`
	GameID             string `json:"game_id"`
	EventName          string `json:"event_name"`
	SellerID           string `json:"seller_id"`
	BuyerID            string `json:"buyer_id"`
	Level              string `json:"level"`
	SeatSection        string `json:"seat_section"`
	SeatRow            string `json:"seat_row"`
	SeatNumber         string `json:"seat_number"`
	PriceAtReservation int64  `json:"price_at_reservation"`
	ReservedAt         string `json:"reserved_at"`
}

// reservedQueueName is the durable queue both the publisher and consumer
// declare.
const reservedQueueName = "ticket.reserved"
