package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studentseats/ticket-marketplace/internal/middleware"
	"github.com/studentseats/ticket-marketplace/internal/model"
)

// The store interfaces below are what handlers need from the repository
// layer; the concrete repositories in internal/repository satisfy them.
// Keeping them as interfaces lets handler tests substitute in-memory fakes
// without a database.

type UserStore interface {
	Create(ctx context.Context, email, password, verificationCode string, cost int) (string, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	VerifyEmail(ctx context.Context, email, code string) (string, error)
}

type GameStore interface {
	Create(ctx context.Context, sport model.SportType, name string, gameTime, cutoffTime time.Time) (model.Game, error)
	GetByID(ctx context.Context, id string) (model.Game, error)
	ListUpcoming(ctx context.Context) ([]model.Game, error)
	Delete(ctx context.Context, id string) error
}

type TicketStore interface {
	Create(ctx context.Context, sellerID string, game model.Game, level, section, row, number string, priceCents int64, transferWindow time.Duration) (model.Ticket, error)
	GetByID(ctx context.Context, id string) (model.Ticket, error)
	ListBuyable(ctx context.Context) ([]model.Ticket, error)
	ListBySeller(ctx context.Context, sellerID string, status *model.Status) ([]model.Ticket, error)
	Claim(ctx context.Context, ticketID, sellerID string) error
	Unclaim(ctx context.Context, ticketID, sellerID string) error
	Verify(ctx context.Context, ticketID string) error
	Cancel(ctx context.Context, ticketID string) error
	MarkSold(ctx context.Context, ticketID string) error
	Reserve(ctx context.Context, ticketID, buyerID string) (model.Ticket, error)
	MarkPaid(ctx context.Context, ticketID, buyerID string, window time.Duration) (int64, error)
}

type PaymentStore interface {
	Record(ctx context.Context, pi model.PaymentIntent) error
	SetStatus(ctx context.Context, id string, status model.PaymentIntentStatus) error
}

// ReservationPublisher emits the ticket.reserved event after a successful
// reservation. Publish failures are logged and ignored; eventing is not on
// the reservation critical path.
type ReservationPublisher interface {
	PublishTicketReserved(ctx context.Context, ev model.Ticket) error
}

// dbTimeout bounds every database call made from a handler.
const dbTimeout = 5 * time.Second

// currentUserID extracts the authenticated user ID injected by the auth
// middleware.
func currentUserID(c echo.Context) (string, error) {
	if v, ok := c.Get(middleware.CtxUserID).(string); ok && v != "" {
		return v, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
