package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/studentseats/ticket-marketplace/internal/config"
	"github.com/studentseats/ticket-marketplace/internal/model"
	"github.com/studentseats/ticket-marketplace/internal/repository"
)

// TicketHandler serves listing browsing, seller listing management, and the
// reserve endpoint. Lifecycle rules live in the repository's compare-and-swap
// statements; this layer translates their outcomes to HTTP.
type TicketHandler struct {
	Cfg       config.Config
	Games     GameStore
	Tickets   TicketStore
	Publisher ReservationPublisher // optional, may be nil
}

func NewTicketHandler(cfg config.Config, games GameStore, tickets TicketStore, pub ReservationPublisher) *TicketHandler {
	return &TicketHandler{Cfg: cfg, Games: games, Tickets: tickets, Publisher: pub}
}

type createTicketReq struct {
	GameID      string `json:"game_id"`
	Level       string `json:"level"`
	SeatSection string `json:"seat_section"`
	SeatRow     string `json:"seat_row"`
	SeatNumber  string `json:"seat_number"`
	PriceCents  int64  `json:"price"`
}

type claimReq struct {
	TicketID string `json:"ticket_id"`
}

type verifyReq struct {
	Status string `json:"status"` // optional; defaults to "verified"
}

// List returns the buyable listings: Verified tickets whose game is still
// open for trading.
func (h *TicketHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tickets, err := h.Tickets.ListBuyable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// MyListings returns the authenticated seller's tickets, optionally filtered
// by a status query parameter. The filter is case-normalized, so ?status=
// Reserved and ?status=reserved are the same query.
func (h *TicketHandler) MyListings(c echo.Context) error {
	sellerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var filter *model.Status
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
		}
		filter = &st
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tickets, err := h.Tickets.ListBySeller(ctx, sellerID, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tickets": tickets})
}

// Create lists a new ticket for sale. Price arrives in integer cents. The
// listing starts Unverified and must go through the custodial transfer before
// buyers can see it.
func (h *TicketHandler) Create(c echo.Context) error {
	sellerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be >= 0"})
	}
	req.Level = strings.TrimSpace(req.Level)
	req.SeatSection = strings.TrimSpace(req.SeatSection)
	req.SeatRow = strings.TrimSpace(req.SeatRow)
	req.SeatNumber = strings.TrimSpace(req.SeatNumber)
	if req.Level == "" || req.SeatSection == "" || req.SeatRow == "" || req.SeatNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat details cannot be empty"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	game, err := h.Games.GetByID(ctx, req.GameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "game not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// Trading closes at the cutoff; no new listings after it.
	if !game.CutoffTime.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trading for this game has closed"})
	}

	ticket, err := h.Tickets.Create(ctx, sellerID, game,
		req.Level, req.SeatSection, req.SeatRow, req.SeatNumber,
		req.PriceCents, h.Cfg.TransferWindow)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
	}

	log.WithFields(log.Fields{
		"ticket_id": ticket.ID,
		"game_id":   ticket.GameID,
		"seller_id": sellerID,
		"price":     ticket.PriceCents,
	}).Info("ticket listed")

	return c.JSON(http.StatusCreated, ticket)
}

// Claim starts the custodial transfer for the seller's own ticket
// (Unverified -> Verifying).
func (h *TicketHandler) Claim(c echo.Context) error {
	sellerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req claimReq
	if err := c.Bind(&req); err != nil || req.TicketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tickets.Claim(ctx, req.TicketID, sellerID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket cannot be claimed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "claim failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": req.TicketID, "status": model.StatusVerifying})
}

// Unclaim abandons a pending custodial transfer (Verifying -> Unverified).
func (h *TicketHandler) Unclaim(c echo.Context) error {
	sellerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tickets.Unclaim(ctx, ticketID, sellerID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket cannot be unclaimed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unclaim failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Verify is the admin transition out of Verifying. With no body (or
// status=verified) it completes verification; status=cancelled pulls the
// listing instead.
func (h *TicketHandler) Verify(c echo.Context) error {
	ticketID := c.Param("id")
	var req verifyReq
	_ = c.Bind(&req) // empty body means plain verification

	target := model.StatusVerified
	if raw := strings.TrimSpace(req.Status); raw != "" {
		st, err := model.ParseStatus(raw)
		if err != nil || (st != model.StatusVerified && st != model.StatusCancelled) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be verified or cancelled"})
		}
		target = st
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	var err error
	if target == model.StatusCancelled {
		err = h.Tickets.Cancel(ctx, ticketID)
	} else {
		err = h.Tickets.Verify(ctx, ticketID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.WithFields(log.Fields{"ticket_id": ticketID, "status": target}).Info("ticket status updated")

	return c.JSON(http.StatusOK, echo.Map{"ticket_id": ticketID, "status": target})
}

// MarkSold is the admin transition Paid -> Sold, recorded once the custodial
// ticket has been handed to the buyer.
func (h *TicketHandler) MarkSold(c echo.Context) error {
	ticketID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tickets.MarkSold(ctx, ticketID); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	log.WithField("ticket_id", ticketID).Info("ticket sold")

	return c.JSON(http.StatusOK, echo.Map{"ticket_id": ticketID, "status": model.StatusSold})
}

// Reserve claims a Verified ticket for the buyer, freezing its price. Any
// failed precondition (wrong status, own listing, trading closed, concurrent
// reservation) surfaces as 409 so the client can treat it as "reservation
// unavailable".
func (h *TicketHandler) Reserve(c echo.Context) error {
	buyerID, err := currentUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	ticket, err := h.Tickets.Reserve(ctx, ticketID, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "ticket is no longer available"})
		}
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
	}

	log.WithFields(log.Fields{
		"ticket_id": ticket.ID,
		"buyer_id":  buyerID,
		"price":     derefInt64(ticket.PriceAtReservation),
	}).Info("ticket reserved")

	if h.Publisher != nil {
		if err := h.Publisher.PublishTicketReserved(ctx, ticket); err != nil {
			log.WithError(err).Warn("publish ticket.reserved failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ticket_id":            ticket.ID,
		"status":               ticket.Status,
		"price_at_reservation": derefInt64(ticket.PriceAtReservation),
		"reserved_at":          ticket.ReservedAt,
	})
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
