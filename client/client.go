// Package client is the Go API client for the student ticket marketplace.
// It mirrors what the web front end does: a bearer token persisted across
// sessions through a TokenStore and attached verbatim as the Authorization
// header value, JSON bodies both ways, and every non-2xx response surfaced as
// a single human-readable message.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/studentseats/ticket-marketplace/internal/model"
	"github.com/studentseats/ticket-marketplace/internal/utils"
)

// MinPasswordLength mirrors the server's registration password policy so the
// client can reject obviously bad input before a round trip.
const MinPasswordLength = 8

// ErrReservationUnavailable is returned by ReserveTicket when the server
// refuses the reservation (most commonly because another buyer got there
// first, but also when the ticket left Verified for any other reason). The
// caller should treat it as "try a different ticket", not as a failure.
var ErrReservationUnavailable = errors.New("reservation unavailable")

// APIError carries the server-supplied message for a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client issues authenticated requests against the marketplace API.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenStore
	domain  string // optional local pre-submit email domain check
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithTokenStore replaces the default file-backed token store.
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) { c.tokens = s }
}

// WithSchoolDomain enables a local pre-submit check that the registration
// email belongs to the given institutional domain, the same check the web
// form runs before submitting. The server enforces its own configured domain
// regardless, so leaving this unset only costs a round trip on bad input.
func WithSchoolDomain(domain string) Option {
	return func(c *Client) { c.domain = domain }
}

// New returns a client for the API at baseURL. By default the bearer token is
// persisted to a file keyed by a fixed name, so a token obtained by Login
// survives process restarts, as it does in the browser.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		tokens:  NewFileTokenStore(""),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the currently persisted bearer token, empty when logged out.
func (c *Client) Token() string {
	tok, _ := c.tokens.Load()
	return tok
}

// ----- response shapes -----

type RegisterResponse struct {
	Message          string `json:"message"`
	VerificationCode string `json:"verification_code,omitempty"`
}

type VerifyEmailResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type LoginResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

type GamesResponse struct {
	Games []model.Game `json:"games"`
}

type TicketsResponse struct {
	Tickets []model.Ticket `json:"tickets"`
}

type ReservationResponse struct {
	TicketID           string    `json:"ticket_id"`
	Status             string    `json:"status"`
	PriceAtReservation int64     `json:"price_at_reservation"`
	ReservedAt         time.Time `json:"reserved_at"`
}

// CreateTicketRequest is the payload for listing a ticket. Price is integer
// cents; use ParseDollars to convert user input.
type CreateTicketRequest struct {
	GameID      string `json:"game_id"`
	Level       string `json:"level"`
	SeatSection string `json:"seat_section"`
	SeatRow     string `json:"seat_row"`
	SeatNumber  string `json:"seat_number"`
	PriceCents  int64  `json:"price"`
}

// ----- operations -----

// Register creates an account. The email must belong to the institutional
// domain and the password must be at least MinPasswordLength characters;
// both are validated locally before the request and authoritatively by the
// server.
func (c *Client) Register(ctx context.Context, email, password string) (RegisterResponse, error) {
	var out RegisterResponse
	if len(password) < MinPasswordLength {
		return out, &APIError{StatusCode: 0, Message: "password must be at least 8 characters"}
	}
	if c.domain != "" {
		if err := utils.ValidateSchoolEmail(strings.ToLower(strings.TrimSpace(email)), c.domain); err != nil {
			return out, &APIError{StatusCode: 0, Message: err.Error()}
		}
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"email": email, "password": password}, &out)
	return out, err
}

// VerifyEmail activates an account with the emailed code.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) (VerifyEmailResponse, error) {
	var out VerifyEmailResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/verify-email",
		map[string]string{"email": email, "code": code}, &out)
	return out, err
}

// Login authenticates and persists the returned bearer token for subsequent
// calls.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return out, err
	}
	if err := c.tokens.Save(out.Token); err != nil {
		return out, fmt.Errorf("persist token: %w", err)
	}
	return out, nil
}

// Logout drops the persisted token. Purely client-side, like the web app.
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// GetGames lists upcoming games still open for trading.
func (c *Client) GetGames(ctx context.Context) (GamesResponse, error) {
	var out GamesResponse
	err := c.do(ctx, http.MethodGet, "/api/games", nil, &out)
	return out, err
}

// GetTickets lists buyable (Verified) tickets.
func (c *Client) GetTickets(ctx context.Context) (TicketsResponse, error) {
	var out TicketsResponse
	err := c.do(ctx, http.MethodGet, "/api/tickets", nil, &out)
	return out, err
}

// GetMyListings returns the caller's listings. A non-empty status filters
// server-side; it is lowercased before sending, as the web client does.
func (c *Client) GetMyListings(ctx context.Context, status string) (TicketsResponse, error) {
	path := "/api/tickets/my-listings"
	if status != "" {
		path += "?status=" + url.QueryEscape(strings.ToLower(status))
	}
	var out TicketsResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateTicket lists a ticket for sale and returns the stored listing.
func (c *Client) CreateTicket(ctx context.Context, req CreateTicketRequest) (model.Ticket, error) {
	var out model.Ticket
	err := c.do(ctx, http.MethodPost, "/api/tickets", req, &out)
	return out, err
}

// ReserveTicket attempts to reserve a Verified ticket, freezing its price.
// Any refusal by the server maps to ErrReservationUnavailable.
func (c *Client) ReserveTicket(ctx context.Context, ticketID string) (ReservationResponse, error) {
	var out ReservationResponse
	err := c.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(ticketID)+"/reserve", nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusUnauthorized {
		return out, fmt.Errorf("%w: %s", ErrReservationUnavailable, apiErr.Message)
	}
	return out, err
}

// do issues one request. The persisted token, when present, is attached
// verbatim as the Authorization header value (no scheme prefix). A 204 is an
// empty success; any other non-2xx becomes an APIError carrying the
// server-supplied message when present, else a fallback string.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok, _ := c.tokens.Load(); tok != "" {
		req.Header.Set("Authorization", tok)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := "request failed"
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{StatusCode: res.StatusCode, Message: msg}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
