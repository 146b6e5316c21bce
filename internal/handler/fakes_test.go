package handler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studentseats/ticket-marketplace/internal/model"
	"github.com/studentseats/ticket-marketplace/internal/repository"
	"github.com/studentseats/ticket-marketplace/internal/utils"
)

// In-memory fakes mirroring the repository semantics closely enough for
// handler tests: compare-and-swap transitions fail with ErrInvalidTransition
// and leave state untouched.

type fakeUserStore struct {
	users map[string]model.User // by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]model.User{}}
}

func (s *fakeUserStore) add(email, password string, verified bool) model.User {
	hash, _ := utils.HashPassword(password, 4)
	u := model.User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: verified,
	}
	s.users[email] = u
	return u
}

func (s *fakeUserStore) Create(_ context.Context, email, password, code string, cost int) (string, error) {
	if _, ok := s.users[email]; ok {
		return "", repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return "", err
	}
	u := model.User{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     hash,
		VerificationCode: &code,
	}
	s.users[email] = u
	return u.ID, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.users[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) VerifyEmail(_ context.Context, email, code string) (string, error) {
	u, ok := s.users[email]
	if !ok || u.EmailVerified || u.VerificationCode == nil || *u.VerificationCode != code {
		return "", repository.ErrNotFound
	}
	u.EmailVerified = true
	u.VerificationCode = nil
	s.users[email] = u
	return u.ID, nil
}

type fakeGameStore struct {
	games map[string]model.Game
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{games: map[string]model.Game{}}
}

func (s *fakeGameStore) add(name string, cutoff time.Time) model.Game {
	g := model.Game{
		ID:         uuid.NewString(),
		SportType:  model.SportFootball,
		Name:       name,
		GameTime:   cutoff.Add(time.Hour),
		CutoffTime: cutoff,
	}
	s.games[g.ID] = g
	return g
}

func (s *fakeGameStore) Create(_ context.Context, sport model.SportType, name string, gameTime, cutoffTime time.Time) (model.Game, error) {
	g := model.Game{ID: uuid.NewString(), SportType: sport, Name: name, GameTime: gameTime, CutoffTime: cutoffTime}
	s.games[g.ID] = g
	return g, nil
}

func (s *fakeGameStore) GetByID(_ context.Context, id string) (model.Game, error) {
	g, ok := s.games[id]
	if !ok {
		return model.Game{}, repository.ErrNotFound
	}
	return g, nil
}

func (s *fakeGameStore) ListUpcoming(_ context.Context) ([]model.Game, error) {
	out := make([]model.Game, 0)
	for _, g := range s.games {
		if g.CutoffTime.After(time.Now()) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *fakeGameStore) Delete(_ context.Context, id string) error {
	if _, ok := s.games[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.games, id)
	return nil
}

type fakeTicketStore struct {
	games   *fakeGameStore
	tickets map[string]model.Ticket
}

func newFakeTicketStore(games *fakeGameStore) *fakeTicketStore {
	return &fakeTicketStore{games: games, tickets: map[string]model.Ticket{}}
}

func (s *fakeTicketStore) add(sellerID string, game model.Game, status model.Status, priceCents int64) model.Ticket {
	t := model.Ticket{
		ID:               uuid.NewString(),
		SellerID:         sellerID,
		GameID:           game.ID,
		EventName:        game.Name,
		EventDate:        game.GameTime,
		Level:            "Upper",
		SeatSection:      "12",
		SeatRow:          "F",
		SeatNumber:       "7",
		PriceCents:       priceCents,
		Status:           status,
		TransferDeadline: game.CutoffTime,
		CreatedAt:        time.Now().UTC(),
	}
	s.tickets[t.ID] = t
	return t
}

func (s *fakeTicketStore) Create(_ context.Context, sellerID string, game model.Game, level, section, row, number string, priceCents int64, transferWindow time.Duration) (model.Ticket, error) {
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
	}
	s.tickets[t.ID] = t
	return t, nil
}

func (s *fakeTicketStore) GetByID(_ context.Context, id string) (model.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return model.Ticket{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *fakeTicketStore) ListBuyable(_ context.Context) ([]model.Ticket, error) {
	out := make([]model.Ticket, 0)
	for _, t := range s.tickets {
		g, ok := s.games.games[t.GameID]
		if ok && t.Status == model.StatusVerified && g.CutoffTime.After(time.Now()) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTicketStore) ListBySeller(_ context.Context, sellerID string, status *model.Status) ([]model.Ticket, error) {
	out := make([]model.Ticket, 0)
	for _, t := range s.tickets {
		if t.SellerID != sellerID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeTicketStore) swap(id string, check func(model.Ticket) bool, mutate func(*model.Ticket)) error {
	t, ok := s.tickets[id]
	if !ok || !check(t) {
		return repository.ErrInvalidTransition
	}
	mutate(&t)
	t.UpdatedAt = time.Now().UTC()
	s.tickets[id] = t
	return nil
}

func (s *fakeTicketStore) Claim(_ context.Context, ticketID, sellerID string) error {
	return s.swap(ticketID,
		func(t model.Ticket) bool { return t.SellerID == sellerID && t.Status == model.StatusUnverified },
		func(t *model.Ticket) { t.Status = model.StatusVerifying })
}

func (s *fakeTicketStore) Unclaim(_ context.Context, ticketID, sellerID string) error {
	return s.swap(ticketID,
		func(t model.Ticket) bool { return t.SellerID == sellerID && t.Status == model.StatusVerifying },
		func(t *model.Ticket) { t.Status = model.StatusUnverified })
}

func (s *fakeTicketStore) Verify(_ context.Context, ticketID string) error {
	return s.swap(ticketID,
		func(t model.Ticket) bool { return t.Status == model.StatusVerifying },
		func(t *model.Ticket) { t.Status = model.StatusVerified })
}

func (s *fakeTicketStore) Cancel(_ context.Context, ticketID string) error {
	return s.swap(ticketID,
		func(t model.Ticket) bool { return !t.Status.Terminal() },
		func(t *model.Ticket) { t.Status = model.StatusCancelled })
}

func (s *fakeTicketStore) MarkSold(_ context.Context, ticketID string) error {
	return s.swap(ticketID,
		func(t model.Ticket) bool { return t.Status == model.StatusPaid },
		func(t *model.Ticket) { t.Status = model.StatusSold })
}

func (s *fakeTicketStore) Reserve(_ context.Context, ticketID, buyerID string) (model.Ticket, error) {
	if _, ok := s.tickets[ticketID]; !ok {
		return model.Ticket{}, repository.ErrNotFound
	}
	err := s.swap(ticketID,
		func(t model.Ticket) bool {
			g, ok := s.games.games[t.GameID]
			return ok && t.Status == model.StatusVerified && t.SellerID != buyerID && g.CutoffTime.After(time.Now())
		},
		func(t *model.Ticket) {
			now := time.Now().UTC()
			price := t.PriceCents
			t.Status = model.StatusReserved
			t.PriceAtReservation = &price
			t.ReservedAt = &now
			t.ReservedBy = &buyerID
		})
	if err != nil {
		return model.Ticket{}, err
	}
	return s.tickets[ticketID], nil
}

func (s *fakeTicketStore) MarkPaid(_ context.Context, ticketID, buyerID string, window time.Duration) (int64, error) {
	err := s.swap(ticketID,
		func(t model.Ticket) bool {
			return t.Status == model.StatusReserved &&
				t.ReservedBy != nil && *t.ReservedBy == buyerID &&
				t.ReservedAt != nil && t.ReservedAt.After(time.Now().Add(-window))
		},
		func(t *model.Ticket) { t.Status = model.StatusPaid })
	if err != nil {
		return 0, err
	}
	t := s.tickets[ticketID]
	if t.PriceAtReservation == nil {
		return 0, errors.New("paid ticket missing frozen price")
	}
	return *t.PriceAtReservation, nil
}

type fakePaymentStore struct {
	intents map[string]model.PaymentIntent
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{intents: map[string]model.PaymentIntent{}}
}

func (s *fakePaymentStore) Record(_ context.Context, pi model.PaymentIntent) error {
	if _, ok := s.intents[pi.ID]; ok {
		return repository.ErrDuplicate
	}
	s.intents[pi.ID] = pi
	return nil
}

func (s *fakePaymentStore) SetStatus(_ context.Context, id string, status model.PaymentIntentStatus) error {
	pi, ok := s.intents[id]
	if !ok {
		return repository.ErrNotFound
	}
	pi.Status = status
	s.intents[id] = pi
	return nil
}

type fakePublisher struct {
	published []model.Ticket
	err       error
}

func (p *fakePublisher) PublishTicketReserved(_ context.Context, t model.Ticket) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, t)
	return nil
}

// fakeProvider stands in for the Stripe wrapper.
type fakeProvider struct {
	sigErr    error
	capErr    error
	cancelErr error
	captured  []string
	cancelled []string
}

func (p *fakeProvider) VerifySignature([]byte, string) error { return p.sigErr }

func (p *fakeProvider) Capture(_ context.Context, id string) error {
	if p.capErr != nil {
		return p.capErr
	}
	p.captured = append(p.captured, id)
	return nil
}

func (p *fakeProvider) Cancel(_ context.Context, id string) error {
	if p.cancelErr != nil {
		return p.cancelErr
	}
	p.cancelled = append(p.cancelled, id)
	return nil
}
