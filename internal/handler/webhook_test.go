package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentseats/ticket-marketplace/internal/model"
)

func capturablePayload(piID, ticketID, buyerID string) string {
	return `{
		"type": "payment_intent.amount_capturable_updated",
		"data": {"object": {
			"id": "` + piID + `",
			"amount": 15000,
			"currency": "usd",
			"metadata": {"ticket_id": "` + ticketID + `", "buyer_id": "` + buyerID + `"}
		}}
	}`
}

func newWebhookFixture() (*WebhookHandler, *fakeGameStore, *fakeTicketStore, *fakePaymentStore, *fakeProvider) {
	games := newFakeGameStore()
	tickets := newFakeTicketStore(games)
	payments := newFakePaymentStore()
	provider := &fakeProvider{}
	h := NewWebhookHandler(testConfig(), tickets, payments, provider)
	return h, games, tickets, payments, provider
}

func webhookCtx(e *echo.Echo, payload, sig string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func reserveForTest(t *testing.T, tickets *fakeTicketStore, ticketID, buyerID string) {
	t.Helper()
	_, err := tickets.Reserve(context.Background(), ticketID, buyerID)
	require.NoError(t, err)
}

func TestWebhookCapturesValidReservation(t *testing.T) {
	h, games, tickets, payments, provider := newWebhookFixture()
	game := games.add("Big Game", time.Now().Add(24*time.Hour))
	tk := tickets.add("seller-1", game, model.StatusVerified, 15000)
	reserveForTest(t, tickets, tk.ID, "buyer-1")

	e := echo.New()
	c, rec := webhookCtx(e, capturablePayload("pi_1", tk.ID, "buyer-1"), "t=1,v1=sig")

	require.NoError(t, h.HandleStripe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := tickets.GetByID(c.Request().Context(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, got.Status)

	assert.Equal(t, []string{"pi_1"}, provider.captured)
	assert.Empty(t, provider.cancelled)
	assert.Equal(t, model.PaymentCaptured, payments.intents["pi_1"].Status)
}

func TestWebhookReleasesLapsedReservation(t *testing.T) {
	h, games, tickets, payments, provider := newWebhookFixture()
	game := games.add("Big Game", time.Now().Add(24*time.Hour))
	tk := tickets.add("seller-1", game, model.StatusVerified, 15000)
	reserveForTest(t, tickets, tk.ID, "buyer-1")

	// Push the reservation past the window.
	stale := time.Now().Add(-10 * time.Minute)
	rec0 := tickets.tickets[tk.ID]
	rec0.ReservedAt = &stale
	tickets.tickets[tk.ID] = rec0

	e := echo.New()
	c, rec := webhookCtx(e, capturablePayload("pi_2", tk.ID, "buyer-1"), "t=1,v1=sig")

	require.NoError(t, h.HandleStripe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The hold is released; the ticket itself is left for the sweeper.
	got, err := tickets.GetByID(c.Request().Context(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReserved, got.Status)

	assert.Empty(t, provider.captured)
	assert.Equal(t, []string{"pi_2"}, provider.cancelled)
	assert.Equal(t, model.PaymentCancelled, payments.intents["pi_2"].Status)
}

func TestWebhookFailedCaptureKeepsIntentCapturable(t *testing.T) {
	h, games, tickets, payments, provider := newWebhookFixture()
	provider.capErr = assert.AnError
	game := games.add("Big Game", time.Now().Add(24*time.Hour))
	tk := tickets.add("seller-1", game, model.StatusVerified, 15000)
	reserveForTest(t, tickets, tk.ID, "buyer-1")

	e := echo.New()
	c, rec := webhookCtx(e, capturablePayload("pi_cap", tk.ID, "buyer-1"), "t=1,v1=sig")

	require.NoError(t, h.HandleStripe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The intent must not claim the buyer was charged when Stripe refused
	// the capture; it stays capturable for manual follow-up.
	assert.Equal(t, model.PaymentCapturable, payments.intents["pi_cap"].Status)

	got, err := tickets.GetByID(c.Request().Context(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, got.Status)
}

func TestWebhookFailedCancelKeepsIntentCapturable(t *testing.T) {
	h, games, tickets, payments, provider := newWebhookFixture()
	provider.cancelErr = assert.AnError
	game := games.add("Big Game", time.Now().Add(24*time.Hour))
	tk := tickets.add("seller-1", game, model.StatusVerified, 15000)
	reserveForTest(t, tickets, tk.ID, "someone-else")

	e := echo.New()
	c, rec := webhookCtx(e, capturablePayload("pi_cxl", tk.ID, "buyer-1"), "t=1,v1=sig")

	require.NoError(t, h.HandleStripe(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PaymentCapturable, payments.intents["pi_cxl"].Status)
}

func TestWebhookReleasesWhenBuyerMismatches(t *testing.T) {
	h, games, tickets, _, provider := newWebhookFixture()
	game := games.add("Big Game", time.Now().Add(24*time.Hour))
	tk := tickets.add("seller-1", game, model.StatusVerified, 15000)
	reserveForTest(t, tickets, tk.ID, "buyer-1")

	e := echo.New()
	c, rec := webhookCtx(e, capturablePayload("pi_3", tk.ID, "someone-else"), "t=1,v1=sig")

	require.NoError(t, h.HandleStripe(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"pi_3"}, provider.cancelled)
}

func TestWebhookDuplicateDeliveryIsIdempotent(t *testing.T) {
	h, games, tickets, _, provider := newWebhookFixture()
	game := games.add("Big Game", time.Now().Add(24*time.Hour))
	tk := tickets.add("seller-1", game, model.StatusVerified, 15000)
	reserveForTest(t, tickets, tk.ID, "buyer-1")

	e := echo.New()
	payload := capturablePayload("pi_4", tk.ID, "buyer-1")

	c, rec := webhookCtx(e, payload, "t=1,v1=sig")
	require.NoError(t, h.HandleStripe(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = webhookCtx(e, payload, "t=1,v1=sig")
	require.NoError(t, h.HandleStripe(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["duplicate"])

	// The gatekeeper check ran once.
	assert.Equal(t, []string{"pi_4"}, provider.captured)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	h, _, _, _, _ := newWebhookFixture()

	e := echo.New()
	c, rec := webhookCtx(e, capturablePayload("pi_5", "t", "b"), "")
	require.NoError(t, h.HandleStripe(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing signature", decodeBody(t, rec)["error"])
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, _, _, _, provider := newWebhookFixture()
	provider.sigErr = assert.AnError

	e := echo.New()
	c, rec := webhookCtx(e, capturablePayload("pi_6", "t", "b"), "t=1,v1=bad")
	require.NoError(t, h.HandleStripe(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid signature", decodeBody(t, rec)["error"])
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	h, _, _, payments, provider := newWebhookFixture()

	e := echo.New()
	c, rec := webhookCtx(e, `{"type":"payment_intent.created","data":{"object":{"id":"pi_7"}}}`, "t=1,v1=sig")
	require.NoError(t, h.HandleStripe(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, payments.intents)
	assert.Empty(t, provider.captured)
}

func TestWebhookRequiresTicketMetadata(t *testing.T) {
	h, _, _, _, _ := newWebhookFixture()

	e := echo.New()
	payload := `{"type":"payment_intent.amount_capturable_updated","data":{"object":{"id":"pi_8","metadata":{}}}}`
	c, rec := webhookCtx(e, payload, "t=1,v1=sig")
	require.NoError(t, h.HandleStripe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
