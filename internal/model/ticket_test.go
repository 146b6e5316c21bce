package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"reserved", "Reserved", "RESERVED", "  reserved  "} {
		st, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, StatusReserved, st)
	}

	_, err := ParseStatus("pending")
	assert.Error(t, err)
}

func TestStatusLifecyclePath(t *testing.T) {
	// The only forward path through the lifecycle.
	path := []Status{StatusUnverified, StatusVerifying, StatusVerified, StatusReserved, StatusPaid, StatusSold}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, path[i].CanTransitionTo(path[i+1]),
			"%s -> %s should be allowed", path[i], path[i+1])
	}

	// No skipping ahead.
	assert.False(t, StatusUnverified.CanTransitionTo(StatusVerified))
	assert.False(t, StatusUnverified.CanTransitionTo(StatusReserved))
	assert.False(t, StatusVerifying.CanTransitionTo(StatusReserved))
	assert.False(t, StatusVerified.CanTransitionTo(StatusPaid))
	assert.False(t, StatusReserved.CanTransitionTo(StatusSold))

	// No moving backward except the two sanctioned releases.
	assert.True(t, StatusVerifying.CanTransitionTo(StatusUnverified), "unclaim")
	assert.True(t, StatusReserved.CanTransitionTo(StatusVerified), "expired reservation release")
	assert.False(t, StatusVerified.CanTransitionTo(StatusUnverified))
	assert.False(t, StatusPaid.CanTransitionTo(StatusReserved))
}

func TestStatusCancelledReachability(t *testing.T) {
	for _, st := range []Status{StatusUnverified, StatusVerifying, StatusVerified, StatusReserved, StatusPaid} {
		assert.True(t, st.CanTransitionTo(StatusCancelled), "%s should be cancellable", st)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, st := range []Status{StatusSold, StatusCancelled} {
		assert.True(t, st.Terminal())
		for _, next := range []Status{StatusUnverified, StatusVerifying, StatusVerified, StatusReserved, StatusPaid, StatusSold, StatusCancelled} {
			assert.False(t, st.CanTransitionTo(next), "no transition out of %s", st)
		}
	}
	assert.False(t, StatusReserved.Terminal())
}

func TestStatusScanRoundTrip(t *testing.T) {
	v, err := StatusVerifying.Value()
	require.NoError(t, err)
	assert.Equal(t, "verifying", v)

	var st Status
	require.NoError(t, st.Scan([]byte("verifying")))
	assert.Equal(t, StatusVerifying, st)

	assert.Error(t, st.Scan("bogus"))
	assert.Error(t, st.Scan(42))
}
