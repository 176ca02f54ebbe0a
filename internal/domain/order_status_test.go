package domain

import (
	"testing"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name     string
		from     OrderStatus
		to       OrderStatus
		tracking string
		wantErr  error
	}{
		{name: "pending to confirmed", from: StatusPending, to: StatusConfirmed},
		{name: "cod pending to cancelled", from: StatusCODPending, to: StatusCancelled},
		{name: "paid to confirmed", from: StatusPaid, to: StatusConfirmed},
		{name: "paid to shipped skips confirmation", from: StatusPaid, to: StatusShipped, tracking: "TRK1", wantErr: e.ErrInvalidTransition},
		{name: "confirmed to shipped with tracking", from: StatusConfirmed, to: StatusShipped, tracking: "TRK1"},
		{name: "confirmed to shipped without tracking", from: StatusConfirmed, to: StatusShipped, wantErr: e.ErrTrackingRequired},
		{name: "shipped to delivered", from: StatusShipped, to: StatusDelivered},
		{name: "shipped to cancelled", from: StatusShipped, to: StatusCancelled, wantErr: e.ErrInvalidTransition},
		{name: "delivered is terminal", from: StatusDelivered, to: StatusCancelled, wantErr: e.ErrOrderFinalized},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusConfirmed, wantErr: e.ErrOrderFinalized},
		{name: "unknown can be cancelled", from: StatusUnknown, to: StatusCancelled},
		{name: "unknown cannot be confirmed", from: StatusUnknown, to: StatusConfirmed, wantErr: e.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.CheckTransition(tt.to, tt.tracking)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	assert.Equal(t, StatusPaid, ParseOrderStatus("PAID"))
	assert.Equal(t, StatusUnknown, ParseOrderStatus("AWAITING_PICKUP"))
	assert.Equal(t, StatusUnknown, ParseOrderStatus(""))
}

func TestParseRequestedStatus(t *testing.T) {
	st, err := ParseRequestedStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	for _, raw := range []string{"PENDING", "UNKNOWN", "shipped", "LOST"} {
		_, err := ParseRequestedStatus(raw)
		assert.ErrorIs(t, err, e.ErrInvalidStatus, raw)
	}
}

func TestIsPaidOrLater(t *testing.T) {
	assert.False(t, StatusPending.IsPaidOrLater())
	assert.True(t, StatusPaid.IsPaidOrLater())
	assert.True(t, StatusShipped.IsPaidOrLater())
	assert.True(t, StatusDelivered.IsPaidOrLater())
	assert.False(t, StatusCancelled.IsPaidOrLater())
	assert.False(t, StatusCODPending.IsPaidOrLater())
}
