package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"haul-bidding/internal/models"
)

func openRoom() *RoomView {
	v := NewRoomView()
	v.Reset(RoomSnapshot{
		Booking: models.Booking{BookingID: "b1", Status: models.StatusAcceptingBids, Version: 1},
		Pending: []models.Bid{{BidID: "d1", BookingID: "b1", Amount: 300, Status: models.BidPending, CreatedAt: t0}},
	})
	return v
}

func TestRoomView_DedupesAndOrders(t *testing.T) {
	t.Parallel()

	v := openRoom()
	d2 := bidEvent("b1", "d2", 250, 2)
	require.True(t, v.Apply(d2))
	require.False(t, v.Apply(d2), "redelivery must not add a second entry")
	require.True(t, v.Apply(bidEvent("b1", "d3", 280, 3)))
	require.False(t, v.Apply(bidEvent("other", "d9", 10, 9)))

	snap := v.Snapshot()
	ids := []string{}
	for _, b := range snap.Pending {
		ids = append(ids, b.BidID)
	}
	require.Equal(t, []string{"d2", "d3", "d1"}, ids)
	require.Equal(t, int64(3), snap.Booking.Version)

	lowest, ok := v.Lowest()
	require.True(t, ok)
	require.Equal(t, 250.0, lowest.Amount)

	// a lower bid delivered late still becomes the head
	require.True(t, v.Apply(bidEvent("b1", "d4", 120, 2)))
	lowest, _ = v.Lowest()
	require.Equal(t, "d4", lowest.BidID)
}

func TestRoomView_AwardClearsPendingAndIgnoresStaleState(t *testing.T) {
	t.Parallel()

	v := openRoom()
	require.True(t, v.Apply(bidEvent("b1", "d2", 250, 2)))

	bidID, price := "d2", 250.0
	awarded := models.Booking{BookingID: "b1", Status: models.StatusAwarded, Version: 3, AcceptedBidID: &bidID, FinalPrice: &price}
	require.True(t, v.Apply(BookingEvent(OpUpdate, awarded, t0)))
	require.Empty(t, v.Snapshot().Pending)

	// replays from before the award change nothing
	stale := models.Booking{BookingID: "b1", Status: models.StatusAcceptingBids, Version: 2}
	require.False(t, v.Apply(BookingEvent(OpUpdate, stale, t0)))
	require.False(t, v.Apply(bidEvent("b1", "d2", 250, 2)))
	require.False(t, v.Apply(bidEvent("b1", "d7", 200, 2)))

	snap := v.Snapshot()
	require.Equal(t, models.StatusAwarded, snap.Booking.Status)
	_, ok := v.Lowest()
	require.False(t, ok)
}

func TestRoomView_RejectedBidLeaves(t *testing.T) {
	t.Parallel()

	v := openRoom()
	rejected := models.Bid{BidID: "d1", BookingID: "b1", Amount: 300, Status: models.BidRejected}
	ev := BidEvent(OpUpdate, rejected, models.Booking{BookingID: "b1", Status: models.StatusCancelled, Version: 2}, t0)
	require.True(t, v.Apply(ev))
	require.False(t, v.Apply(ev))
	require.Empty(t, v.Snapshot().Pending)
}
