package handler

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/models"
	"haul-bidding/internal/realtime"
	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

// Server-sent event names.
const (
	eventRoom   = "room"
	eventJobs   = "jobs"
	eventResync = "resync"
)

func startStream(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

func send(c *gin.Context, name string, data any) {
	c.SSEvent(name, data)
	c.Writer.Flush()
}

// BookingEventsHandler handles GET /bookings/:booking_id/events. It sends the
// whole room on connect and again after every change, so a client only ever
// replaces its state. After a gap it sends "resync" and a fresh room.
func (h *BiddingHandler) BookingEventsHandler(c *gin.Context) {
	bookingID, ok := bookingParam(c, "BookingEventsHandler")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.service.GetBooking(ctx, bookingID); err != nil {
		helpers.RespondError(c, "BookingEventsHandler", err, map[string]any{"booking_id": bookingID})
		return
	}

	startStream(c)
	view := realtime.NewRoomView()
	frames := 0
	for u, err := range h.service.WatchRoom(ctx, bookingID) {
		if err != nil {
			if errors.Is(err, realtime.ErrClosed) {
				break
			}
			utils.Warn("BookingEventsHandler: stream interrupted", map[string]any{
				"booking_id": bookingID,
				"error":      err.Error(),
			})
			send(c, eventResync, gin.H{"reason": err.Error()})
			continue
		}

		if u.Resync {
			view.Reset(u.Snapshot)
		} else if !view.Apply(u.Event) {
			continue
		}
		send(c, eventRoom, roomResponse(view))
		frames++
	}

	helpers.LogSuccess("BookingEventsHandler", "room stream closed", map[string]any{
		"booking_id": bookingID,
		"frames":     frames,
	})
}

func roomResponse(v *realtime.RoomView) helpers.RoomResponse {
	snap := v.Snapshot()
	resp := helpers.RoomResponse{
		Booking: snap.Booking,
		Pending: helpers.NewBidResponses(snap.Pending),
	}
	if low, ok := v.Lowest(); ok {
		resp.LowestBid = &low.Amount
	}
	return resp
}

// JobEventsHandler handles GET /jobs/events. Every relevant change triggers a
// fresh page of the feed rather than a patch.
func (h *BiddingHandler) JobEventsHandler(c *gin.Context) {
	var q helpers.JobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		helpers.HandleBindError(c, "JobEventsHandler", err)
		return
	}
	if q.Sort != "" && !q.Sort.Valid() {
		helpers.RespondError(c, "JobEventsHandler", fmt.Errorf("%w - unknown sort %q", biddingerrors.ErrValidation, q.Sort), nil)
		return
	}
	ctx := c.Request.Context()

	startStream(c)
	for u, err := range h.feed.Watch(ctx, q.Sort, q.Limit) {
		if err != nil {
			if errors.Is(err, realtime.ErrClosed) {
				break
			}
			send(c, eventResync, gin.H{"reason": err.Error()})
			continue
		}

		jobs := u.Snapshot
		if !u.Resync {
			if !affectsFeed(u.Event) {
				continue
			}
			jobs, err = h.feed.ListOpenJobs(ctx, q.Sort, q.Limit)
			if err != nil {
				utils.Warn("JobEventsHandler: failed to refresh feed", map[string]any{"error": err.Error()})
				continue
			}
		}
		if jobs == nil {
			jobs = []models.Job{}
		}
		send(c, eventJobs, jobs)
	}
}

// affectsFeed drops bid updates, which only happen once a booking has left
// the feed.
func affectsFeed(ev realtime.ChangeEvent) bool {
	return ev.Table == realtime.TableBookings || ev.Op == realtime.OpInsert
}
