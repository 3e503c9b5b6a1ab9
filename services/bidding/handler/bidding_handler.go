package handler

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/gin-gonic/gin"

	bidding "haul-bidding/internal/biddingService"
	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/models"
	"haul-bidding/internal/pricing"
	"haul-bidding/internal/realtime"
	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_handler.go -package=handler

type BiddingServiceInterface interface {
	CreateBooking(ctx context.Context, in bidding.CreateBookingInput) (models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (models.Booking, error)
	ListCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error)
	SubmitBid(ctx context.Context, in bidding.SubmitBidInput) (models.Bid, error)
	ListPending(ctx context.Context, bookingID string) ([]models.Bid, error)
	ListDriverBids(ctx context.Context, driverID string) ([]models.Bid, error)
	Award(ctx context.Context, customerID, bookingID, bidID string) (models.AwardResult, error)
	Advance(ctx context.Context, driverID, bookingID string, to models.BookingStatus) (models.Booking, error)
	Cancel(ctx context.Context, customerID, bookingID string) (models.Booking, error)
	Quote(in pricing.Input) bidding.Quote
	WatchRoom(ctx context.Context, bookingID string) iter.Seq2[realtime.Update[realtime.RoomSnapshot], error]
}

type JobFeedInterface interface {
	ListOpenJobs(ctx context.Context, sort models.SortOption, limit int) ([]models.Job, error)
	Watch(ctx context.Context, sort models.SortOption, limit int) iter.Seq2[realtime.Update[[]models.Job], error]
}

type BiddingHandler struct {
	service BiddingServiceInterface
	feed    JobFeedInterface
}

func NewBiddingHandler(service BiddingServiceInterface, feed JobFeedInterface) *BiddingHandler {
	return &BiddingHandler{service: service, feed: feed}
}

// bookingParam reads :booking_id, answering 400 itself when it is malformed.
func bookingParam(c *gin.Context, handlerName string) (string, bool) {
	id := c.Param("booking_id")
	if !utils.ValidID(id) {
		helpers.RespondError(c, handlerName, fmt.Errorf("%w - malformed booking id %q", biddingerrors.ErrValidation, id), nil)
		return "", false
	}
	return id, true
}

// caller returns the identity set by the identity middleware.
func caller(c *gin.Context) helpers.Identity {
	id, _ := helpers.CurrentIdentity(c)
	return id
}

// CreateBookingHandler handles POST /bookings
func (h *BiddingHandler) CreateBookingHandler(c *gin.Context) {
	var req helpers.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateBookingHandler", err)
		return
	}
	customer := caller(c)

	booking, err := h.service.CreateBooking(c.Request.Context(), bidding.CreateBookingInput{
		CustomerID:      customer.UserID,
		Category:        req.Category,
		Description:     req.Description,
		Pickup:          req.Pickup,
		Dropoff:         req.Dropoff,
		DistanceKm:      req.DistanceKm,
		WeightKg:        req.WeightKg,
		HelperRequested: req.HelperRequested,
	})
	if err != nil {
		helpers.RespondError(c, "CreateBookingHandler", err, map[string]any{"customer_id": customer.UserID})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, booking, "booking created successfully")
	helpers.LogSuccess("CreateBookingHandler", "booking created successfully", map[string]any{
		"booking_id":      booking.BookingID,
		"customer_id":     booking.CustomerID,
		"suggested_price": booking.SuggestedPrice,
		"bidding_ends_at": booking.BiddingEndsAt,
	})
}

// GetBookingHandler handles GET /bookings/:booking_id
func (h *BiddingHandler) GetBookingHandler(c *gin.Context) {
	bookingID, ok := bookingParam(c, "GetBookingHandler")
	if !ok {
		return
	}
	booking, err := h.service.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		helpers.RespondError(c, "GetBookingHandler", err, map[string]any{"booking_id": bookingID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, booking, "booking retrieved successfully")
}

// GetBidsHandler handles GET /bookings/:booking_id/bids
func (h *BiddingHandler) GetBidsHandler(c *gin.Context) {
	bookingID, ok := bookingParam(c, "GetBidsHandler")
	if !ok {
		return
	}
	bids, err := h.service.ListPending(c.Request.Context(), bookingID)
	if err != nil {
		helpers.RespondError(c, "GetBidsHandler", err, map[string]any{"booking_id": bookingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsHandler", "bids retrieved successfully", map[string]any{
		"booking_id": bookingID,
		"count":      len(bids),
	})
}

// PlaceBidHandler handles POST /bookings/:booking_id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	bookingID, ok := bookingParam(c, "PlaceBidHandler")
	if !ok {
		return
	}
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}
	driver := caller(c)

	bid, err := h.service.SubmitBid(c.Request.Context(), bidding.SubmitBidInput{
		BookingID:   bookingID,
		DriverID:    driver.UserID,
		Amount:      req.Amount,
		EtaMinutes:  req.EtaMinutes,
		HelperCount: req.HelperCount,
		Message:     req.Message,
	})
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"booking_id": bookingID,
			"driver_id":  driver.UserID,
			"amount":     req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"booking_id": bid.BookingID,
		"driver_id":  bid.DriverID,
		"amount":     bid.Amount,
	})
}

// AwardHandler handles POST /bookings/:booking_id/award
func (h *BiddingHandler) AwardHandler(c *gin.Context) {
	bookingID, ok := bookingParam(c, "AwardHandler")
	if !ok {
		return
	}
	var req helpers.AwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AwardHandler", err)
		return
	}
	customer := caller(c)

	res, err := h.service.Award(c.Request.Context(), customer.UserID, bookingID, req.BidID)
	if err != nil {
		helpers.RespondError(c, "AwardHandler", err, map[string]any{
			"booking_id":  bookingID,
			"bid_id":      req.BidID,
			"customer_id": customer.UserID,
		})
		return
	}

	resp := helpers.AwardResponse{
		Booking:     res.Booking,
		AcceptedBid: helpers.NewBidResponse(res.Accepted),
		Rejected:    len(res.Rejected),
	}
	utils.JSONResponse(c, http.StatusOK, resp, "bid awarded successfully")
	helpers.LogSuccess("AwardHandler", "bid awarded successfully", map[string]any{
		"booking_id":  bookingID,
		"bid_id":      res.Accepted.BidID,
		"driver_id":   res.Accepted.DriverID,
		"final_price": res.Accepted.Amount,
		"rejected":    len(res.Rejected),
	})
}

// AdvanceHandler handles POST /bookings/:booking_id/advance
func (h *BiddingHandler) AdvanceHandler(c *gin.Context) {
	bookingID, ok := bookingParam(c, "AdvanceHandler")
	if !ok {
		return
	}
	var req helpers.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "AdvanceHandler", err)
		return
	}
	driver := caller(c)

	booking, err := h.service.Advance(c.Request.Context(), driver.UserID, bookingID, req.Status)
	if err != nil {
		helpers.RespondError(c, "AdvanceHandler", err, map[string]any{
			"booking_id": bookingID,
			"driver_id":  driver.UserID,
			"to":         req.Status,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, booking, "booking status updated")
	helpers.LogSuccess("AdvanceHandler", "booking status updated", map[string]any{
		"booking_id": bookingID,
		"status":     booking.Status,
	})
}

// CancelHandler handles POST /bookings/:booking_id/cancel
func (h *BiddingHandler) CancelHandler(c *gin.Context) {
	bookingID, ok := bookingParam(c, "CancelHandler")
	if !ok {
		return
	}
	customer := caller(c)

	booking, err := h.service.Cancel(c.Request.Context(), customer.UserID, bookingID)
	if err != nil {
		helpers.RespondError(c, "CancelHandler", err, map[string]any{
			"booking_id":  bookingID,
			"customer_id": customer.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, booking, "booking cancelled")
	helpers.LogSuccess("CancelHandler", "booking cancelled", map[string]any{"booking_id": bookingID})
}

// GetDriverBidsHandler handles GET /drivers/:driver_id/bids
func (h *BiddingHandler) GetDriverBidsHandler(c *gin.Context) {
	driverID := c.Param("driver_id")
	if caller(c).UserID != driverID {
		helpers.RespondError(c, "GetDriverBidsHandler", fmt.Errorf("%w - bid history of another driver", biddingerrors.ErrForbidden), nil)
		return
	}

	bids, err := h.service.ListDriverBids(c.Request.Context(), driverID)
	if err != nil {
		helpers.RespondError(c, "GetDriverBidsHandler", err, map[string]any{"driver_id": driverID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetDriverBidsHandler", "bids retrieved successfully", map[string]any{
		"driver_id": driverID,
		"count":     len(bids),
	})
}

// GetCustomerBookingsHandler handles GET /customers/:customer_id/bookings
func (h *BiddingHandler) GetCustomerBookingsHandler(c *gin.Context) {
	customerID := c.Param("customer_id")
	if caller(c).UserID != customerID {
		helpers.RespondError(c, "GetCustomerBookingsHandler", fmt.Errorf("%w - bookings of another customer", biddingerrors.ErrForbidden), nil)
		return
	}

	bookings, err := h.service.ListCustomerBookings(c.Request.Context(), customerID)
	if err != nil {
		helpers.RespondError(c, "GetCustomerBookingsHandler", err, map[string]any{"customer_id": customerID})
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	utils.JSONResponse(c, http.StatusOK, bookings, "bookings retrieved successfully")
	helpers.LogSuccess("GetCustomerBookingsHandler", "bookings retrieved successfully", map[string]any{
		"customer_id": customerID,
		"count":       len(bookings),
	})
}

// GetJobsHandler handles GET /jobs
func (h *BiddingHandler) GetJobsHandler(c *gin.Context) {
	var q helpers.JobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		helpers.HandleBindError(c, "GetJobsHandler", err)
		return
	}

	jobs, err := h.feed.ListOpenJobs(c.Request.Context(), q.Sort, q.Limit)
	if err != nil {
		helpers.RespondError(c, "GetJobsHandler", err, map[string]any{"sort": q.Sort})
		return
	}

	utils.JSONResponse(c, http.StatusOK, jobs, "jobs retrieved successfully")
}

// EstimateHandler handles GET /pricing/estimate
func (h *BiddingHandler) EstimateHandler(c *gin.Context) {
	var q helpers.EstimateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		helpers.HandleBindError(c, "EstimateHandler", err)
		return
	}
	if q.Category != "" && !q.Category.Valid() {
		helpers.RespondError(c, "EstimateHandler", fmt.Errorf("%w - unknown category %q", biddingerrors.ErrValidation, q.Category), nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, h.service.Quote(q.PricingInput()), "estimate calculated")
}
