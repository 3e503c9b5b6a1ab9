package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	bidding "haul-bidding/internal/biddingService"
	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/models"
	"haul-bidding/internal/pricing"
	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

var (
	now       = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	bookingID = "5b0f7c9e-3d51-4c1e-9a54-2f3f0c6b8e11"
	bidID     = "0e8a2d1c-7f44-4b6a-8c3e-91d2b5a7f604"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// asCaller stands in for the identity middleware.
func asCaller(userID string, role helpers.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		helpers.SetIdentity(c, helpers.Identity{UserID: userID, Role: role})
	}
}

func newRouter(t *testing.T, userID string, role helpers.Role) (*gin.Engine, *MockBiddingServiceInterface, *MockJobFeedInterface) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := NewMockBiddingServiceInterface(ctrl)
	feed := NewMockJobFeedInterface(ctrl)
	h := NewBiddingHandler(svc, feed)

	router := gin.New()
	router.Use(asCaller(userID, role))
	router.POST("/bookings", h.CreateBookingHandler)
	router.GET("/bookings/:booking_id", h.GetBookingHandler)
	router.GET("/bookings/:booking_id/bids", h.GetBidsHandler)
	router.POST("/bookings/:booking_id/bids", h.PlaceBidHandler)
	router.POST("/bookings/:booking_id/award", h.AwardHandler)
	router.POST("/bookings/:booking_id/advance", h.AdvanceHandler)
	router.POST("/bookings/:booking_id/cancel", h.CancelHandler)
	router.GET("/bookings/:booking_id/events", h.BookingEventsHandler)
	router.GET("/jobs", h.GetJobsHandler)
	router.GET("/jobs/events", h.JobEventsHandler)
	router.GET("/drivers/:driver_id/bids", h.GetDriverBidsHandler)
	router.GET("/customers/:customer_id/bookings", h.GetCustomerBookingsHandler)
	router.GET("/pricing/estimate", h.EstimateHandler)
	return router, svc, feed
}

func do(t *testing.T, router http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Header().Get("Content-Type") != "text/event-stream" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func openBooking() models.Booking {
	return models.Booking{
		BookingID:      bookingID,
		CustomerID:     "cust1",
		Category:       models.CategoryFurniture,
		SuggestedPrice: 320,
		Status:         models.StatusAcceptingBids,
		BiddingEndsAt:  now.Add(5 * time.Minute),
		Version:        1,
		CreatedAt:      now,
	}
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	t.Parallel()

	valid := helpers.PlaceBidRequest{Amount: 250, EtaMinutes: 30, HelperCount: 1, Message: "van ready"}
	wantInput := bidding.SubmitBidInput{BookingID: bookingID, DriverID: "drv1", Amount: 250, EtaMinutes: 30, HelperCount: 1, Message: "van ready"}

	tests := []struct {
		name           string
		path           string
		requestBody    any
		mockSetup      func(svc *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, resp map[string]any)
	}{
		{
			name:        "success_valid_bid",
			requestBody: valid,
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().SubmitBid(gomock.Any(), wantInput).Return(models.Bid{
					BidID:       uuid.NewString(),
					BookingID:   bookingID,
					DriverID:    "drv1",
					Amount:      250,
					EtaMinutes:  30,
					HelperCount: 1,
					Status:      models.BidPending,
					CreatedAt:   now,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid recorded successfully",
			validateData: func(t *testing.T, resp map[string]any) {
				data := resp["data"].(map[string]any)
				_, parseErr := uuid.Parse(data["bid_id"].(string))
				require.NoError(t, parseErr, "BidID should be a valid UUID")
				require.Equal(t, 250.0, data["amount"])
				require.Equal(t, 37.5, data["platform_fee"])
				require.Equal(t, 212.5, data["driver_earnings"])
				require.Equal(t, "2026-03-01T12:00:00Z", data["created_at"])
			},
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "zero_amount",
			requestBody:    helpers.PlaceBidRequest{EtaMinutes: 30},
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "malformed_booking_id",
			path:           "/bookings/not-a-uuid/bids",
			requestBody:    valid,
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request",
		},
		{
			name:        "below_minimum",
			requestBody: helpers.PlaceBidRequest{Amount: 50, EtaMinutes: 30},
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().SubmitBid(gomock.Any(), gomock.Any()).Return(models.Bid{},
					bidding.ValidationErrors{{Field: "Amount", Message: "minimum bid is 100"}})
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request",
			validateData: func(t *testing.T, resp map[string]any) {
				details := resp["details"].([]any)
				require.Len(t, details, 1)
				require.Equal(t, "Amount", details[0].(map[string]any)["field"])
			},
		},
		{
			name:        "duplicate_bid",
			requestBody: valid,
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().SubmitBid(gomock.Any(), wantInput).Return(models.Bid{}, biddingerrors.ErrDuplicateBid)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "you already bid on this job",
		},
		{
			name:        "window_closed",
			requestBody: valid,
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().SubmitBid(gomock.Any(), wantInput).Return(models.Bid{}, biddingerrors.ErrWindowClosed)
			},
			expectedStatus: http.StatusGone,
			expectedMsg:    "this opportunity has expired",
		},
		{
			name:        "store_unavailable",
			requestBody: valid,
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().SubmitBid(gomock.Any(), wantInput).Return(models.Bid{}, biddingerrors.ErrTransient)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "temporarily unavailable",
		},
		{
			name:        "service_generic_error",
			requestBody: valid,
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().SubmitBid(gomock.Any(), wantInput).Return(models.Bid{}, errors.New("pq: relation bids does not exist"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
			validateData: func(t *testing.T, resp map[string]any) {
				require.NotContains(t, resp["error"], "pq:")
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, svc, _ := newRouter(t, "drv1", helpers.RoleDriver)
			tc.mockSetup(svc)

			path := tc.path
			if path == "" {
				path = "/bookings/" + bookingID + "/bids"
			}
			w, resp := do(t, router, http.MethodPost, path, tc.requestBody)

			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if tc.validateData != nil {
				tc.validateData(t, resp)
			}
		})
	}
}

// Test AwardHandler
func TestAwardHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(svc *MockBiddingServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: helpers.AwardRequest{BidID: bidID},
			mockSetup: func(svc *MockBiddingServiceInterface) {
				awarded := openBooking()
				awarded.Status = models.StatusAwarded
				svc.EXPECT().Award(gomock.Any(), "cust1", bookingID, bidID).Return(models.AwardResult{
					Booking:  awarded,
					Accepted: models.Bid{BidID: bidID, BookingID: bookingID, DriverID: "drv1", Amount: 280, Status: models.BidAccepted},
					Rejected: []models.Bid{{BidID: "x"}, {BidID: "y"}},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bid awarded successfully",
		},
		{
			name:           "missing_bid_id",
			requestBody:    map[string]any{},
			mockSetup:      func(*MockBiddingServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "lost_race",
			requestBody: helpers.AwardRequest{BidID: bidID},
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().Award(gomock.Any(), "cust1", bookingID, bidID).Return(models.AwardResult{}, biddingerrors.ErrConflict)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid may have expired, refresh booking",
		},
		{
			name:        "not_the_owner",
			requestBody: helpers.AwardRequest{BidID: bidID},
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().Award(gomock.Any(), "cust1", bookingID, bidID).Return(models.AwardResult{}, biddingerrors.ErrForbidden)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "not allowed",
		},
		{
			name:        "unknown_booking",
			requestBody: helpers.AwardRequest{BidID: bidID},
			mockSetup: func(svc *MockBiddingServiceInterface) {
				svc.EXPECT().Award(gomock.Any(), "cust1", bookingID, bidID).Return(models.AwardResult{}, biddingerrors.ErrBookingNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "booking not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, svc, _ := newRouter(t, "cust1", helpers.RoleCustomer)
			tc.mockSetup(svc)

			w, resp := do(t, router, http.MethodPost, "/bookings/"+bookingID+"/award", tc.requestBody)
			require.Equal(t, tc.expectedStatus, w.Code)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if w.Code == http.StatusOK {
				data := resp["data"].(map[string]any)
				require.Equal(t, string(models.StatusAwarded), data["booking"].(map[string]any)["status"])
				require.Equal(t, bidID, data["accepted_bid"].(map[string]any)["bid_id"])
				require.Equal(t, 2.0, data["rejected_count"])
			}
		})
	}
}

func TestCreateBookingHandler(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "cust1", helpers.RoleCustomer)

		req := helpers.CreateBookingRequest{
			Category:    models.CategoryAppliances,
			Description: "washing machine",
			Pickup:      models.Location{Address: "A 1", Latitude: 52.52, Longitude: 13.40, Floor: 2},
			Dropoff:     models.Location{Address: "B 2", Latitude: 52.50, Longitude: 13.45},
			WeightKg:    80,
		}
		svc.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, in bidding.CreateBookingInput) (models.Booking, error) {
			require.Equal(t, "cust1", in.CustomerID)
			require.Equal(t, req.Pickup, in.Pickup)
			require.Nil(t, in.DistanceKm)
			return openBooking(), nil
		})

		w, resp := do(t, router, http.MethodPost, "/bookings", req)
		require.Equal(t, http.StatusCreated, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, bookingID, data["booking_id"])
		require.Equal(t, string(models.StatusAcceptingBids), data["status"])
	})

	t.Run("missing_category", func(t *testing.T) {
		t.Parallel()
		router, _, _ := newRouter(t, "cust1", helpers.RoleCustomer)

		w, resp := do(t, router, http.MethodPost, "/bookings", map[string]any{"description": "sofa"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "invalid request payload", resp["message"])
	})
}

func TestLifecycleHandlers(t *testing.T) {
	t.Parallel()

	t.Run("advance", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "drv1", helpers.RoleDriver)
		picked := openBooking()
		picked.Status = models.StatusPickedUp
		svc.EXPECT().Advance(gomock.Any(), "drv1", bookingID, models.StatusPickedUp).Return(picked, nil)

		w, resp := do(t, router, http.MethodPost, "/bookings/"+bookingID+"/advance", helpers.AdvanceRequest{Status: models.StatusPickedUp})
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, string(models.StatusPickedUp), resp["data"].(map[string]any)["status"])
	})

	t.Run("advance_out_of_order", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "drv1", helpers.RoleDriver)
		svc.EXPECT().Advance(gomock.Any(), "drv1", bookingID, models.StatusDelivered).Return(models.Booking{}, biddingerrors.ErrInvalidTransition)

		w, _ := do(t, router, http.MethodPost, "/bookings/"+bookingID+"/advance", helpers.AdvanceRequest{Status: models.StatusDelivered})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("cancel", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "cust1", helpers.RoleCustomer)
		cancelled := openBooking()
		cancelled.Status = models.StatusCancelled
		svc.EXPECT().Cancel(gomock.Any(), "cust1", bookingID).Return(cancelled, nil)

		w, resp := do(t, router, http.MethodPost, "/bookings/"+bookingID+"/cancel", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "booking cancelled", resp["message"])
	})
}

func TestReadHandlers(t *testing.T) {
	t.Parallel()

	t.Run("pending_bids_lowest_first", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "drv9", helpers.RoleDriver)
		svc.EXPECT().ListPending(gomock.Any(), bookingID).Return([]models.Bid{
			{BidID: "a", Amount: 200, CreatedAt: now},
			{BidID: "b", Amount: 240, CreatedAt: now},
		}, nil)

		w, resp := do(t, router, http.MethodGet, "/bookings/"+bookingID+"/bids", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].([]any)
		require.Len(t, data, 2)
		require.Equal(t, "a", data[0].(map[string]any)["bid_id"])
	})

	t.Run("booking_not_found", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "cust1", helpers.RoleCustomer)
		svc.EXPECT().GetBooking(gomock.Any(), bookingID).Return(models.Booking{}, biddingerrors.ErrBookingNotFound)

		w, resp := do(t, router, http.MethodGet, "/bookings/"+bookingID, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "booking not found", resp["message"])
	})

	t.Run("own_driver_history", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "drv1", helpers.RoleDriver)
		svc.EXPECT().ListDriverBids(gomock.Any(), "drv1").Return(nil, nil)

		w, resp := do(t, router, http.MethodGet, "/drivers/drv1/bids", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, []any{}, resp["data"])
	})

	t.Run("someone_elses_history", func(t *testing.T) {
		t.Parallel()
		router, _, _ := newRouter(t, "drv1", helpers.RoleDriver)

		w, _ := do(t, router, http.MethodGet, "/drivers/drv2/bids", nil)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("customer_history", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "cust1", helpers.RoleCustomer)
		svc.EXPECT().ListCustomerBookings(gomock.Any(), "cust1").Return([]models.Booking{openBooking()}, nil)

		w, resp := do(t, router, http.MethodGet, "/customers/cust1/bookings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, resp["data"], 1)
	})
}

func TestGetJobsHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		query          string
		mockSetup      func(feed *MockJobFeedInterface)
		expectedStatus int
	}{
		{
			name:  "sorted_page",
			query: "?sort=competition&limit=5",
			mockSetup: func(feed *MockJobFeedInterface) {
				low := 180.0
				feed.EXPECT().ListOpenJobs(gomock.Any(), models.SortCompetition, 5).Return([]models.Job{
					{Booking: openBooking(), BidCount: 2, LowestBid: &low},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "limit_out_of_range",
			query:          "?limit=1000",
			mockSetup:      func(*MockJobFeedInterface) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "unknown_sort",
			query: "?sort=distance",
			mockSetup: func(feed *MockJobFeedInterface) {
				feed.EXPECT().ListOpenJobs(gomock.Any(), models.SortOption("distance"), 0).Return(nil, biddingerrors.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			router, _, feed := newRouter(t, "drv1", helpers.RoleDriver)
			tc.mockSetup(feed)

			w, resp := do(t, router, http.MethodGet, "/jobs"+tc.query, nil)
			require.Equal(t, tc.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				job := resp["data"].([]any)[0].(map[string]any)
				require.Equal(t, 2.0, job["bid_count"])
				require.Equal(t, 180.0, job["lowest_bid"])
			}
		})
	}
}

func TestEstimateHandler(t *testing.T) {
	t.Parallel()

	t.Run("quote", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newRouter(t, "", "")
		svc.EXPECT().Quote(pricing.Input{Category: models.CategoryAppliances, DistanceKm: 3, MaxFloor: 1, HelperRequested: true}).
			Return(bidding.Quote{SuggestedPrice: 470, RangeLow: 376, RangeHigh: 564})

		w, resp := do(t, router, http.MethodGet, "/pricing/estimate?category=appliances&distance_km=3&floor=1&helper=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, 470.0, resp["data"].(map[string]any)["suggested_price"])
	})

	t.Run("unknown_category", func(t *testing.T) {
		t.Parallel()
		router, _, _ := newRouter(t, "", "")

		w, _ := do(t, router, http.MethodGet, "/pricing/estimate?category=pianos", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative_distance", func(t *testing.T) {
		t.Parallel()
		router, _, _ := newRouter(t, "", "")

		w, _ := do(t, router, http.MethodGet, "/pricing/estimate?distance_km=-4", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
