package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"haul-bidding/internal/models"
	handler "haul-bidding/services/bidding/handler"
	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

const bookingPath = "/bookings/5b0f7c9e-3d51-4c1e-9a54-2f3f0c6b8e11"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRouterIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		path           string
		userID         string
		role           string
		body           string
		mockSetup      func(svc *handler.MockBiddingServiceInterface)
		expectedStatus int
	}{
		{
			name:           "health_is_public",
			method:         http.MethodGet,
			path:           "/health",
			mockSetup:      func(*handler.MockBiddingServiceInterface) {},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing_user",
			method:         http.MethodGet,
			path:           bookingPath,
			mockSetup:      func(*handler.MockBiddingServiceInterface) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "customer_cannot_bid",
			method:         http.MethodPost,
			path:           bookingPath + "/bids",
			userID:         "cust1",
			role:           "customer",
			body:           `{"amount":250,"eta_minutes":30}`,
			mockSetup:      func(*handler.MockBiddingServiceInterface) {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "driver_cannot_award",
			method:         http.MethodPost,
			path:           bookingPath + "/award",
			userID:         "drv1",
			role:           "driver",
			body:           `{"bid_id":"b1"}`,
			mockSetup:      func(*handler.MockBiddingServiceInterface) {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:   "role_header_is_case_insensitive",
			method: http.MethodGet,
			path:   bookingPath,
			userID: "drv1",
			role:   " Driver ",
			mockSetup: func(svc *handler.MockBiddingServiceInterface) {
				svc.EXPECT().GetBooking(gomock.Any(), gomock.Any()).Return(models.Booking{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "jobs_are_for_drivers",
			method:         http.MethodGet,
			path:           "/jobs",
			userID:         "cust1",
			role:           "customer",
			mockSetup:      func(*handler.MockBiddingServiceInterface) {},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			svc := handler.NewMockBiddingServiceInterface(ctrl)
			feed := handler.NewMockJobFeedInterface(ctrl)
			tc.mockSetup(svc)
			router := SetupRouter(svc, feed)

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.userID != "" {
				req.Header.Set(helpers.HeaderUserID, tc.userID)
			}
			if tc.role != "" {
				req.Header.Set(helpers.HeaderUserRole, tc.role)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}
