package integrationtests

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	bidding "haul-bidding/internal/biddingService"
	"haul-bidding/internal/clock"
	"haul-bidding/internal/jobfeed"
	"haul-bidding/internal/models"
	"haul-bidding/internal/realtime"
	"haul-bidding/internal/repository"
	"haul-bidding/internal/server"
	"haul-bidding/internal/sweeper"
	"haul-bidding/pkg/client"
	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// testEnv is the whole application over the in-memory store, served by a
// real HTTP server and driven through the Go client.
type testEnv struct {
	URL     string
	Clock   *clock.FakeClock
	Repo    *repository.MemoryRepo
	Hub     *realtime.Hub
	Sweeper *sweeper.Sweeper
}

// SetupTestServer starts the application; everything is torn down with t.
func SetupTestServer(t *testing.T) *testEnv {
	t.Helper()

	clk := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo := repository.NewMemoryRepo()
	hub := realtime.NewHub(64)
	svc := bidding.NewBiddingService(repo, hub, clk, bidding.DefaultSettings())
	feed := jobfeed.New(repo, hub, clk)

	srv := httptest.NewServer(server.SetupRouter(svc, feed))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	return &testEnv{
		URL:     srv.URL,
		Clock:   clk,
		Repo:    repo,
		Hub:     hub,
		Sweeper: sweeper.New(svc, clk, sweeper.Options{AutoAward: true}),
	}
}

func (e *testEnv) Customer(id string) *client.Client {
	return e.client(id, helpers.RoleCustomer)
}

func (e *testEnv) Driver(id string) *client.Client {
	return e.client(id, helpers.RoleDriver)
}

func (e *testEnv) client(id string, role helpers.Role) *client.Client {
	c := client.New(e.URL, id, role)
	c.Transport().BaseBackoff = time.Millisecond
	return c
}

func sofaRequest() helpers.CreateBookingRequest {
	distance := 12.0
	return helpers.CreateBookingRequest{
		Category:    models.CategoryFurniture,
		Description: "three-seat sofa",
		Pickup:      models.Location{Address: "Pickup St 1", Latitude: 52.52, Longitude: 13.40, Floor: 3},
		Dropoff:     models.Location{Address: "Dropoff Ave 9", Latitude: 52.48, Longitude: 13.35, Floor: 1, ElevatorAvailable: true},
		DistanceKm:  &distance,
	}
}

// CreateOpenBooking creates a booking for customer and returns it.
func (e *testEnv) CreateOpenBooking(t *testing.T, customer string) models.Booking {
	t.Helper()
	b, err := e.Customer(customer).CreateBooking(context.Background(), sofaRequest())
	require.NoError(t, err)
	require.Equal(t, models.StatusAcceptingBids, b.Status)
	return b
}
