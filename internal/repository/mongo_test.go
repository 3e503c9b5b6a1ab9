package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Needs a replica set, e.g. HAUL_TEST_MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0
func TestMongoRepo(t *testing.T) {
	uri := os.Getenv("HAUL_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("HAUL_TEST_MONGO_URI not set")
	}
	t.Parallel()

	ctx := context.Background()
	repo, err := NewMongoRepo(ctx, uri, "haul_test_"+uniq("db")[3:], 10*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.bookings.Database().Drop(ctx)
		_ = repo.Close(ctx)
	})

	runAuctionDBSuite(t, func(t *testing.T) AuctionDB { return repo })
}
