package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	bidding "haul-bidding/internal/biddingService"
	"haul-bidding/internal/clock"
	"haul-bidding/internal/jobfeed"
	"haul-bidding/internal/models"
	"haul-bidding/internal/realtime"
	repository "haul-bidding/internal/repository"
)

func newService(b *testing.B) (*bidding.BiddingService, *repository.MemoryRepo, *realtime.Hub) {
	b.Helper()
	repo := repository.NewMemoryRepo()
	hub := realtime.NewHub(256)
	b.Cleanup(hub.Close)
	settings := bidding.DefaultSettings()
	settings.BiddingWindow = time.Hour
	return bidding.NewBiddingService(repo, hub, clock.Real(), settings), repo, hub
}

func createBookings(b *testing.B, svc *bidding.BiddingService, n int) []string {
	b.Helper()
	ids := make([]string, n)
	for i := range n {
		distance := float64(1 + i%40)
		booking, err := svc.CreateBooking(context.Background(), bidding.CreateBookingInput{
			CustomerID:  fmt.Sprintf("cust_%d", i),
			Category:    models.CategoryFurniture,
			Description: "benchmark booking",
			Pickup:      models.Location{Address: "A", Latitude: 52.5, Longitude: 13.4, Floor: i % 5},
			Dropoff:     models.Location{Address: "B", Latitude: 52.4, Longitude: 13.3},
			DistanceKm:  &distance,
		})
		if err != nil {
			b.Fatalf("failed to create booking: %v", err)
		}
		ids[i] = booking.BookingID
	}
	return ids
}

func bid(bookingID, driverID string, amount float64) bidding.SubmitBidInput {
	return bidding.SubmitBidInput{BookingID: bookingID, DriverID: driverID, Amount: amount, EtaMinutes: 30}
}

// Benchmark 1: SubmitBid - one booking per bid (Low Contention - Micro Benchmark)
func Benchmark_SubmitBid_Isolated(b *testing.B) {
	svc, _, _ := newService(b)
	ids := createBookings(b, svc, b.N)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		amount := float64(150 + rand.Intn(300))
		if _, err := svc.SubmitBid(ctx, bid(ids[i], fmt.Sprintf("drv_%d", i), amount)); err != nil {
			b.Fatalf("failed to submit bid: %v", err)
		}
	}
}

// Benchmark 2: SubmitBid - Shared Booking (High Contention - Concurrency Benchmark)
func Benchmark_SubmitBid_ConcurrentSharedBooking(b *testing.B) {
	svc, _, _ := newService(b)
	bookingID := createBookings(b, svc, 1)[0]
	ctx := context.Background()

	var driverSeq int64
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			driver := fmt.Sprintf("drv_parallel_%d", atomic.AddInt64(&driverSeq, 1))
			_, _ = svc.SubmitBid(ctx, bid(bookingID, driver, float64(150+rnd.Intn(300))))
		}
	})
}

// Benchmark 3: SubmitBid with a live room subscriber receiving every event.
func Benchmark_SubmitBid_WithSubscriber(b *testing.B) {
	svc, _, hub := newService(b)
	bookingID := createBookings(b, svc, 1)[0]
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := hub.Subscribe(ctx, realtime.Filter{BookingID: bookingID})
	if err != nil {
		b.Fatalf("failed to subscribe: %v", err)
	}
	defer sub.Close()
	go func() {
		for range sub.Events() {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := svc.SubmitBid(ctx, bid(bookingID, fmt.Sprintf("drv_%d", i), float64(150+i%300))); err != nil {
			b.Fatalf("failed to submit bid: %v", err)
		}
	}
}

// Benchmark 4: Award - every goroutine races for the same bookings; one award
// per booking succeeds.
func Benchmark_Award_Contention(b *testing.B) {
	const bidsPerBooking = 8
	svc, _, _ := newService(b)
	ids := createBookings(b, svc, b.N)
	ctx := context.Background()

	bidIDs := make([][]string, len(ids))
	for i, id := range ids {
		for d := range bidsPerBooking {
			placed, err := svc.SubmitBid(ctx, bid(id, fmt.Sprintf("drv_%d", d), float64(200+d)))
			if err != nil {
				b.Fatalf("failed to seed bid: %v", err)
			}
			bidIDs[i] = append(bidIDs[i], placed.BidID)
		}
	}

	var next, wins int64
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			i := int(atomic.AddInt64(&next, 1)-1) % len(ids)
			customer := fmt.Sprintf("cust_%d", i)
			if _, err := svc.Award(ctx, customer, ids[i], bidIDs[i][rnd.Intn(bidsPerBooking)]); err == nil {
				atomic.AddInt64(&wins, 1)
			}
		}
	})

	b.StopTimer()
	if wins > int64(len(ids)) {
		b.Fatalf("more awards (%d) than bookings (%d)", wins, len(ids))
	}
}

// Benchmark 5: ListOpenJobs over a populated board (Read - Single Threaded)
func Benchmark_ListOpenJobs(b *testing.B) {
	svc, repo, hub := newService(b)
	feed := jobfeed.New(repo, hub, clock.Real())

	ids := createBookings(b, svc, 500)
	ctx := context.Background()
	for i, id := range ids {
		for d := range i % 6 {
			if _, err := svc.SubmitBid(ctx, bid(id, fmt.Sprintf("drv_%d", d), float64(150+10*d))); err != nil {
				b.Fatalf("failed to seed bid: %v", err)
			}
		}
	}

	for _, sort := range []models.SortOption{models.SortNewest, models.SortPrice, models.SortCompetition} {
		b.Run(string(sort), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := feed.ListOpenJobs(ctx, sort, jobfeed.DefaultLimit); err != nil {
					b.Fatalf("failed to list jobs: %v", err)
				}
			}
		})
	}
}
