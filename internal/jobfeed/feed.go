// Package jobfeed is the driver-facing list of bookings that still accept bids.
package jobfeed

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"

	"haul-bidding/internal/biddingerrors"
	"haul-bidding/internal/clock"
	"haul-bidding/internal/models"
	"haul-bidding/internal/realtime"
	"haul-bidding/internal/repository"
)

// DefaultLimit caps a feed page when the caller does not ask for one.
const DefaultLimit = 50

// Feed answers job-board queries. Bid counts and lowest bids are derived per
// query and may trail the bidding rooms until the next change event.
type Feed struct {
	repo   repository.AuctionDB
	broker realtime.Broker
	clock  clock.Clock
}

func New(repo repository.AuctionDB, broker realtime.Broker, clk clock.Clock) *Feed {
	return &Feed{repo: repo, broker: broker, clock: clk}
}

// ListOpenJobs returns up to limit open jobs ordered by sort. An empty sort
// means newest first; limit <= 0 means DefaultLimit.
func (f *Feed) ListOpenJobs(ctx context.Context, sort models.SortOption, limit int) ([]models.Job, error) {
	if sort == "" {
		sort = models.SortNewest
	}
	if !sort.Valid() {
		return nil, fmt.Errorf("jobfeed: %w - unknown sort %q", biddingerrors.ErrValidation, sort)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	jobs, err := f.repo.ListOpenJobs(ctx, f.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("jobfeed: failed to list open jobs: %w", err)
	}
	Sort(jobs, sort)
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Sort orders jobs in place. Every option falls back to newest first, then
// booking id, so equal keys always come out the same way.
func Sort(jobs []models.Job, sort models.SortOption) {
	slices.SortFunc(jobs, func(a, b models.Job) int {
		var c int
		switch sort {
		case models.SortPrice:
			c = cmp.Compare(b.SuggestedPrice, a.SuggestedPrice)
		case models.SortCompetition:
			c = cmp.Compare(a.BidCount, b.BidCount)
		}
		if c != 0 {
			return c
		}
		if c = b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BookingID, b.BookingID)
	})
}

// feedFilter is every change that can add, drop or re-rank a job.
var feedFilter = realtime.Filter{
	Tables: []realtime.Table{realtime.TableBookings, realtime.TableBids},
}

// Watch streams the feed: a page right away, then the change events that may
// alter it, and a fresh page after every resubscription. Consumers refresh
// with ListOpenJobs when an event matters to them.
func (f *Feed) Watch(ctx context.Context, sort models.SortOption, limit int) iter.Seq2[realtime.Update[[]models.Job], error] {
	return realtime.Watch(ctx, f.broker, feedFilter, func(ctx context.Context) ([]models.Job, error) {
		return f.ListOpenJobs(ctx, sort, limit)
	})
}
