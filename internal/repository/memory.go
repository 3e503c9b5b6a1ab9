package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"haul-bidding/internal/biddingerrors"
	model "haul-bidding/internal/models"
)

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// A single write lock stands in for the row lock a database would take.
type MemoryRepo struct {
	mu          sync.RWMutex
	bookings    map[string]*model.Booking // key: bookingID
	bids        map[string]*model.Bid     // key: bidID
	bookingBids map[string][]string       // key: bookingID -> bidIDs in insertion order
	driverBids  map[string][]string       // key: driverID -> bidIDs in insertion order
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		bookings:    make(map[string]*model.Booking),
		bids:        make(map[string]*model.Bid),
		bookingBids: make(map[string][]string),
		driverBids:  make(map[string][]string),
	}
}

func (r *MemoryRepo) CreateBooking(ctx context.Context, b model.Booking) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("create booking %s: %w", b.BookingID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[b.BookingID]; ok {
		return fmt.Errorf("create booking %s: %w - id already used", b.BookingID, biddingerrors.ErrConflict)
	}
	stored := cloneBooking(&b)
	r.bookings[b.BookingID] = &stored
	return nil
}

func (r *MemoryRepo) GetBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[bookingID]
	if !ok {
		return model.Booking{}, fmt.Errorf("get booking %s: %w", bookingID, biddingerrors.ErrBookingNotFound)
	}
	return cloneBooking(b), nil
}

// ListBookingsByCustomer returns a customer's bookings, newest first.
func (r *MemoryRepo) ListBookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Booking, 0)
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, cloneBooking(b))
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) InsertBid(ctx context.Context, bid model.Bid, now time.Time) (model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bid.BookingID]
	if !ok {
		return model.Booking{}, fmt.Errorf("insert bid on %s: %w", bid.BookingID, biddingerrors.ErrBookingNotFound)
	}
	if !b.WindowOpen(now) {
		return model.Booking{}, fmt.Errorf("insert bid on %s: %w - status %s, ends %s",
			bid.BookingID, biddingerrors.ErrWindowClosed, b.Status, b.BiddingEndsAt.Format(time.RFC3339))
	}
	for _, id := range r.driverBids[bid.DriverID] {
		existing := r.bids[id]
		if existing.BookingID == bid.BookingID && existing.Status != model.BidRejected {
			return model.Booking{}, fmt.Errorf("insert bid on %s: %w", bid.BookingID, biddingerrors.ErrDuplicateBid)
		}
	}
	if _, ok := r.bids[bid.BidID]; ok {
		return model.Booking{}, fmt.Errorf("insert bid %s: %w - id already used", bid.BidID, biddingerrors.ErrConflict)
	}

	r.bids[bid.BidID] = &bid
	r.bookingBids[bid.BookingID] = append(r.bookingBids[bid.BookingID], bid.BidID)
	r.driverBids[bid.DriverID] = append(r.driverBids[bid.DriverID], bid.BidID)
	b.Version++
	return cloneBooking(b), nil
}

// ListPendingBids returns pending bids cheapest first.
func (r *MemoryRepo) ListPendingBids(ctx context.Context, bookingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.bookings[bookingID]; !ok {
		return nil, fmt.Errorf("list pending bids for %s: %w", bookingID, biddingerrors.ErrBookingNotFound)
	}
	out := make([]model.Bid, 0, len(r.bookingBids[bookingID]))
	for _, id := range r.bookingBids[bookingID] {
		if bid := r.bids[id]; bid.Status == model.BidPending {
			out = append(out, *bid)
		}
	}
	SortPending(out)
	return out, nil
}

// ListBidsByDriver returns every bid a driver placed, newest first.
func (r *MemoryRepo) ListBidsByDriver(ctx context.Context, driverID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.driverBids[driverID]
	out := make([]model.Bid, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, *r.bids[ids[i]])
	}
	return out, nil
}

func (r *MemoryRepo) AwardBid(ctx context.Context, p AwardParams) (model.AwardResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[p.BookingID]
	if !ok {
		return model.AwardResult{}, fmt.Errorf("award %s: %w", p.BookingID, biddingerrors.ErrBookingNotFound)
	}
	if err := checkAwardable(b, p); err != nil {
		return model.AwardResult{}, err
	}
	win, ok := r.bids[p.BidID]
	if !ok || win.BookingID != p.BookingID {
		return model.AwardResult{}, fmt.Errorf("award %s: %w - bid %s", p.BookingID, biddingerrors.ErrBidNotFound, p.BidID)
	}
	if win.Status != model.BidPending {
		return model.AwardResult{}, fmt.Errorf("award %s: %w - bid %s is %s", p.BookingID, biddingerrors.ErrConflict, p.BidID, win.Status)
	}

	// every check has passed; nothing below can fail
	win.Status = model.BidAccepted
	res := model.AwardResult{Accepted: *win}
	for _, id := range r.bookingBids[p.BookingID] {
		if other := r.bids[id]; other.Status == model.BidPending {
			other.Status = model.BidRejected
			res.Rejected = append(res.Rejected, *other)
		}
	}
	applyAward(b, win, p.Now)
	res.Booking = cloneBooking(b)
	return res, nil
}

func (r *MemoryRepo) AdvanceStatus(ctx context.Context, bookingID string, to model.BookingStatus, now time.Time) (Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bookingID]
	if !ok {
		return Mutation{}, fmt.Errorf("advance %s: %w", bookingID, biddingerrors.ErrBookingNotFound)
	}
	if b.Status == to {
		return Mutation{Booking: cloneBooking(b)}, nil
	}
	if next, ok := b.Status.Next(); !ok || next != to {
		return Mutation{}, fmt.Errorf("advance %s: %w - %s to %s", bookingID, biddingerrors.ErrInvalidTransition, b.Status, to)
	}
	applyAdvance(b, to, now)
	return Mutation{Booking: cloneBooking(b), Changed: true}, nil
}

func (r *MemoryRepo) CancelBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bookingID]
	if !ok {
		return Mutation{}, fmt.Errorf("cancel %s: %w", bookingID, biddingerrors.ErrBookingNotFound)
	}
	if b.Status == model.StatusCancelled {
		return Mutation{Booking: cloneBooking(b)}, nil
	}
	if !canCancel(b.Status) {
		return Mutation{}, fmt.Errorf("cancel %s: %w - booking is %s", bookingID, biddingerrors.ErrInvalidTransition, b.Status)
	}
	rejected := r.rejectPendingLocked(bookingID)
	b.Status = model.StatusCancelled
	b.CancelledAt = &now
	b.Version++
	return Mutation{Booking: cloneBooking(b), Rejected: rejected, Changed: true}, nil
}

func (r *MemoryRepo) ExpireBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[bookingID]
	if !ok {
		return Mutation{}, fmt.Errorf("expire %s: %w", bookingID, biddingerrors.ErrBookingNotFound)
	}
	if b.Status == model.StatusExpired {
		return Mutation{Booking: cloneBooking(b)}, nil
	}
	if b.Status != model.StatusAcceptingBids {
		return Mutation{}, fmt.Errorf("expire %s: %w - booking is %s", bookingID, biddingerrors.ErrConflict, b.Status)
	}
	if now.Before(b.BiddingEndsAt) {
		return Mutation{}, fmt.Errorf("expire %s: %w - window open until %s", bookingID, biddingerrors.ErrInvalidTransition, b.BiddingEndsAt.Format(time.RFC3339))
	}
	rejected := r.rejectPendingLocked(bookingID)
	b.Status = model.StatusExpired
	b.Version++
	return Mutation{Booking: cloneBooking(b), Rejected: rejected, Changed: true}, nil
}

func (r *MemoryRepo) ListOpenJobs(ctx context.Context, now time.Time) ([]model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]model.Job, 0)
	for id, b := range r.bookings {
		if !b.WindowOpen(now) {
			continue
		}
		job := model.Job{Booking: cloneBooking(b)}
		for _, bidID := range r.bookingBids[id] {
			bid := r.bids[bidID]
			job.BidCount++
			if job.LowestBid == nil || bid.Amount < *job.LowestBid {
				amount := bid.Amount
				job.LowestBid = &amount
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (r *MemoryRepo) ListDueBookings(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Booking, 0)
	for _, b := range r.bookings {
		if b.Status == model.StatusAcceptingBids && !now.Before(b.BiddingEndsAt) {
			out = append(out, cloneBooking(b))
		}
	}
	slices.SortFunc(out, func(a, b model.Booking) int { return a.BiddingEndsAt.Compare(b.BiddingEndsAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) rejectPendingLocked(bookingID string) []model.Bid {
	var rejected []model.Bid
	for _, id := range r.bookingBids[bookingID] {
		if bid := r.bids[id]; bid.Status == model.BidPending {
			bid.Status = model.BidRejected
			rejected = append(rejected, *bid)
		}
	}
	return rejected
}

// checkAwardable applies the booking-level award guard shared by all stores.
func checkAwardable(b *model.Booking, p AwardParams) error {
	switch {
	case b.Status.AtOrPastAwarded():
		return fmt.Errorf("award %s: %w - already %s", b.BookingID, biddingerrors.ErrConflict, b.Status)
	case b.Status != model.StatusAcceptingBids:
		return fmt.Errorf("award %s: %w - booking is %s", b.BookingID, biddingerrors.ErrWindowClosed, b.Status)
	case !p.AfterWindow && !p.Now.Before(b.BiddingEndsAt):
		return fmt.Errorf("award %s: %w - window ended %s", b.BookingID, biddingerrors.ErrWindowClosed, b.BiddingEndsAt.Format(time.RFC3339))
	}
	return nil
}

func applyAward(b *model.Booking, win *model.Bid, now time.Time) {
	bidID, driverID, price := win.BidID, win.DriverID, win.Amount
	b.Status = model.StatusAwarded
	b.AcceptedBidID = &bidID
	b.DriverID = &driverID
	b.FinalPrice = &price
	b.AwardedAt = &now
	b.Version++
}

func applyAdvance(b *model.Booking, to model.BookingStatus, now time.Time) {
	b.Status = to
	switch to {
	case model.StatusPickedUp:
		b.PickedUpAt = &now
	case model.StatusInTransit:
		b.InTransitAt = &now
	case model.StatusDelivered:
		b.DeliveredAt = &now
	}
	b.Version++
}

// SortPending orders bids by amount, then by submission time, then by id.
func SortPending(bids []model.Bid) {
	slices.SortFunc(bids, func(a, b model.Bid) int {
		if c := cmp.Compare(a.Amount, b.Amount); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.BidID, b.BidID)
	})
}

// cloneBooking copies b including the pointed-to award fields so callers
// cannot mutate stored state.
func cloneBooking(b *model.Booking) model.Booking {
	c := *b
	c.AcceptedBidID = clonePtr(b.AcceptedBidID)
	c.FinalPrice = clonePtr(b.FinalPrice)
	c.DriverID = clonePtr(b.DriverID)
	c.AwardedAt = clonePtr(b.AwardedAt)
	c.PickedUpAt = clonePtr(b.PickedUpAt)
	c.InTransitAt = clonePtr(b.InTransitAt)
	c.DeliveredAt = clonePtr(b.DeliveredAt)
	c.CancelledAt = clonePtr(b.CancelledAt)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
