package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"haul-bidding/internal/biddingerrors"
	model "haul-bidding/internal/models"
)

const (
	bookingsCollection = "bookings"
	bidsCollection     = "bids"
	liveBidIndex       = "bids_one_live_per_driver"
)

// MongoRepo stores bookings and bids in MongoDB. Lifecycle writes run inside
// multi-document transactions (a replica set is required) and update the
// booking with a compare-and-swap on its version, so two transactions that
// race on one booking cannot both commit.
type MongoRepo struct {
	client   *mongo.Client
	bookings *mongo.Collection
	bids     *mongo.Collection
	timeout  time.Duration
}

// NewMongoRepo connects to uri, selects database and creates indexes.
func NewMongoRepo(ctx context.Context, uri, database string, timeout time.Duration) (*MongoRepo, error) {
	const op = "repository.mongo.New"

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, classifyMongo(op, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, classifyMongo(op, err)
	}

	db := client.Database(database)
	r := &MongoRepo{
		client:   client,
		bookings: db.Collection(bookingsCollection),
		bids:     db.Collection(bidsCollection),
		timeout:  timeout,
	}
	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return r, nil
}

// Close disconnects the client.
func (r *MongoRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepo) ensureIndexes(ctx context.Context) error {
	// A bid is only ever rejected once its booking has stopped accepting bids,
	// so a plain unique index already means one live bid per driver.
	_, err := r.bids.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "driver_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName(liveBidIndex)},
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "status", Value: 1}, {Key: "amount", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return err
	}
	_, err = r.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "bidding_ends_at", Value: 1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// withTimeout bounds ctx unless it is a session context, which must be passed
// through untouched to keep the transaction.
func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok || r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *MongoRepo) withTransaction(ctx context.Context, op string, fn func(sc mongo.SessionContext) error) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return classifyMongo(op, err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		return classifyMongo(op, err)
	}
	return nil
}

func (r *MongoRepo) CreateBooking(ctx context.Context, b model.Booking) error {
	const op = "repository.mongo.CreateBooking"
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	b.BiddingEndsAt = b.BiddingEndsAt.UTC().Truncate(time.Millisecond)
	b.CreatedAt = b.CreatedAt.UTC().Truncate(time.Millisecond)
	_, err := r.bookings.InsertOne(ctx, b)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w - id %s already used", op, biddingerrors.ErrConflict, b.BookingID)
	}
	if err != nil {
		return classifyMongo(op, err)
	}
	return nil
}

func (r *MongoRepo) GetBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	const op = "repository.mongo.GetBooking"
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b model.Booking
	err := r.bookings.FindOne(ctx, bson.M{"_id": bookingID}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Booking{}, fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrBookingNotFound, bookingID)
	}
	if err != nil {
		return model.Booking{}, classifyMongo(op, err)
	}
	return b, nil
}

func (r *MongoRepo) ListBookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error) {
	const op = "repository.mongo.ListBookingsByCustomer"
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.bookings.Find(ctx, bson.M{"customer_id": customerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, classifyMongo(op, err)
	}
	out := make([]model.Booking, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, classifyMongo(op, err)
	}
	return out, nil
}

func (r *MongoRepo) InsertBid(ctx context.Context, bid model.Bid, now time.Time) (model.Booking, error) {
	const op = "repository.mongo.InsertBid"

	bid.CreatedAt = bid.CreatedAt.UTC().Truncate(time.Millisecond)
	var out model.Booking
	err := r.withTransaction(ctx, op, func(sc mongo.SessionContext) error {
		// bumping the version first takes the document write lock for the
		// rest of the transaction
		filter := bson.M{"_id": bid.BookingID, "status": model.StatusAcceptingBids, "bidding_ends_at": bson.M{"$gt": now}}
		update := bson.M{"$inc": bson.M{"version": 1}}
		err := r.bookings.FindOneAndUpdate(sc, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			b, getErr := r.GetBooking(sc, bid.BookingID)
			if getErr != nil {
				return getErr
			}
			return fmt.Errorf("%s: %w - status %s, ends %s", op, biddingerrors.ErrWindowClosed, b.Status, b.BiddingEndsAt.Format(time.RFC3339))
		}
		if err != nil {
			return err
		}

		_, err = r.bids.InsertOne(sc, bid)
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), liveBidIndex) {
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrDuplicateBid)
			}
			return fmt.Errorf("%s: %w - bid id %s already used", op, biddingerrors.ErrConflict, bid.BidID)
		}
		return err
	})
	if err != nil {
		return model.Booking{}, err
	}
	return out, nil
}

func (r *MongoRepo) ListPendingBids(ctx context.Context, bookingID string) ([]model.Bid, error) {
	const op = "repository.mongo.ListPendingBids"
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.bookings.CountDocuments(ctx, bson.M{"_id": bookingID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, classifyMongo(op, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrBookingNotFound, bookingID)
	}

	sort := bson.D{{Key: "amount", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	return r.findBids(ctx, op, bson.M{"booking_id": bookingID, "status": model.BidPending}, sort)
}

func (r *MongoRepo) ListBidsByDriver(ctx context.Context, driverID string) ([]model.Bid, error) {
	const op = "repository.mongo.ListBidsByDriver"
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.findBids(ctx, op, bson.M{"driver_id": driverID}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *MongoRepo) findBids(ctx context.Context, op string, filter bson.M, sort bson.D) ([]model.Bid, error) {
	cur, err := r.bids.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, classifyMongo(op, err)
	}
	out := make([]model.Bid, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, classifyMongo(op, err)
	}
	return out, nil
}

func (r *MongoRepo) AwardBid(ctx context.Context, p AwardParams) (model.AwardResult, error) {
	const op = "repository.mongo.AwardBid"

	var res model.AwardResult
	err := r.withTransaction(ctx, op, func(sc mongo.SessionContext) error {
		b, err := r.GetBooking(sc, p.BookingID)
		if err != nil {
			return err
		}
		if err := checkAwardable(&b, p); err != nil {
			return err
		}

		var win model.Bid
		err = r.bids.FindOne(sc, bson.M{"_id": p.BidID, "booking_id": p.BookingID}).Decode(&win)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%s: %w - bid %s", op, biddingerrors.ErrBidNotFound, p.BidID)
		}
		if err != nil {
			return err
		}
		if win.Status != model.BidPending {
			return fmt.Errorf("%s: %w - bid %s is %s", op, biddingerrors.ErrConflict, p.BidID, win.Status)
		}

		rejected, err := r.rejectPending(sc, p.BookingID, win.BidID)
		if err != nil {
			return err
		}
		if _, err := r.bids.UpdateOne(sc, bson.M{"_id": win.BidID, "status": model.BidPending},
			bson.M{"$set": bson.M{"status": model.BidAccepted}}); err != nil {
			return err
		}
		win.Status = model.BidAccepted

		expected := b.Version
		applyAward(&b, &win, p.Now.UTC().Truncate(time.Millisecond))
		if err := r.saveLifecycle(sc, op, b, expected); err != nil {
			return err
		}
		res = model.AwardResult{Booking: b, Accepted: win, Rejected: rejected}
		return nil
	})
	return res, err
}

func (r *MongoRepo) AdvanceStatus(ctx context.Context, bookingID string, to model.BookingStatus, now time.Time) (Mutation, error) {
	const op = "repository.mongo.AdvanceStatus"

	var m Mutation
	err := r.withTransaction(ctx, op, func(sc mongo.SessionContext) error {
		b, err := r.GetBooking(sc, bookingID)
		if err != nil {
			return err
		}
		if b.Status == to {
			m = Mutation{Booking: b}
			return nil
		}
		if next, ok := b.Status.Next(); !ok || next != to {
			return fmt.Errorf("%s: %w - %s to %s", op, biddingerrors.ErrInvalidTransition, b.Status, to)
		}
		expected := b.Version
		applyAdvance(&b, to, now.UTC().Truncate(time.Millisecond))
		if err := r.saveLifecycle(sc, op, b, expected); err != nil {
			return err
		}
		m = Mutation{Booking: b, Changed: true}
		return nil
	})
	return m, err
}

func (r *MongoRepo) CancelBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error) {
	const op = "repository.mongo.CancelBooking"

	var m Mutation
	err := r.withTransaction(ctx, op, func(sc mongo.SessionContext) error {
		b, err := r.GetBooking(sc, bookingID)
		if err != nil {
			return err
		}
		if b.Status == model.StatusCancelled {
			m = Mutation{Booking: b}
			return nil
		}
		if !canCancel(b.Status) {
			return fmt.Errorf("%s: %w - booking is %s", op, biddingerrors.ErrInvalidTransition, b.Status)
		}
		rejected, err := r.rejectPending(sc, bookingID, "")
		if err != nil {
			return err
		}
		expected := b.Version
		at := now.UTC().Truncate(time.Millisecond)
		b.Status = model.StatusCancelled
		b.CancelledAt = &at
		b.Version++
		if err := r.saveLifecycle(sc, op, b, expected); err != nil {
			return err
		}
		m = Mutation{Booking: b, Rejected: rejected, Changed: true}
		return nil
	})
	return m, err
}

func (r *MongoRepo) ExpireBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error) {
	const op = "repository.mongo.ExpireBooking"

	var m Mutation
	err := r.withTransaction(ctx, op, func(sc mongo.SessionContext) error {
		b, err := r.GetBooking(sc, bookingID)
		if err != nil {
			return err
		}
		switch {
		case b.Status == model.StatusExpired:
			m = Mutation{Booking: b}
			return nil
		case b.Status != model.StatusAcceptingBids:
			return fmt.Errorf("%s: %w - booking is %s", op, biddingerrors.ErrConflict, b.Status)
		case now.Before(b.BiddingEndsAt):
			return fmt.Errorf("%s: %w - window open until %s", op, biddingerrors.ErrInvalidTransition, b.BiddingEndsAt.Format(time.RFC3339))
		}
		rejected, err := r.rejectPending(sc, bookingID, "")
		if err != nil {
			return err
		}
		expected := b.Version
		b.Status = model.StatusExpired
		b.Version++
		if err := r.saveLifecycle(sc, op, b, expected); err != nil {
			return err
		}
		m = Mutation{Booking: b, Rejected: rejected, Changed: true}
		return nil
	})
	return m, err
}

// ListOpenJobs joins bids onto open bookings in one aggregation pipeline.
func (r *MongoRepo) ListOpenJobs(ctx context.Context, now time.Time) ([]model.Job, error) {
	const op = "repository.mongo.ListOpenJobs"
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": model.StatusAcceptingBids, "bidding_ends_at": bson.M{"$gt": now}}}},
		{{Key: "$lookup", Value: bson.M{"from": bidsCollection, "localField": "_id", "foreignField": "booking_id", "as": "bids"}}},
		{{Key: "$addFields", Value: bson.M{
			"bid_count":  bson.M{"$size": "$bids"},
			"lowest_bid": bson.M{"$min": "$bids.amount"},
		}}},
		{{Key: "$project", Value: bson.M{"bids": 0}}},
	}
	cur, err := r.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, classifyMongo(op, err)
	}

	var docs []struct {
		model.Booking `bson:",inline"`
		BidCount      int      `bson:"bid_count"`
		LowestBid     *float64 `bson:"lowest_bid"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, classifyMongo(op, err)
	}
	jobs := make([]model.Job, 0, len(docs))
	for _, d := range docs {
		jobs = append(jobs, model.Job{Booking: d.Booking, BidCount: d.BidCount, LowestBid: d.LowestBid})
	}
	return jobs, nil
}

func (r *MongoRepo) ListDueBookings(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	const op = "repository.mongo.ListDueBookings"
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "bidding_ends_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.bookings.Find(ctx, bson.M{"status": model.StatusAcceptingBids, "bidding_ends_at": bson.M{"$lte": now}}, opts)
	if err != nil {
		return nil, classifyMongo(op, err)
	}
	out := make([]model.Booking, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, classifyMongo(op, err)
	}
	return out, nil
}

// rejectPending flips every pending bid of a booking except keep to rejected
// and returns them as they now stand.
func (r *MongoRepo) rejectPending(sc mongo.SessionContext, bookingID, keep string) ([]model.Bid, error) {
	filter := bson.M{"booking_id": bookingID, "status": model.BidPending}
	if keep != "" {
		filter["_id"] = bson.M{"$ne": keep}
	}
	cur, err := r.bids.Find(sc, filter)
	if err != nil {
		return nil, err
	}
	var rejected []model.Bid
	if err := cur.All(sc, &rejected); err != nil {
		return nil, err
	}
	if len(rejected) == 0 {
		return nil, nil
	}
	if _, err := r.bids.UpdateMany(sc, filter, bson.M{"$set": bson.M{"status": model.BidRejected}}); err != nil {
		return nil, err
	}
	for i := range rejected {
		rejected[i].Status = model.BidRejected
	}
	return rejected, nil
}

// saveLifecycle writes b only if the stored version is still expected.
func (r *MongoRepo) saveLifecycle(sc mongo.SessionContext, op string, b model.Booking, expected int64) error {
	res, err := r.bookings.UpdateOne(sc,
		bson.M{"_id": b.BookingID, "version": expected},
		bson.M{"$set": bson.M{
			"status":          b.Status,
			"accepted_bid_id": b.AcceptedBidID,
			"final_price":     b.FinalPrice,
			"driver_id":       b.DriverID,
			"version":         b.Version,
			"awarded_at":      b.AwardedAt,
			"picked_up_at":    b.PickedUpAt,
			"in_transit_at":   b.InTransitAt,
			"delivered_at":    b.DeliveredAt,
			"cancelled_at":    b.CancelledAt,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w - booking %s moved past version %d", op, biddingerrors.ErrConflict, b.BookingID, expected)
	}
	return nil
}

func classifyMongo(op string, err error) error {
	var se mongo.ServerError
	switch {
	case mongo.IsNetworkError(err),
		mongo.IsTimeout(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError"):
		return fmt.Errorf("%s: %w - %w", op, biddingerrors.ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
