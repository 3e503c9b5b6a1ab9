package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"

	"haul-bidding/internal/biddingerrors"
	model "haul-bidding/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id               TEXT PRIMARY KEY,
	customer_id      TEXT NOT NULL,
	category         TEXT NOT NULL,
	description      TEXT NOT NULL,
	pickup_address   TEXT NOT NULL,
	pickup_lat       DOUBLE PRECISION NOT NULL,
	pickup_lng       DOUBLE PRECISION NOT NULL,
	pickup_floor     INT NOT NULL DEFAULT 0,
	pickup_elevator  BOOLEAN NOT NULL DEFAULT FALSE,
	dropoff_address  TEXT NOT NULL,
	dropoff_lat      DOUBLE PRECISION NOT NULL,
	dropoff_lng      DOUBLE PRECISION NOT NULL,
	dropoff_floor    INT NOT NULL DEFAULT 0,
	dropoff_elevator BOOLEAN NOT NULL DEFAULT FALSE,
	distance_km      DOUBLE PRECISION NOT NULL,
	weight_kg        DOUBLE PRECISION NOT NULL DEFAULT 0,
	helper_requested BOOLEAN NOT NULL DEFAULT FALSE,
	suggested_price  DOUBLE PRECISION NOT NULL,
	status           TEXT NOT NULL,
	bidding_ends_at  TIMESTAMPTZ NOT NULL,
	accepted_bid_id  TEXT,
	final_price      DOUBLE PRECISION,
	driver_id        TEXT,
	version          BIGINT NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL,
	awarded_at       TIMESTAMPTZ,
	picked_up_at     TIMESTAMPTZ,
	in_transit_at    TIMESTAMPTZ,
	delivered_at     TIMESTAMPTZ,
	cancelled_at     TIMESTAMPTZ,
	CONSTRAINT awarded_has_winner CHECK (
		status NOT IN ('awarded', 'picked_up', 'in_transit', 'delivered') OR accepted_bid_id IS NOT NULL),
	CONSTRAINT open_has_no_winner CHECK (
		status NOT IN ('accepting_bids', 'expired') OR accepted_bid_id IS NULL)
);

CREATE TABLE IF NOT EXISTS bids (
	id           TEXT PRIMARY KEY,
	booking_id   TEXT NOT NULL REFERENCES bookings(id),
	driver_id    TEXT NOT NULL,
	amount       DOUBLE PRECISION NOT NULL CHECK (amount > 0),
	eta_minutes  INT NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	helper_count INT NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS bids_one_live_per_driver
	ON bids (booking_id, driver_id) WHERE status IN ('pending', 'accepted');
CREATE UNIQUE INDEX IF NOT EXISTS bids_one_accepted
	ON bids (booking_id) WHERE status = 'accepted';
CREATE INDEX IF NOT EXISTS bids_pending_by_amount
	ON bids (booking_id, amount, created_at) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS bids_by_driver ON bids (driver_id, created_at DESC);
CREATE INDEX IF NOT EXISTS bookings_open
	ON bookings (bidding_ends_at) WHERE status = 'accepting_bids';
CREATE INDEX IF NOT EXISTS bookings_by_customer ON bookings (customer_id, created_at DESC);
`

var bookingColumns = []string{
	"id", "customer_id", "category", "description",
	"pickup_address", "pickup_lat", "pickup_lng", "pickup_floor", "pickup_elevator",
	"dropoff_address", "dropoff_lat", "dropoff_lng", "dropoff_floor", "dropoff_elevator",
	"distance_km", "weight_kg", "helper_requested", "suggested_price",
	"status", "bidding_ends_at", "accepted_bid_id", "final_price", "driver_id", "version",
	"created_at", "awarded_at", "picked_up_at", "in_transit_at", "delivered_at", "cancelled_at",
}

const bidColumns = "id, booking_id, driver_id, amount, eta_minutes, message, helper_count, status, created_at"

// PostgreSQL unique_violation
const uniqueViolation = "23505"

// PostgresRepo stores bookings and bids in PostgreSQL. Every lifecycle write
// locks the booking row first, so bid inserts, awards and cancellations on one
// booking are serialised by the database.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo opens dsn and makes sure the schema exists.
func NewPostgresRepo(ctx context.Context, dsn string) (*PostgresRepo, error) {
	const op = "repository.postgres.New"

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classify(op, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &PostgresRepo{db: db}, nil
}

// Close releases the connection pool.
func (r *PostgresRepo) Close() error {
	return r.db.Close()
}

func (r *PostgresRepo) CreateBooking(ctx context.Context, b model.Booking) error {
	const op = "repository.postgres.CreateBooking"

	placeholders := make([]string, len(bookingColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO bookings (%s) VALUES (%s)",
		strings.Join(bookingColumns, ", "), strings.Join(placeholders, ", "))

	_, err := r.db.ExecContext(ctx, query,
		b.BookingID, b.CustomerID, b.Category, b.Description,
		b.Pickup.Address, b.Pickup.Latitude, b.Pickup.Longitude, b.Pickup.Floor, b.Pickup.ElevatorAvailable,
		b.Dropoff.Address, b.Dropoff.Latitude, b.Dropoff.Longitude, b.Dropoff.Floor, b.Dropoff.ElevatorAvailable,
		b.DistanceKm, b.WeightKg, b.HelperRequested, b.SuggestedPrice,
		b.Status, b.BiddingEndsAt, b.AcceptedBidID, b.FinalPrice, b.DriverID, b.Version,
		b.CreatedAt, b.AwardedAt, b.PickedUpAt, b.InTransitAt, b.DeliveredAt, b.CancelledAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w - id %s already used", op, biddingerrors.ErrConflict, b.BookingID)
	}
	if err != nil {
		return classify(op, err)
	}
	return nil
}

func (r *PostgresRepo) GetBooking(ctx context.Context, bookingID string) (model.Booking, error) {
	const op = "repository.postgres.GetBooking"

	row := r.db.QueryRowContext(ctx, selectBooking()+" WHERE id = $1", bookingID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrBookingNotFound, bookingID)
	}
	if err != nil {
		return model.Booking{}, classify(op, err)
	}
	return b, nil
}

func (r *PostgresRepo) ListBookingsByCustomer(ctx context.Context, customerID string) ([]model.Booking, error) {
	const op = "repository.postgres.ListBookingsByCustomer"

	rows, err := r.db.QueryContext(ctx, selectBooking()+" WHERE customer_id = $1 ORDER BY created_at DESC", customerID)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()
	return collectBookings(op, rows)
}

func (r *PostgresRepo) InsertBid(ctx context.Context, bid model.Bid, now time.Time) (model.Booking, error) {
	const op = "repository.postgres.InsertBid"

	var out model.Booking
	err := r.withTx(ctx, op, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, op, bid.BookingID)
		if err != nil {
			return err
		}
		if !b.WindowOpen(now) {
			return fmt.Errorf("%s: %w - status %s, ends %s", op, biddingerrors.ErrWindowClosed, b.Status, b.BiddingEndsAt.Format(time.RFC3339))
		}

		_, err = tx.ExecContext(ctx, "INSERT INTO bids ("+bidColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
			bid.BidID, bid.BookingID, bid.DriverID, bid.Amount, bid.EtaMinutes, bid.Message, bid.HelperCount, bid.Status, bid.CreatedAt)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			if pqErr.Constraint == "bids_one_live_per_driver" {
				return fmt.Errorf("%s: %w", op, biddingerrors.ErrDuplicateBid)
			}
			return fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrConflict, pqErr.Constraint)
		}
		if err != nil {
			return classify(op, err)
		}

		b.Version++
		if err := saveLifecycle(ctx, tx, b); err != nil {
			return classify(op, err)
		}
		out = b
		return nil
	})
	return out, err
}

func (r *PostgresRepo) ListPendingBids(ctx context.Context, bookingID string) ([]model.Bid, error) {
	const op = "repository.postgres.ListPendingBids"

	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)", bookingID).Scan(&exists); err != nil {
		return nil, classify(op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrBookingNotFound, bookingID)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bidColumns+" FROM bids WHERE booking_id = $1 AND status = 'pending' ORDER BY amount ASC, created_at ASC, id ASC",
		bookingID)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()
	return collectBids(op, rows)
}

func (r *PostgresRepo) ListBidsByDriver(ctx context.Context, driverID string) ([]model.Bid, error) {
	const op = "repository.postgres.ListBidsByDriver"

	rows, err := r.db.QueryContext(ctx, "SELECT "+bidColumns+" FROM bids WHERE driver_id = $1 ORDER BY created_at DESC", driverID)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()
	return collectBids(op, rows)
}

func (r *PostgresRepo) AwardBid(ctx context.Context, p AwardParams) (model.AwardResult, error) {
	const op = "repository.postgres.AwardBid"

	var res model.AwardResult
	err := r.withTx(ctx, op, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, op, p.BookingID)
		if err != nil {
			return err
		}
		if err := checkAwardable(&b, p); err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx, "SELECT "+bidColumns+" FROM bids WHERE id = $1 AND booking_id = $2 FOR UPDATE", p.BidID, p.BookingID)
		win, err := scanBid(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w - bid %s", op, biddingerrors.ErrBidNotFound, p.BidID)
		}
		if err != nil {
			return classify(op, err)
		}
		if win.Status != model.BidPending {
			return fmt.Errorf("%s: %w - bid %s is %s", op, biddingerrors.ErrConflict, p.BidID, win.Status)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE bids SET status = 'accepted' WHERE id = $1", win.BidID); err != nil {
			return classify(op, err)
		}
		win.Status = model.BidAccepted

		rows, err := tx.QueryContext(ctx,
			"UPDATE bids SET status = 'rejected' WHERE booking_id = $1 AND status = 'pending' RETURNING "+bidColumns, p.BookingID)
		if err != nil {
			return classify(op, err)
		}
		rejected, err := collectBids(op, rows)
		rows.Close()
		if err != nil {
			return err
		}

		applyAward(&b, &win, p.Now)
		if err := saveLifecycle(ctx, tx, b); err != nil {
			return classify(op, err)
		}
		res = model.AwardResult{Booking: b, Accepted: win, Rejected: rejected}
		return nil
	})
	return res, err
}

func (r *PostgresRepo) AdvanceStatus(ctx context.Context, bookingID string, to model.BookingStatus, now time.Time) (Mutation, error) {
	const op = "repository.postgres.AdvanceStatus"

	var m Mutation
	err := r.withTx(ctx, op, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, op, bookingID)
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
		applyAdvance(&b, to, now)
		if err := saveLifecycle(ctx, tx, b); err != nil {
			return classify(op, err)
		}
		m = Mutation{Booking: b, Changed: true}
		return nil
	})
	return m, err
}

func (r *PostgresRepo) CancelBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error) {
	const op = "repository.postgres.CancelBooking"

	var m Mutation
	err := r.withTx(ctx, op, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, op, bookingID)
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
		rejected, err := rejectPending(ctx, tx, op, bookingID)
		if err != nil {
			return err
		}
		b.Status = model.StatusCancelled
		b.CancelledAt = &now
		b.Version++
		if err := saveLifecycle(ctx, tx, b); err != nil {
			return classify(op, err)
		}
		m = Mutation{Booking: b, Rejected: rejected, Changed: true}
		return nil
	})
	return m, err
}

func (r *PostgresRepo) ExpireBooking(ctx context.Context, bookingID string, now time.Time) (Mutation, error) {
	const op = "repository.postgres.ExpireBooking"

	var m Mutation
	err := r.withTx(ctx, op, func(tx *sql.Tx) error {
		b, err := lockBooking(ctx, tx, op, bookingID)
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
		rejected, err := rejectPending(ctx, tx, op, bookingID)
		if err != nil {
			return err
		}
		b.Status = model.StatusExpired
		b.Version++
		if err := saveLifecycle(ctx, tx, b); err != nil {
			return classify(op, err)
		}
		m = Mutation{Booking: b, Rejected: rejected, Changed: true}
		return nil
	})
	return m, err
}

// ListOpenJobs computes bid count and minimum in the same query as the
// bookings, one round trip regardless of how many jobs are open.
func (r *PostgresRepo) ListOpenJobs(ctx context.Context, now time.Time) ([]model.Job, error) {
	const op = "repository.postgres.ListOpenJobs"

	query := "SELECT " + columnList("b.") + `, COUNT(bd.id), MIN(bd.amount)
		FROM bookings b
		LEFT JOIN bids bd ON bd.booking_id = b.id
		WHERE b.status = 'accepting_bids' AND b.bidding_ends_at > $1
		GROUP BY b.id`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0)
	for rows.Next() {
		var j model.Job
		dest := append(bookingDest(&j.Booking), &j.BidCount, &j.LowestBid)
		if err := rows.Scan(dest...); err != nil {
			return nil, classify(op, err)
		}
		normalizeTimes(&j.Booking)
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return jobs, nil
}

func (r *PostgresRepo) ListDueBookings(ctx context.Context, now time.Time, limit int) ([]model.Booking, error) {
	const op = "repository.postgres.ListDueBookings"

	query := selectBooking() + " WHERE status = 'accepting_bids' AND bidding_ends_at <= $1 ORDER BY bidding_ends_at ASC"
	args := []any{now}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()
	return collectBookings(op, rows)
}

func (r *PostgresRepo) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

func lockBooking(ctx context.Context, tx *sql.Tx, op, bookingID string) (model.Booking, error) {
	row := tx.QueryRowContext(ctx, selectBooking()+" WHERE id = $1 FOR UPDATE", bookingID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, fmt.Errorf("%s: %w - %s", op, biddingerrors.ErrBookingNotFound, bookingID)
	}
	if err != nil {
		return model.Booking{}, classify(op, err)
	}
	return b, nil
}

func rejectPending(ctx context.Context, tx *sql.Tx, op, bookingID string) ([]model.Bid, error) {
	rows, err := tx.QueryContext(ctx,
		"UPDATE bids SET status = 'rejected' WHERE booking_id = $1 AND status = 'pending' RETURNING "+bidColumns, bookingID)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()
	return collectBids(op, rows)
}

// saveLifecycle writes every field a lifecycle transition may touch.
func saveLifecycle(ctx context.Context, tx *sql.Tx, b model.Booking) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET
		status = $2, accepted_bid_id = $3, final_price = $4, driver_id = $5, version = $6,
		awarded_at = $7, picked_up_at = $8, in_transit_at = $9, delivered_at = $10, cancelled_at = $11
		WHERE id = $1`,
		b.BookingID, b.Status, b.AcceptedBidID, b.FinalPrice, b.DriverID, b.Version,
		b.AwardedAt, b.PickedUpAt, b.InTransitAt, b.DeliveredAt, b.CancelledAt)
	return err
}

func columnList(prefix string) string {
	cols := make([]string, len(bookingColumns))
	for i, c := range bookingColumns {
		cols[i] = prefix + c
	}
	return strings.Join(cols, ", ")
}

func selectBooking() string {
	return "SELECT " + columnList("") + " FROM bookings"
}

type scanner interface {
	Scan(dest ...any) error
}

func bookingDest(b *model.Booking) []any {
	return []any{
		&b.BookingID, &b.CustomerID, &b.Category, &b.Description,
		&b.Pickup.Address, &b.Pickup.Latitude, &b.Pickup.Longitude, &b.Pickup.Floor, &b.Pickup.ElevatorAvailable,
		&b.Dropoff.Address, &b.Dropoff.Latitude, &b.Dropoff.Longitude, &b.Dropoff.Floor, &b.Dropoff.ElevatorAvailable,
		&b.DistanceKm, &b.WeightKg, &b.HelperRequested, &b.SuggestedPrice,
		&b.Status, &b.BiddingEndsAt, &b.AcceptedBidID, &b.FinalPrice, &b.DriverID, &b.Version,
		&b.CreatedAt, &b.AwardedAt, &b.PickedUpAt, &b.InTransitAt, &b.DeliveredAt, &b.CancelledAt,
	}
}

func scanBooking(row scanner) (model.Booking, error) {
	var b model.Booking
	if err := row.Scan(bookingDest(&b)...); err != nil {
		return model.Booking{}, err
	}
	normalizeTimes(&b)
	return b, nil
}

func normalizeTimes(b *model.Booking) {
	b.BiddingEndsAt = b.BiddingEndsAt.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	for _, p := range []*time.Time{b.AwardedAt, b.PickedUpAt, b.InTransitAt, b.DeliveredAt, b.CancelledAt} {
		if p != nil {
			*p = p.UTC()
		}
	}
}

func scanBid(row scanner) (model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.BidID, &b.BookingID, &b.DriverID, &b.Amount, &b.EtaMinutes, &b.Message, &b.HelperCount, &b.Status, &b.CreatedAt)
	b.CreatedAt = b.CreatedAt.UTC()
	return b, err
}

func collectBookings(op string, rows *sql.Rows) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func collectBids(op string, rows *sql.Rows) ([]model.Bid, error) {
	out := make([]model.Bid, 0)
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// classify marks connectivity and contention failures as transient so the
// caller may retry; anything else is wrapped unchanged.
func classify(op string, err error) error {
	var (
		pqErr  *pq.Error
		netErr net.Error
	)
	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		return fmt.Errorf("%s: %w - %w", op, biddingerrors.ErrTransient, err)
	case errors.As(err, &pqErr):
		// serialization_failure, deadlock_detected and connection exceptions
		switch pqErr.Code {
		case "40001", "40P01", "57P01", "57P03":
			return fmt.Errorf("%s: %w - %w", op, biddingerrors.ErrTransient, err)
		}
		if pqErr.Code.Class() == "08" {
			return fmt.Errorf("%s: %w - %w", op, biddingerrors.ErrTransient, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
