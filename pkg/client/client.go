package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	bidding "haul-bidding/internal/biddingService"
	"haul-bidding/internal/models"
	"haul-bidding/internal/pricing"
	"haul-bidding/services/bidding/helpers"
)

// Client is a typed client for the bidding API acting as one user.
type Client struct {
	http *HttpClient
}

func New(baseURL, userID string, role helpers.Role) *Client {
	return &Client{http: NewHttpClient(baseURL, userID, role)}
}

// Transport exposes the underlying HttpClient for tuning retries and timeouts.
func (c *Client) Transport() *HttpClient { return c.http }

func bookingPath(id string, rest string) string {
	return "/bookings/" + url.PathEscape(id) + rest
}

func (c *Client) CreateBooking(ctx context.Context, req helpers.CreateBookingRequest) (models.Booking, error) {
	var b models.Booking
	err := c.http.Do(ctx, http.MethodPost, "/bookings", req, &b)
	return b, err
}

func (c *Client) GetBooking(ctx context.Context, bookingID string) (models.Booking, error) {
	var b models.Booking
	err := c.http.Do(ctx, http.MethodGet, bookingPath(bookingID, ""), nil, &b)
	return b, err
}

// PendingBids returns the booking's pending bids, cheapest first.
func (c *Client) PendingBids(ctx context.Context, bookingID string) ([]helpers.BidResponse, error) {
	var bids []helpers.BidResponse
	err := c.http.Do(ctx, http.MethodGet, bookingPath(bookingID, "/bids"), nil, &bids)
	return bids, err
}

func (c *Client) PlaceBid(ctx context.Context, bookingID string, req helpers.PlaceBidRequest) (helpers.BidResponse, error) {
	var bid helpers.BidResponse
	err := c.http.Do(ctx, http.MethodPost, bookingPath(bookingID, "/bids"), req, &bid)
	return bid, err
}

func (c *Client) Award(ctx context.Context, bookingID, bidID string) (helpers.AwardResponse, error) {
	var res helpers.AwardResponse
	err := c.http.Do(ctx, http.MethodPost, bookingPath(bookingID, "/award"), helpers.AwardRequest{BidID: bidID}, &res)
	return res, err
}

func (c *Client) Advance(ctx context.Context, bookingID string, to models.BookingStatus) (models.Booking, error) {
	var b models.Booking
	err := c.http.Do(ctx, http.MethodPost, bookingPath(bookingID, "/advance"), helpers.AdvanceRequest{Status: to}, &b)
	return b, err
}

func (c *Client) Cancel(ctx context.Context, bookingID string) (models.Booking, error) {
	var b models.Booking
	err := c.http.Do(ctx, http.MethodPost, bookingPath(bookingID, "/cancel"), nil, &b)
	return b, err
}

// Jobs lists open bookings. A zero limit leaves the server default.
func (c *Client) Jobs(ctx context.Context, sort models.SortOption, limit int) ([]models.Job, error) {
	q := url.Values{}
	if sort != "" {
		q.Set("sort", string(sort))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/jobs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var jobs []models.Job
	err := c.http.Do(ctx, http.MethodGet, path, nil, &jobs)
	return jobs, err
}

func (c *Client) DriverBids(ctx context.Context, driverID string) ([]helpers.BidResponse, error) {
	var bids []helpers.BidResponse
	err := c.http.Do(ctx, http.MethodGet, "/drivers/"+url.PathEscape(driverID)+"/bids", nil, &bids)
	return bids, err
}

func (c *Client) CustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := c.http.Do(ctx, http.MethodGet, "/customers/"+url.PathEscape(customerID)+"/bookings", nil, &bookings)
	return bookings, err
}

func (c *Client) Estimate(ctx context.Context, in pricing.Input) (bidding.Quote, error) {
	q := url.Values{}
	if in.Category != "" {
		q.Set("category", string(in.Category))
	}
	q.Set("distance_km", strconv.FormatFloat(in.DistanceKm, 'f', -1, 64))
	q.Set("floor", strconv.Itoa(in.MaxFloor))
	q.Set("elevator", strconv.FormatBool(in.ElevatorAvailable))
	q.Set("weight_kg", strconv.FormatFloat(in.WeightKg, 'f', -1, 64))
	q.Set("helper", strconv.FormatBool(in.HelperRequested))

	var quote bidding.Quote
	err := c.http.Do(ctx, http.MethodGet, "/pricing/estimate?"+q.Encode(), nil, &quote)
	return quote, err
}
