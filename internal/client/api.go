package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/auth"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/rental"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/station"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/transaction"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/trip"
)

type SignUpResponse struct {
	User   auth.User          `json:"user"`
	Tokens auth.TokenResponse `json:"tokens"`
}

func (c *Client) SendOTP(ctx context.Context, req auth.OTPRequest) (auth.OTPResponse, error) {
	var out auth.OTPResponse
	err := c.do(ctx, http.MethodPost, "/auth/otp/send", nil, req, &out)
	return out, err
}

func (c *Client) VerifyOTP(ctx context.Context, req auth.OTPVerifyRequest) (auth.OTPResponse, error) {
	var out auth.OTPResponse
	err := c.do(ctx, http.MethodPost, "/auth/otp/verify", nil, req, &out)
	return out, err
}

func (c *Client) SignUp(ctx context.Context, req auth.UserCreateRequest) (SignUpResponse, error) {
	var out SignUpResponse
	err := c.do(ctx, http.MethodPost, "/auth/signup", nil, req, &out)
	return out, err
}

// Login exchanges credentials for tokens and keeps the access token for
// subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) (auth.TokenResponse, error) {
	var out auth.TokenResponse
	req := auth.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &out); err != nil {
		return auth.TokenResponse{}, err
	}
	c.SetToken(out.AccessToken)
	return out, nil
}

func (c *Client) Transactions(ctx context.Context, username string) ([]transaction.Details, error) {
	var out transaction.QueryResponse
	err := c.do(ctx, http.MethodGet, "/query/transactions/"+url.PathEscape(username), nil, nil, &out)
	return out.Data, err
}

func (c *Client) Trips(ctx context.Context, username string) ([]trip.Details, error) {
	var out trip.QueryResponse
	err := c.do(ctx, http.MethodGet, "/query/trips/"+url.PathEscape(username), nil, nil, &out)
	return out.Data, err
}

func (c *Client) Trip(ctx context.Context, username, id string) (trip.Details, error) {
	var out trip.Details
	err := c.do(ctx, http.MethodGet, "/query/trips/"+url.PathEscape(username)+"/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) Stations(ctx context.Context) ([]station.Station, error) {
	var out station.QueryResponse
	err := c.do(ctx, http.MethodGet, "/stations", nil, nil, &out)
	return out.Data, err
}

// NearbyStations lists stations within radiusKm; zero uses the server default.
func (c *Client) NearbyStations(ctx context.Context, lat, lng, radiusKm float64) ([]station.Station, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	if radiusKm > 0 {
		q.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	}
	var out station.QueryResponse
	err := c.do(ctx, http.MethodGet, "/stations", q, nil, &out)
	return out.Data, err
}

func (c *Client) SearchStations(ctx context.Context, query string) ([]station.Station, error) {
	var out station.QueryResponse
	err := c.do(ctx, http.MethodGet, "/stations/search", url.Values{"q": {query}}, nil, &out)
	return out.Data, err
}

func (c *Client) Station(ctx context.Context, id string) (station.Station, error) {
	var out station.Station
	err := c.do(ctx, http.MethodGet, "/stations/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) Unlock(ctx context.Context, qr string) (trip.Details, error) {
	var out trip.Details
	err := c.do(ctx, http.MethodPost, "/rentals/unlock", nil, rental.UnlockRequest{QR: qr}, &out)
	return out, err
}

func (c *Client) AddPoint(ctx context.Context, tripID string, req rental.PointRequest) (rental.PointEvent, error) {
	var out rental.PointEvent
	err := c.do(ctx, http.MethodPost, "/rentals/"+url.PathEscape(tripID)+"/points", nil, req, &out)
	return out, err
}

func (c *Client) EndRental(ctx context.Context, tripID string, req rental.EndRequest) (rental.Receipt, error) {
	var out rental.Receipt
	err := c.do(ctx, http.MethodPost, "/rentals/"+url.PathEscape(tripID)+"/end", nil, req, &out)
	return out, err
}
