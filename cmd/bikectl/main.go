// Command bikectl drives the bike-rental API from a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/auth"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/client"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/config"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/history"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/qrcode"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/rental"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/shared/geo"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/station"
)

const usage = `usage: bikectl [-api URL] [-token JWT] [-o json|yaml|table] <command> [flags]

commands:
  otp-send      -user PHONE [-purpose SIGNUP]
  otp-verify    -user PHONE -code CODE [-purpose SIGNUP]
  signup        -user PHONE -password PASSWORD -name NAME -dob DD/MM/YYYY [-email EMAIL]
  login         -user PHONE -password PASSWORD
  scan          QR
  decode        POLYLINE
  stations
  nearby        -lat LAT -lng LNG [-radius KM]
  search        QUERY
  station       ID
  unlock        QR
  end           TRIP_ID [-lat LAT -lng LNG]
  trips         -user PHONE
  transactions  -user PHONE
`

var loadConfig = config.Load

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("bikectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	apiURL := fs.String("api", cfg.APIBaseURL, "API base URL")
	token := fs.String("token", cfg.APIToken, "bearer token")
	format := fs.String("o", "table", "output format: json|yaml|table")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	out, err := newPrinter(*format, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	c := client.New(*apiURL, client.WithToken(*token), client.WithTimeout(cfg.APITimeout))
	cmd := &command{client: c, out: out, stderr: stderr, cfg: cfg}
	if err := cmd.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(stderr, "%d: %s\n", apiErr.StatusCode, apiErr.Message)
			return 1
		}
		if errors.Is(err, errUsage) {
			fs.Usage()
			return 2
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

var errUsage = errors.New("usage")

type command struct {
	client *client.Client
	out    *printer
	stderr io.Writer
	cfg    config.Config
}

func (c *command) dispatch(ctx context.Context, name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	user := fs.String("user", "", "username (phone number)")
	password := fs.String("password", "", "password")
	code := fs.String("code", "", "otp code")
	purpose := fs.String("purpose", string(auth.OTPPurposeSignup), "otp purpose")
	lat := fs.String("lat", "", "latitude")
	lng := fs.String("lng", "", "longitude")
	radius := fs.Float64("radius", 0, "search radius in km")
	fullName := fs.String("name", "", "full name")
	dob := fs.String("dob", "", "date of birth, dd/MM/yyyy")
	email := fs.String("email", "", "email")

	// Positional arguments come first, flags after them.
	positional := []string{}
	for len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		positional = append(positional, args[0])
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	positional = append(positional, fs.Args()...)

	switch name {
	case "otp-send":
		if *user == "" {
			return errUsage
		}
		resp, err := c.client.SendOTP(ctx, auth.OTPRequest{Username: *user, PhoneNumber: *user, Purpose: auth.OTPPurpose(*purpose)})
		if err != nil {
			return err
		}
		return c.out.message(resp)

	case "otp-verify":
		if *user == "" || *code == "" {
			return errUsage
		}
		resp, err := c.client.VerifyOTP(ctx, auth.OTPVerifyRequest{Username: *user, OTP: *code, Purpose: auth.OTPPurpose(*purpose)})
		if err != nil {
			return err
		}
		return c.out.message(resp)

	case "signup":
		if *user == "" || *password == "" {
			return errUsage
		}
		resp, err := c.client.SignUp(ctx, auth.UserCreateRequest{
			Username: *user,
			Password: *password,
			Details:  auth.UserDetails{Name: *fullName, PhoneNum: *user, Email: *email, Dob: *dob},
		})
		if err != nil {
			return err
		}
		c.client.SetToken(resp.Tokens.AccessToken)
		return c.out.tokens(resp.Tokens)

	case "scan":
		if len(positional) != 1 {
			return errUsage
		}
		bikeID, ok := qrcode.NewValidator(c.cfg.QRPrefix).BikeID(positional[0])
		if !ok {
			return errors.New(rental.InvalidQRMessage)
		}
		_, err := fmt.Fprintln(c.out.w, bikeID)
		return err

	case "decode":
		if len(positional) != 1 {
			return errUsage
		}
		path, err := geo.PolylineJSON(positional[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.out.w, path)
		return err

	case "login":
		if *user == "" || *password == "" {
			return errUsage
		}
		tokens, err := c.client.Login(ctx, *user, *password)
		if err != nil {
			return err
		}
		return c.out.tokens(tokens)

	case "stations":
		stations, err := c.client.Stations(ctx)
		if err != nil {
			return err
		}
		return c.out.stations(stations)

	case "nearby":
		la, errLat := strconv.ParseFloat(*lat, 64)
		ln, errLng := strconv.ParseFloat(*lng, 64)
		if errLat != nil || errLng != nil {
			return errUsage
		}
		stations, err := c.client.NearbyStations(ctx, la, ln, *radius)
		if err != nil {
			return err
		}
		return c.out.stations(stations)

	case "search":
		if len(positional) != 1 {
			return errUsage
		}
		stations, err := c.client.SearchStations(ctx, positional[0])
		if err != nil {
			return err
		}
		return c.out.stations(stations)

	case "station":
		if len(positional) != 1 {
			return errUsage
		}
		st, err := c.client.Station(ctx, positional[0])
		if err != nil {
			return err
		}
		if err := c.out.stations([]station.Station{st}); err != nil {
			return err
		}
		if c.out.format == formatTable {
			fmt.Fprintln(c.out.w, station.DirectionsURL(st.Coordinates.Lat, st.Coordinates.Lng))
		}
		return nil

	case "unlock":
		if len(positional) != 1 {
			return errUsage
		}
		started, err := c.client.Unlock(ctx, positional[0])
		if err != nil {
			return err
		}
		return c.out.trip(started)

	case "end":
		if len(positional) != 1 {
			return errUsage
		}
		var req rental.EndRequest
		if *lat != "" || *lng != "" {
			la, errLat := strconv.ParseFloat(*lat, 64)
			ln, errLng := strconv.ParseFloat(*lng, 64)
			if errLat != nil || errLng != nil {
				return errUsage
			}
			req.Latitude, req.Longitude = &la, &ln
		}
		receipt, err := c.client.EndRental(ctx, positional[0], req)
		if err != nil {
			return err
		}
		return c.out.receipt(receipt)

	case "trips":
		if *user == "" {
			return errUsage
		}
		items, err := history.NewTrips(c.client, *user, c.cfg.DisplayLocation()).Load(ctx)
		if err != nil {
			return err
		}
		return c.out.tripItems(items)

	case "transactions":
		if *user == "" {
			return errUsage
		}
		items, err := history.NewTransactions(c.client, *user, c.cfg.DisplayLocation()).Load(ctx)
		if err != nil {
			return err
		}
		return c.out.transactionItems(items)

	default:
		fmt.Fprintf(c.stderr, "unknown command %q\n", name)
		return errUsage
	}
}
