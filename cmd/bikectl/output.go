package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/auth"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/history"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/rental"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/shared/timefmt"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/station"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/trip"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

type printer struct {
	format string
	w      io.Writer
}

func newPrinter(format string, w io.Writer) (*printer, error) {
	switch format {
	case formatJSON, formatYAML, formatTable:
		return &printer{format: format, w: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// encode writes v as json or yaml and reports whether it did; table output
// is left to the caller.
func (p *printer) encode(v any) (bool, error) {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func (p *printer) table(header string, rows func(w io.Writer)) error {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	return tw.Flush()
}

func (p *printer) message(resp auth.OTPResponse) error {
	if done, err := p.encode(resp); done {
		return err
	}
	_, err := fmt.Fprintln(p.w, resp.Message)
	return err
}

func (p *printer) tokens(t auth.TokenResponse) error {
	if done, err := p.encode(t); done {
		return err
	}
	_, err := fmt.Fprintln(p.w, t.AccessToken)
	return err
}

func (p *printer) stations(stations []station.Station) error {
	if done, err := p.encode(stations); done {
		return err
	}
	return p.table("ID\tNAME\tAVAILABLE\tDISTANCE\tADDRESS", func(w io.Writer) {
		for _, st := range stations {
			distance := "-"
			if st.DistanceKm > 0 {
				distance = fmt.Sprintf("%.2f km", st.DistanceKm)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", st.ID, st.Name, st.AvailableBikes(), distance, st.Address)
		}
	})
}

func (p *printer) trip(d trip.Details) error {
	if done, err := p.encode(d); done {
		return err
	}
	return p.table("TRIP\tBIKE\tSTART\tSTATUS", func(w io.Writer) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.BikeID, d.StartStation, d.Status)
	})
}

func (p *printer) receipt(r rental.Receipt) error {
	if done, err := p.encode(r); done {
		return err
	}
	return p.table("TRIP\tEND\tDURATION\tDISTANCE\tFEE", func(w io.Writer) {
		duration, err := timefmt.FormatDuration(r.Trip.Duration)
		if err != nil {
			duration = r.Trip.Duration
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f km\t%s\n", r.Trip.ID, r.Trip.EndStation, duration, r.Trip.Distance/1000, timefmt.Amount(r.Trip.Fee))
	})
}

func (p *printer) tripItems(items []history.TripItem) error {
	if done, err := p.encode(items); done {
		return err
	}
	return p.table("TRIP\tTIME\tDURATION\tDISTANCE", func(w io.Writer) {
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.TimeRange, it.Duration, it.DistanceKm)
		}
	})
}

func (p *printer) transactionItems(items []history.TransactionItem) error {
	if done, err := p.encode(items); done {
		return err
	}
	return p.table("TIME\tSTATUS\tAMOUNT\tDESCRIPTION", func(w io.Writer) {
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.Timestamp, it.StatusLabel, it.Amount, it.Description)
		}
	})
}
