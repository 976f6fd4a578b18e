// Package format renders concert values the way the public listing shows them.
package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

// Date renders "December 1, 2016".
func Date(t time.Time) string {
	return t.Format("January 2, 2006")
}

// StartTime renders "8:00pm".
func StartTime(t time.Time) string {
	return t.Format("3:04pm")
}

// Dollars renders cents as "1,234.50".
func Dollars(cents int64) string {
	amount := decimal.New(cents, -2)

	sign := ""
	if amount.IsNegative() {
		sign, amount = "-", amount.Abs()
	}
	whole := amount.IntPart()
	fraction := amount.Sub(decimal.NewFromInt(whole)).Shift(2).IntPart()
	return fmt.Sprintf("%s%s.%02d", sign, humanize.Comma(whole), fraction)
}

// Listing is the public view of a published concert.
type Listing struct {
	ID                    string `json:"id"`
	Title                 string `json:"title"`
	Subtitle              string `json:"subtitle"`
	Date                  string `json:"date"`
	FormattedDate         string `json:"formatted_date"`
	FormattedStartTime    string `json:"formatted_start_time"`
	TicketPrice           int64  `json:"ticket_price"`
	TicketPriceInDollars  string `json:"ticket_price_in_dollars"`
	Venue                 string `json:"venue"`
	VenueAddress          string `json:"venue_address"`
	City                  string `json:"city"`
	State                 string `json:"state"`
	Zip                   string `json:"zip"`
	AdditionalInformation string `json:"additional_information"`
}

func NewListing(c domain.Concert) Listing {
	return Listing{
		ID:                    c.ID,
		Title:                 c.Title,
		Subtitle:              c.Subtitle,
		Date:                  c.Date.Format(time.RFC3339),
		FormattedDate:         Date(c.Date),
		FormattedStartTime:    StartTime(c.Date),
		TicketPrice:           c.TicketPrice,
		TicketPriceInDollars:  Dollars(c.TicketPrice),
		Venue:                 c.Venue,
		VenueAddress:          c.VenueAddress,
		City:                  c.City,
		State:                 c.State,
		Zip:                   c.Zip,
		AdditionalInformation: c.AdditionalInformation,
	}
}
