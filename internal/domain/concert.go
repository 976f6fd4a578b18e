package domain

import "time"

// Concert is the owner of a ticket pool. Prices are in cents.
type Concert struct {
	ID                    string
	Title                 string
	Subtitle              string
	Date                  time.Time
	TicketPrice           int64
	Venue                 string
	VenueAddress          string
	City                  string
	State                 string
	Zip                   string
	AdditionalInformation string
	PublishedAt           *time.Time
	CreatedAt             time.Time
}

func (c Concert) IsPublished() bool {
	return c.PublishedAt != nil
}
