package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

const keyPrefix = "ticketbeast:concert:"

// ListingCache keeps published concert snapshots in Redis.
type ListingCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewListingCache(rdb redis.Cmdable, ttl time.Duration) *ListingCache {
	return &ListingCache{rdb: rdb, ttl: ttl}
}

type cachedConcert struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Subtitle              string     `json:"subtitle"`
	Date                  time.Time  `json:"date"`
	TicketPrice           int64      `json:"ticket_price"`
	Venue                 string     `json:"venue"`
	VenueAddress          string     `json:"venue_address"`
	City                  string     `json:"city"`
	State                 string     `json:"state"`
	Zip                   string     `json:"zip"`
	AdditionalInformation string     `json:"additional_information"`
	PublishedAt           *time.Time `json:"published_at"`
	CreatedAt             time.Time  `json:"created_at"`
}

func key(concertID string) string {
	return keyPrefix + concertID
}

// Get returns the cached concert and whether it was present.
func (c *ListingCache) Get(ctx context.Context, concertID string) (domain.Concert, bool, error) {
	raw, err := c.rdb.Get(ctx, key(concertID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Concert{}, false, nil
	}
	if err != nil {
		return domain.Concert{}, false, fmt.Errorf("get cached concert: %w", err)
	}

	var cc cachedConcert
	if err := json.Unmarshal([]byte(raw), &cc); err != nil {
		return domain.Concert{}, false, fmt.Errorf("decode cached concert: %w", err)
	}
	return domain.Concert{
		ID:                    cc.ID,
		Title:                 cc.Title,
		Subtitle:              cc.Subtitle,
		Date:                  cc.Date,
		TicketPrice:           cc.TicketPrice,
		Venue:                 cc.Venue,
		VenueAddress:          cc.VenueAddress,
		City:                  cc.City,
		State:                 cc.State,
		Zip:                   cc.Zip,
		AdditionalInformation: cc.AdditionalInformation,
		PublishedAt:           cc.PublishedAt,
		CreatedAt:             cc.CreatedAt,
	}, true, nil
}

func (c *ListingCache) Set(ctx context.Context, concert domain.Concert) error {
	payload, err := encode(concert)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key(concert.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache concert: %w", err)
	}
	return nil
}

func (c *ListingCache) Invalidate(ctx context.Context, concertID string) error {
	if err := c.rdb.Del(ctx, key(concertID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached concert: %w", err)
	}
	return nil
}

func encode(concert domain.Concert) (string, error) {
	payload, err := json.Marshal(cachedConcert{
		ID:                    concert.ID,
		Title:                 concert.Title,
		Subtitle:              concert.Subtitle,
		Date:                  concert.Date,
		TicketPrice:           concert.TicketPrice,
		Venue:                 concert.Venue,
		VenueAddress:          concert.VenueAddress,
		City:                  concert.City,
		State:                 concert.State,
		Zip:                   concert.Zip,
		AdditionalInformation: concert.AdditionalInformation,
		PublishedAt:           concert.PublishedAt,
		CreatedAt:             concert.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("encode concert: %w", err)
	}
	return string(payload), nil
}
