package shipment

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStoreWrite     = errors.New("shipment store write failed")
	ErrStoreRead      = errors.New("shipment store read failed")
	ErrRecordNotFound = errors.New("shipment not found")
	ErrInvalidRecord  = errors.New("invalid shipment record")
)

const (
	StatusPending    = "Pending"
	StatusInTransit  = "In Transit"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
	defaultKeyPrefix = "cargo:shipment:"
)

// Record is one booked cargo movement. Records are never deleted.
type Record struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Weight      string    `json:"weight"`
	Item        string    `json:"item"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Route renders "origin to destination".
func (r Record) Route() string {
	return r.Origin + " to " + r.Destination
}

type NewRecord struct {
	Origin      string
	Destination string
	Weight      string
	Item        string
}

func (n NewRecord) normalize() NewRecord {
	return NewRecord{
		Origin:      strings.TrimSpace(n.Origin),
		Destination: strings.TrimSpace(n.Destination),
		Weight:      strings.TrimSpace(n.Weight),
		Item:        strings.TrimSpace(n.Item),
	}
}

// build assigns identity and defaults. Every driver creates records through it.
func (n NewRecord) build(now time.Time) (Record, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Record{}, err
	}
	n = n.normalize()
	return Record{
		ID:          id.String(),
		Origin:      n.Origin,
		Destination: n.Destination,
		Weight:      n.Weight,
		Item:        n.Item,
		Status:      StatusPending,
		CreatedAt:   now.UTC(),
	}, nil
}
