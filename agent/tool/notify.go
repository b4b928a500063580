package tool

import (
	"context"
	"errors"
	"strings"

	shipmentx "github.com/tanpawarit/cargo-dispatch/agent/shipment"
)

const EventShipmentBooked = "shipment.booked"

type Publisher interface {
	Publish(ctx context.Context, destination string, payload any) error
}

type BookingEvent struct {
	Event    string           `json:"event"`
	Shipment shipmentx.Record `json:"shipment"`
}

// QueueNotifier forwards booking events to a message queue destination.
type QueueNotifier struct {
	publisher   Publisher
	destination string
}

func NewQueueNotifier(publisher Publisher, destination string) (*QueueNotifier, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("notification destination is required")
	}
	return &QueueNotifier{publisher: publisher, destination: destination}, nil
}

func (n *QueueNotifier) ShipmentBooked(ctx context.Context, rec shipmentx.Record) error {
	return n.publisher.Publish(ctx, n.destination, BookingEvent{
		Event:    EventShipmentBooked,
		Shipment: rec,
	})
}
