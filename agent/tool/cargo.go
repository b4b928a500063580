package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"
	shipmentx "github.com/tanpawarit/cargo-dispatch/agent/shipment"
)

const NoShipmentsReply = "No shipments found."

// Pricing holds the flat-rate quote constants until a real distance provider exists.
type Pricing struct {
	DistanceKm float64 `split_words:"true" default:"500"`
	UnitRate   float64 `split_words:"true" default:"0.1"`
}

var DefaultPricing = Pricing{DistanceKm: 500, UnitRate: 0.1}

// Price never goes below zero; a signed weight such as "-5kg" quotes as free.
func (p Pricing) Price(w shipmentx.Weight) float64 {
	if w.Value <= 0 {
		return 0
	}
	return p.DistanceKm * float64(w.Value) * p.UnitRate
}

// Notifier is told about every successful booking. Failures never reach the user.
type Notifier interface {
	ShipmentBooked(ctx context.Context, rec shipmentx.Record) error
}

type noopNotifier struct{}

func (noopNotifier) ShipmentBooked(context.Context, shipmentx.Record) error {
	return nil
}

type CargoDeps struct {
	Store    shipmentx.Store
	Pricing  Pricing
	Notifier Notifier
}

// NewCargoRegistry registers get_quote, get_shipment_status and book_shipment.
func NewCargoRegistry(deps CargoDeps) (*Registry, error) {
	if deps.Store == nil {
		return nil, errors.New("shipment store is required")
	}
	if deps.Pricing == (Pricing{}) {
		deps.Pricing = DefaultPricing
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}

	h := &cargoHandlers{deps: deps}
	reg := NewRegistry()
	for _, a := range []struct {
		schema  func() contractx.ActionSchema
		handler contractx.ActionHandler
	}{
		{schema: quoteSchema, handler: h.getQuote},
		{schema: statusSchema, handler: h.getShipmentStatus},
		{schema: bookingSchema, handler: h.bookShipment},
	} {
		if err := reg.Register(a.schema(), a.handler); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

type cargoHandlers struct {
	deps CargoDeps
}

type quoteArgs struct {
	Origin      string `mapstructure:"origin"`
	Destination string `mapstructure:"destination"`
	Weight      string `mapstructure:"weight"`
}

type bookingArgs struct {
	Origin      string `mapstructure:"origin"`
	Destination string `mapstructure:"destination"`
	Weight      string `mapstructure:"weight"`
	Item        string `mapstructure:"item"`
}

func (q quoteArgs) missing() []string {
	return blankFields([][2]string{
		{"origin", q.Origin},
		{"destination", q.Destination},
		{"weight", q.Weight},
	})
}

func (b bookingArgs) missing() []string {
	return blankFields([][2]string{
		{"origin", b.Origin},
		{"destination", b.Destination},
		{"weight", b.Weight},
		{"item", b.Item},
	})
}

// blankFields returns the names of the name/value pairs whose value is blank.
func blankFields(fields [][2]string) []string {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			out = append(out, f[0])
		}
	}
	return out
}

// decodeArgs accepts numbers and booleans where strings are expected.
func decodeArgs(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(args)
}

func (h *cargoHandlers) getQuote(ctx context.Context, args map[string]any) (string, error) {
	var in quoteArgs
	if err := decodeArgs(args, &in); err != nil {
		return fmt.Sprintf("Invalid arguments for %s: %v", ActionGetQuote, err), nil
	}
	if missing := in.missing(); len(missing) > 0 {
		return fmt.Sprintf("Failed to get quote: missing %s.", strings.Join(missing, ", ")), nil
	}
	return FormatQuote(h.deps.Pricing, in.Origin, in.Destination, in.Weight), nil
}

func FormatQuote(p Pricing, origin, destination, weight string) string {
	price := p.Price(shipmentx.ParseWeight(weight))
	return fmt.Sprintf("Estimated Quote: $%.2f for shipping %s from %s to %s.",
		price, strings.TrimSpace(weight), strings.TrimSpace(origin), strings.TrimSpace(destination))
}

// getShipmentStatus propagates list failures: there is no safe partial answer.
func (h *cargoHandlers) getShipmentStatus(ctx context.Context, _ map[string]any) (string, error) {
	records, err := h.deps.Store.List(ctx)
	if err != nil {
		return "", err
	}
	return FormatStatusSummary(records), nil
}

func FormatStatusSummary(records []shipmentx.Record) string {
	if len(records) == 0 {
		return NoShipmentsReply
	}
	var b strings.Builder
	b.WriteString("Current shipments:")
	for _, r := range records {
		fmt.Fprintf(&b, "\n- %s: %s [%s]", r.ID, r.Route(), r.Status)
	}
	return b.String()
}

func (h *cargoHandlers) bookShipment(ctx context.Context, args map[string]any) (string, error) {
	var in bookingArgs
	if err := decodeArgs(args, &in); err != nil {
		return fmt.Sprintf("Failed to book shipment: invalid arguments: %v", err), nil
	}
	if missing := in.missing(); len(missing) > 0 {
		return fmt.Sprintf("Failed to book shipment: missing %s.", strings.Join(missing, ", ")), nil
	}

	rec, err := h.deps.Store.Create(ctx, shipmentx.NewRecord{
		Origin:      in.Origin,
		Destination: in.Destination,
		Weight:      in.Weight,
		Item:        in.Item,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("action", ActionBookShipment).Msg("create shipment failed")
		return fmt.Sprintf("Failed to book shipment: %v", err), nil
	}

	if err := h.deps.Notifier.ShipmentBooked(ctx, rec); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("shipment_id", rec.ID).Msg("booking notification failed")
	}

	return fmt.Sprintf("Shipment booked! ID: %s. %s (%s) from %s is %s.",
		rec.ID, rec.Item, rec.Weight, rec.Route(), rec.Status), nil
}
