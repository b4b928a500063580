package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	shipmentx "github.com/tanpawarit/cargo-dispatch/agent/shipment"
)

type failingStore struct {
	createErr error
	listErr   error
}

func (f *failingStore) Create(context.Context, shipmentx.NewRecord) (shipmentx.Record, error) {
	return shipmentx.Record{}, f.createErr
}

func (f *failingStore) List(context.Context) ([]shipmentx.Record, error) {
	return nil, f.listErr
}

func (f *failingStore) UpdateStatus(context.Context, string, string) (shipmentx.Record, error) {
	return shipmentx.Record{}, shipmentx.ErrRecordNotFound
}

func (f *failingStore) Close() error {
	return nil
}

type fakeNotifier struct {
	err    error
	events []shipmentx.Record
}

func (f *fakeNotifier) ShipmentBooked(ctx context.Context, rec shipmentx.Record) error {
	f.events = append(f.events, rec)
	return f.err
}

func newTestCargoRegistry(t *testing.T, store shipmentx.Store, notifier Notifier) *Registry {
	t.Helper()
	reg, err := NewCargoRegistry(CargoDeps{Store: store, Notifier: notifier})
	if err != nil {
		t.Fatalf("NewCargoRegistry() error = %v", err)
	}
	return reg
}

func TestNewCargoRegistrySchemas(t *testing.T) {
	t.Parallel()

	reg := newTestCargoRegistry(t, shipmentx.NewMemoryStore(), nil)
	schemas := reg.Schemas()
	if len(schemas) != 3 {
		t.Fatalf("expected 3 schemas, got %d", len(schemas))
	}
	want := []string{ActionGetQuote, ActionGetShipmentStatus, ActionBookShipment}
	for i, name := range want {
		if schemas[i].Name != name {
			t.Fatalf("schema[%d] = %s, want %s", i, schemas[i].Name, name)
		}
	}
	if len(schemas[2].Parameters) != 4 {
		t.Fatalf("book_shipment expects 4 parameters, got %d", len(schemas[2].Parameters))
	}
	for _, p := range schemas[2].Parameters {
		if !p.Required {
			t.Fatalf("parameter %s must be required", p.Name)
		}
	}
}

func TestNewCargoRegistryRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewCargoRegistry(CargoDeps{}); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestGetQuote(t *testing.T) {
	t.Parallel()

	reg := newTestCargoRegistry(t, shipmentx.NewMemoryStore(), nil)
	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "numeric weight",
			args: map[string]any{"origin": "Delhi", "destination": "Mumbai", "weight": "500kg"},
			want: "Estimated Quote: $25000.00 for shipping 500kg from Delhi to Mumbai.",
		},
		{
			name: "non numeric weight is zero",
			args: map[string]any{"origin": "A", "destination": "B", "weight": "abckg"},
			want: "Estimated Quote: $0.00 for shipping abckg from A to B.",
		},
		{
			name: "json number weight",
			args: map[string]any{"origin": "A", "destination": "B", "weight": float64(20)},
			want: "Estimated Quote: $1000.00 for shipping 20 from A to B.",
		},
		{
			name: "negative weight is free",
			args: map[string]any{"origin": "A", "destination": "B", "weight": "-5kg"},
			want: "Estimated Quote: $0.00 for shipping -5kg from A to B.",
		},
		{
			name: "missing weight",
			args: map[string]any{"origin": "A", "destination": "B"},
			want: "Failed to get quote: missing weight.",
		},
		{
			name: "blank route",
			args: map[string]any{"origin": " ", "weight": "10kg"},
			want: "Failed to get quote: missing origin, destination.",
		},
	}

	for _, tc := range cases {
		for i := 0; i < 2; i++ {
			out, err := execute(t, reg, ActionGetQuote, tc.args)
			if err != nil {
				t.Fatalf("%s: handler error = %v", tc.name, err)
			}
			if out != tc.want {
				t.Fatalf("%s: got %q, want %q", tc.name, out, tc.want)
			}
		}
	}
}

func TestGetQuoteInvalidArguments(t *testing.T) {
	t.Parallel()

	reg := newTestCargoRegistry(t, shipmentx.NewMemoryStore(), nil)
	out, err := execute(t, reg, ActionGetQuote, map[string]any{
		"origin": map[string]any{"city": "Delhi"},
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !strings.HasPrefix(out, "Invalid arguments for get_quote") {
		t.Fatalf("unexpected reply: %q", out)
	}
}

func TestGetShipmentStatusEmpty(t *testing.T) {
	t.Parallel()

	reg := newTestCargoRegistry(t, shipmentx.NewMemoryStore(), nil)
	out, err := execute(t, reg, ActionGetShipmentStatus, nil)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if out != NoShipmentsReply {
		t.Fatalf("got %q, want %q", out, NoShipmentsReply)
	}
}

func TestGetShipmentStatusListFailurePropagates(t *testing.T) {
	t.Parallel()

	listErr := fmt.Errorf("%w: connection refused", shipmentx.ErrStoreRead)
	reg := newTestCargoRegistry(t, &failingStore{listErr: listErr}, nil)
	_, err := execute(t, reg, ActionGetShipmentStatus, nil)
	if !errors.Is(err, shipmentx.ErrStoreRead) {
		t.Fatalf("expected ErrStoreRead, got %v", err)
	}
}

func TestBookShipmentTwiceThenStatus(t *testing.T) {
	t.Parallel()

	store := shipmentx.NewMemoryStore()
	notifier := &fakeNotifier{}
	reg := newTestCargoRegistry(t, store, notifier)
	args := map[string]any{"origin": "Delhi", "destination": "Mumbai", "weight": "500kg", "item": "Textiles"}

	first, err := execute(t, reg, ActionBookShipment, args)
	if err != nil {
		t.Fatalf("first booking error = %v", err)
	}
	second, err := execute(t, reg, ActionBookShipment, args)
	if err != nil {
		t.Fatalf("second booking error = %v", err)
	}
	if first == second {
		t.Fatalf("bookings must produce distinct confirmations: %q", first)
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID == records[1].ID {
		t.Fatal("records must have distinct ids")
	}
	if !strings.Contains(second, records[0].ID) || !strings.Contains(first, records[1].ID) {
		t.Fatalf("list must be newest first: %#v", records)
	}
	wantSecond := fmt.Sprintf("Shipment booked! ID: %s. Textiles (500kg) from Delhi to Mumbai is Pending.", records[0].ID)
	if second != wantSecond {
		t.Fatalf("got %q, want %q", second, wantSecond)
	}
	if len(notifier.events) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notifier.events))
	}

	status, err := execute(t, reg, ActionGetShipmentStatus, nil)
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	for _, r := range records {
		if !strings.Contains(status, r.ID) {
			t.Fatalf("status summary missing id %s: %q", r.ID, status)
		}
	}
}

func TestBookShipmentStoreFailureBecomesReply(t *testing.T) {
	t.Parallel()

	createErr := fmt.Errorf("%w: disk full", shipmentx.ErrStoreWrite)
	reg := newTestCargoRegistry(t, &failingStore{createErr: createErr}, nil)
	out, err := execute(t, reg, ActionBookShipment, map[string]any{
		"origin": "A", "destination": "B", "weight": "1kg", "item": "x",
	})
	if err != nil {
		t.Fatalf("booking failure must not propagate, got %v", err)
	}
	if !strings.HasPrefix(out, "Failed to book shipment:") || !strings.Contains(out, "disk full") {
		t.Fatalf("unexpected reply: %q", out)
	}
}

func TestBookShipmentMissingArguments(t *testing.T) {
	t.Parallel()

	store := shipmentx.NewMemoryStore()
	reg := newTestCargoRegistry(t, store, nil)
	out, err := execute(t, reg, ActionBookShipment, map[string]any{
		"origin": "A", "destination": "B", "weight": "1kg",
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if out != "Failed to book shipment: missing item." {
		t.Fatalf("unexpected reply: %q", out)
	}
	records, _ := store.List(context.Background())
	if len(records) != 0 {
		t.Fatalf("no record must be created, got %d", len(records))
	}
}

func TestBookShipmentNotifierFailureIgnored(t *testing.T) {
	t.Parallel()

	reg := newTestCargoRegistry(t, shipmentx.NewMemoryStore(), &fakeNotifier{err: errors.New("queue down")})
	out, err := execute(t, reg, ActionBookShipment, map[string]any{
		"origin": "A", "destination": "B", "weight": "1kg", "item": "x",
	})
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if !strings.HasPrefix(out, "Shipment booked! ID: ") {
		t.Fatalf("unexpected reply: %q", out)
	}
}

func TestFormatStatusSummaryGolden(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	records := []shipmentx.Record{
		{
			ID:          "0190a1b2-0000-7000-8000-000000000002",
			Origin:      "Pune",
			Destination: "Chennai",
			Weight:      "20kg",
			Item:        "Spices",
			Status:      shipmentx.StatusInTransit,
			CreatedAt:   now.Add(time.Minute),
		},
		{
			ID:          "0190a1b2-0000-7000-8000-000000000001",
			Origin:      "Delhi",
			Destination: "Mumbai",
			Weight:      "500kg",
			Item:        "Textiles",
			Status:      shipmentx.StatusPending,
			CreatedAt:   now,
		},
	}

	g := goldie.New(t)
	g.Assert(t, "status_summary", []byte(FormatStatusSummary(records)))
}

type recordingPublisher struct {
	destination string
	payload     any
}

func (r *recordingPublisher) Publish(ctx context.Context, destination string, payload any) error {
	r.destination = destination
	r.payload = payload
	return nil
}

func TestQueueNotifier(t *testing.T) {
	t.Parallel()

	if _, err := NewQueueNotifier(nil, "https://example.com"); err == nil {
		t.Fatal("expected error for nil publisher")
	}
	pub := &recordingPublisher{}
	if _, err := NewQueueNotifier(pub, "  "); err == nil {
		t.Fatal("expected error for empty destination")
	}

	n, err := NewQueueNotifier(pub, "https://hooks.example.com/booked")
	if err != nil {
		t.Fatalf("NewQueueNotifier() error = %v", err)
	}
	rec := shipmentx.Record{ID: "s1", Status: shipmentx.StatusPending}
	if err := n.ShipmentBooked(context.Background(), rec); err != nil {
		t.Fatalf("ShipmentBooked() error = %v", err)
	}
	if pub.destination != "https://hooks.example.com/booked" {
		t.Fatalf("unexpected destination: %s", pub.destination)
	}
	event, ok := pub.payload.(BookingEvent)
	if !ok || event.Event != EventShipmentBooked || event.Shipment.ID != "s1" {
		t.Fatalf("unexpected payload: %#v", pub.payload)
	}
}
