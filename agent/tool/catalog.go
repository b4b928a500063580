package tool

import contractx "github.com/tanpawarit/cargo-dispatch/agent/contract"

const (
	ActionGetQuote          = "get_quote"
	ActionGetShipmentStatus = "get_shipment_status"
	ActionBookShipment      = "book_shipment"
)

func stringParam(name, desc string) contractx.ParameterSpec {
	return contractx.ParameterSpec{Name: name, Desc: desc, Type: contractx.ParamString, Required: true}
}

func quoteSchema() contractx.ActionSchema {
	return contractx.ActionSchema{
		Name: ActionGetQuote,
		Desc: "Calculate the shipping price based on weight and route.",
		Parameters: []contractx.ParameterSpec{
			stringParam("origin", "City the cargo ships from"),
			stringParam("destination", "City the cargo ships to"),
			stringParam("weight", "Cargo weight with unit, e.g. 500kg"),
		},
	}
}

func statusSchema() contractx.ActionSchema {
	return contractx.ActionSchema{
		Name: ActionGetShipmentStatus,
		Desc: "Get the status of all current shipments.",
	}
}

func bookingSchema() contractx.ActionSchema {
	return contractx.ActionSchema{
		Name: ActionBookShipment,
		Desc: "Book a new cargo shipment once origin, destination, weight and item are known.",
		Parameters: []contractx.ParameterSpec{
			stringParam("origin", "City the cargo ships from"),
			stringParam("destination", "City the cargo ships to"),
			stringParam("weight", "Cargo weight with unit, e.g. 500kg"),
			stringParam("item", "What is being shipped"),
		},
	}
}
