// ABOUTME: Handlers for the travel quoting tools: flights, hotels, itineraries.
// ABOUTME: create_itinerary degrades incomplete or policy-violating input to an elicitation prompt.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tripquote/gateway/internal/booking"
)

// flightArgs are the arguments for search_flights.
type flightArgs struct {
	From       string `json:"from"`
	To         string `json:"to"`
	DepartDate string `json:"departDate"`
	ReturnDate string `json:"returnDate"`
	Passengers int    `json:"passengers"`
}

// hotelArgs are the arguments for search_hotels.
type hotelArgs struct {
	City         string `json:"city"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	Rooms        int    `json:"rooms"`
	Guests       int    `json:"guests"`
}

// itineraryArgs are the union of flight and hotel arguments.
type itineraryArgs struct {
	flightArgs
	hotelArgs
}

// fieldHints drive elicitation prompts for create_itinerary.
var fieldHints = map[string]string{
	"from":         "Origin city or 3-letter airport code",
	"to":           "Destination city or 3-letter airport code",
	"departDate":   "Departure date in YYYY-MM-DD format, today or later",
	"returnDate":   "Return date in YYYY-MM-DD format, after the departure date",
	"passengers":   "Number of travelers, a positive integer",
	"city":         "City for the hotel stay",
	"checkInDate":  "Hotel check-in date in YYYY-MM-DD format, today or later",
	"checkOutDate": "Hotel check-out date in YYYY-MM-DD format, after check-in",
	"rooms":        "Number of rooms, a positive integer",
}

// itineraryFieldOrder is the order missing fields are reported in.
var itineraryFieldOrder = []string{
	"from", "to", "departDate", "returnDate", "passengers",
	"city", "checkInDate", "checkOutDate", "rooms",
}

func (r *Registry) searchFlights(_ context.Context, raw json.RawMessage) Result {
	var args flightArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return ErrorResult("invalid arguments: " + err.Error())
	}

	if missing := missingFlightFields(args); len(missing) > 0 {
		return ErrorResult("missing required fields: " + strings.Join(missing, ", "))
	}
	if err := positiveCount("passengers", args.Passengers); err != nil {
		return ErrorResult(err.Error())
	}
	if err := validateFlightDates(args.DepartDate, args.ReturnDate, r.now()); err != nil {
		return ErrorResult(err.Error())
	}

	quote := booking.QuoteFlight(args.From, args.To, args.DepartDate, args.ReturnDate, args.Passengers)
	return JSONResult(struct {
		Summary string `json:"summary"`
		booking.FlightQuote
	}{
		Summary: fmt.Sprintf("Round trip %s-%s, %s to %s, %d passenger(s): $%.2f total",
			quote.Outbound.From, quote.Outbound.To, quote.Outbound.Date, quote.Inbound.Date,
			quote.Passengers, quote.Total),
		FlightQuote: quote,
	})
}

func (r *Registry) searchHotels(_ context.Context, raw json.RawMessage) Result {
	var args hotelArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return ErrorResult("invalid arguments: " + err.Error())
	}

	if missing := missingHotelFields(args); len(missing) > 0 {
		return ErrorResult("missing required fields: " + strings.Join(missing, ", "))
	}
	if err := validateStay(args.CheckInDate, args.CheckOutDate, args.Rooms, args.Guests, r.now()); err != nil {
		return ErrorResult(err.Error())
	}

	quote := booking.QuoteHotel(args.City, args.CheckInDate, args.CheckOutDate, args.Rooms, args.Guests)
	return JSONResult(struct {
		Summary string `json:"summary"`
		booking.HotelQuote
	}{
		Summary: fmt.Sprintf("%s in %s, %d night(s), %d room(s): $%.2f total",
			quote.Hotel, quote.City, quote.Nights, quote.Rooms, quote.Total),
		HotelQuote: quote,
	})
}

func (r *Registry) createItinerary(_ context.Context, raw json.RawMessage) Result {
	var args itineraryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return ErrorResult("invalid arguments: " + err.Error())
	}

	if missing := missingItineraryFields(args); len(missing) > 0 {
		fields := make([]MissingField, len(missing))
		for i, name := range missing {
			fields[i] = MissingField{Field: name, Hint: fieldHints[name]}
		}
		return ElicitationResult("More information is needed to build this itinerary.", fields)
	}

	// All fields present. Policy violations degrade to an elicitation prompt
	// re-asking for the date pair, so a conversational caller can correct the
	// input instead of retrying from scratch.
	if err := positiveCount("passengers", args.Passengers); err != nil {
		return ErrorResult(err.Error())
	}
	flightErr := validateFlightDates(args.DepartDate, args.ReturnDate, r.now())
	stayErr := validateStay(args.CheckInDate, args.CheckOutDate, args.Rooms, args.Guests, r.now())
	if flightErr != nil || stayErr != nil {
		problem := flightErr
		if problem == nil {
			problem = stayErr
		}
		return ElicitationResult(
			fmt.Sprintf("Those dates do not work: %v. Please provide new travel dates.", problem),
			[]MissingField{
				{Field: "departDate", Hint: fieldHints["departDate"]},
				{Field: "checkInDate", Hint: fieldHints["checkInDate"]},
			})
	}

	flight := booking.QuoteFlight(args.From, args.To, args.DepartDate, args.ReturnDate, args.Passengers)
	hotel := booking.QuoteHotel(args.City, args.CheckInDate, args.CheckOutDate, args.Rooms, args.Guests)
	it := booking.ComposeItinerary(flight, hotel)

	return JSONResult(struct {
		Summary string `json:"summary"`
		booking.Itinerary
	}{
		Summary: fmt.Sprintf("Itinerary for %d traveler(s): flights $%.2f + hotel $%.2f = $%.2f",
			flight.Passengers, flight.Total, hotel.Total, it.GrandTotal),
		Itinerary: it,
	})
}

func missingFlightFields(a flightArgs) []string {
	var missing []string
	if a.From == "" {
		missing = append(missing, "from")
	}
	if a.To == "" {
		missing = append(missing, "to")
	}
	if a.DepartDate == "" {
		missing = append(missing, "departDate")
	}
	if a.ReturnDate == "" {
		missing = append(missing, "returnDate")
	}
	if a.Passengers == 0 {
		missing = append(missing, "passengers")
	}
	return missing
}

func missingHotelFields(a hotelArgs) []string {
	var missing []string
	if a.City == "" {
		missing = append(missing, "city")
	}
	if a.CheckInDate == "" {
		missing = append(missing, "checkInDate")
	}
	if a.CheckOutDate == "" {
		missing = append(missing, "checkOutDate")
	}
	if a.Rooms == 0 {
		missing = append(missing, "rooms")
	}
	return missing
}

func missingItineraryFields(a itineraryArgs) []string {
	present := map[string]bool{
		"from":         a.From != "",
		"to":           a.To != "",
		"departDate":   a.DepartDate != "",
		"returnDate":   a.ReturnDate != "",
		"passengers":   a.Passengers != 0,
		"city":         a.City != "",
		"checkInDate":  a.CheckInDate != "",
		"checkOutDate": a.CheckOutDate != "",
		"rooms":        a.Rooms != 0,
	}

	var missing []string
	for _, name := range itineraryFieldOrder {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
