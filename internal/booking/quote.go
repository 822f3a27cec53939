// ABOUTME: Deterministic mock quote generation for flights and hotels.
// ABOUTME: Prices derive from an FNV-1a hash of the normalized inputs, never from a clock or RNG.

package booking

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Carrier name/code pairs used for flight quotes. Order matters: selection is
// seed hash modulo list length.
var carriers = []struct {
	Name string
	Code string
}{
	{"Pacific Crest Air", "PC"},
	{"Bluebird Airlines", "BB"},
	{"Meridian Airways", "MD"},
	{"Cascade Jet", "CJ"},
	{"Atlas Continental", "AT"},
	{"Harborline", "HL"},
}

// Hotel names used for hotel quotes, selected the same way.
var hotelNames = []string{
	"The Grand Meridian",
	"Harborview Suites",
	"The Juniper Hotel",
	"Stately Pines Inn",
	"Citadel Plaza",
	"Lantern & Vine",
	"The Wren",
	"Aurora House",
}

// Price bounds in cents. Leg prices land in [flightMinCents, flightMinCents+flightSpanCents)
// per seat; nightly rates in [hotelMinCents, hotelMinCents+hotelSpanCents) per room.
const (
	flightMinCents  = 8900
	flightSpanCents = 120000
	hotelMinCents   = 7500
	hotelSpanCents  = 40000

	// occupancySurchargePct is added to the nightly rate when average
	// guests-per-room exceeds one.
	occupancySurchargePct = 20
)

// Leg is one direction of a round-trip flight quote.
type Leg struct {
	Carrier string  `json:"carrier"`
	Flight  string  `json:"flight"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Date    string  `json:"date"`
	Price   float64 `json:"price"`
}

// FlightQuote is a priced round trip. Total is always the sum of the two legs;
// each leg price already includes the passenger count.
type FlightQuote struct {
	Outbound   Leg     `json:"outbound"`
	Inbound    Leg     `json:"inbound"`
	Passengers int     `json:"passengers"`
	Currency   string  `json:"currency"`
	Total      float64 `json:"total"`
}

// HotelQuote is a priced stay. Total = PricePerNight * Nights * Rooms.
type HotelQuote struct {
	Hotel         string  `json:"hotel"`
	City          string  `json:"city"`
	Rooms         int     `json:"rooms"`
	Guests        int     `json:"guests"`
	CheckIn       string  `json:"checkInDate"`
	CheckOut      string  `json:"checkOutDate"`
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"pricePerNight"`
	Currency      string  `json:"currency"`
	Total         float64 `json:"total"`
}

// Itinerary composes one flight quote and one hotel quote. Computed on demand,
// never stored.
type Itinerary struct {
	Flight     FlightQuote `json:"flight"`
	Hotel      HotelQuote  `json:"hotel"`
	Currency   string      `json:"currency"`
	GrandTotal float64     `json:"grandTotal"`
}

// seed returns a stable non-cryptographic hash of the canonical key.
func seed(key string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return h.Sum64()
}

// legSeatCents returns the per-seat price in cents for a single leg.
func legSeatCents(from, to, date string) int64 {
	h := seed(fmt.Sprintf("flight|%s|%s|%s", from, to, date))
	return flightMinCents + int64(h%flightSpanCents)
}

// quoteLeg builds one priced leg for the given route and date.
func quoteLeg(from, to, date string, passengers int) Leg {
	h := seed(fmt.Sprintf("flight|%s|%s|%s", from, to, date))
	c := carriers[h%uint64(len(carriers))]
	cents := legSeatCents(from, to, date) * int64(passengers)
	return Leg{
		Carrier: c.Name,
		Flight:  fmt.Sprintf("%s%d", c.Code, 100+h%900),
		From:    from,
		To:      to,
		Date:    date,
		Price:   centsToAmount(cents),
	}
}

// QuoteFlight prices a round trip between two places. Origin and destination
// accept either a 3-letter airport code or a known city name; inputs are
// normalized before hashing so "sfo" and "San Francisco" quote identically.
func QuoteFlight(origin, destination, departDate, returnDate string, passengers int) FlightQuote {
	from := NormalizePlace(origin)
	to := NormalizePlace(destination)

	out := quoteLeg(from, to, departDate, passengers)
	in := quoteLeg(to, from, returnDate, passengers)

	return FlightQuote{
		Outbound:   out,
		Inbound:    in,
		Passengers: passengers,
		Currency:   "USD",
		Total:      centsToAmount(amountToCents(out.Price) + amountToCents(in.Price)),
	}
}

// nightlyRateCents returns the per-room nightly rate in cents, including the
// occupancy surcharge when the stay averages more than one guest per room.
func nightlyRateCents(city, checkIn, checkOut string, rooms, guests int) int64 {
	h := seed(fmt.Sprintf("hotel|%s|%s|%s|%d", strings.ToLower(city), checkIn, checkOut, rooms))
	cents := int64(hotelMinCents + h%hotelSpanCents)
	if guests > rooms {
		cents += cents * occupancySurchargePct / 100
	}
	return cents
}

// QuoteHotel prices a stay in the given city. Guests defaults to one per room
// when zero. Nights is the calendar-day difference between checkout and
// check-in; callers validate ordering before quoting.
func QuoteHotel(city, checkIn, checkOut string, rooms, guests int) HotelQuote {
	if guests <= 0 {
		guests = rooms
	}
	nights := Nights(checkIn, checkOut)
	rate := nightlyRateCents(city, checkIn, checkOut, rooms, guests)

	h := seed(fmt.Sprintf("hotelname|%s|%s", strings.ToLower(city), checkIn))
	name := hotelNames[h%uint64(len(hotelNames))]

	return HotelQuote{
		Hotel:         name,
		City:          city,
		Rooms:         rooms,
		Guests:        guests,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        nights,
		PricePerNight: centsToAmount(rate),
		Currency:      "USD",
		Total:         centsToAmount(rate * int64(nights) * int64(rooms)),
	}
}

// ComposeItinerary bundles a flight and hotel quote with a grand total.
func ComposeItinerary(f FlightQuote, h HotelQuote) Itinerary {
	return Itinerary{
		Flight:     f,
		Hotel:      h,
		Currency:   "USD",
		GrandTotal: centsToAmount(amountToCents(f.Total) + amountToCents(h.Total)),
	}
}

// Nights returns the calendar-day difference between two YYYY-MM-DD dates.
// Both dates must already be validated; malformed input yields zero.
func Nights(checkIn, checkOut string) int {
	in, err1 := time.ParseInLocation(DateLayout, checkIn, time.UTC)
	out, err2 := time.ParseInLocation(DateLayout, checkOut, time.UTC)
	if err1 != nil || err2 != nil {
		return 0
	}
	d := out.Sub(in)
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}

// DateLayout is the strict calendar-date format accepted everywhere.
const DateLayout = "2006-01-02"

// Amounts travel as float dollars on the wire but all arithmetic happens in
// integer cents to keep quotes byte-identical across platforms.
func centsToAmount(cents int64) float64 { return float64(cents) / 100 }

func amountToCents(amount float64) int64 { return int64(amount*100 + 0.5) }
