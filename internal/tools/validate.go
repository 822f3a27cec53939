// ABOUTME: Per-tool argument validation helpers: strict dates, counts, derived constraints.
// ABOUTME: Dates compare at day granularity in UTC; policy is "today or later".

package tools

import (
	"fmt"
	"time"

	"github.com/tripquote/gateway/internal/booking"
)

// maxStayNights bounds hotel stay length.
const maxStayNights = 30

// maxGuestsPerRoom bounds occupancy.
const maxGuestsPerRoom = 4

// parseDate validates the strict YYYY-MM-DD format.
func parseDate(field, value string) (time.Time, error) {
	d, err := time.ParseInLocation(booking.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a calendar date in YYYY-MM-DD format", field)
	}
	return d, nil
}

// notPast rejects dates strictly before today (UTC, day granularity).
func notPast(field string, d time.Time, now time.Time) error {
	today := now.UTC().Truncate(24 * time.Hour)
	if d.Before(today) {
		return fmt.Errorf("%s must not be in the past", field)
	}
	return nil
}

// positiveCount rejects zero and negative counts.
func positiveCount(field string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%s must be a positive integer", field)
	}
	return nil
}

// validateFlightDates checks format, past-date policy, and ordering for a
// round trip. Returns the first violation.
func validateFlightDates(departDate, returnDate string, now time.Time) error {
	depart, err := parseDate("departDate", departDate)
	if err != nil {
		return err
	}
	ret, err := parseDate("returnDate", returnDate)
	if err != nil {
		return err
	}
	if err := notPast("departDate", depart, now); err != nil {
		return err
	}
	if !ret.After(depart) {
		return fmt.Errorf("returnDate must be after departDate")
	}
	return nil
}

// validateStay checks format, past-date policy, ordering, stay length, and
// occupancy for a hotel stay.
func validateStay(checkInDate, checkOutDate string, rooms, guests int, now time.Time) error {
	checkIn, err := parseDate("checkInDate", checkInDate)
	if err != nil {
		return err
	}
	checkOut, err := parseDate("checkOutDate", checkOutDate)
	if err != nil {
		return err
	}
	if err := notPast("checkInDate", checkIn, now); err != nil {
		return err
	}
	if !checkOut.After(checkIn) {
		return fmt.Errorf("checkOutDate must be after checkInDate")
	}
	if err := positiveCount("rooms", rooms); err != nil {
		return err
	}
	if nights := booking.Nights(checkInDate, checkOutDate); nights > maxStayNights {
		return fmt.Errorf("stay length of %d nights exceeds the %d-night maximum", nights, maxStayNights)
	}
	if guests > 0 && guests > rooms*maxGuestsPerRoom {
		return fmt.Errorf("%d guests exceed the maximum of %d per room across %d room(s)", guests, maxGuestsPerRoom, rooms)
	}
	if guests < 0 {
		return fmt.Errorf("guests must be a positive integer")
	}
	return nil
}
