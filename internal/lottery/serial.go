package lottery

import (
	"regexp"
	"strconv"
)

// Pack serials are three-digit zero-padded strings, 000 through 999.
var serialPattern = regexp.MustCompile(`^[0-9]{3}$`)

// ValidSerial reports whether s is a well-formed three-digit serial.
func ValidSerial(s string) bool {
	return serialPattern.MatchString(s)
}

// parseSerial returns the numeric value of a serial, or ok=false when
// the input is malformed or out of range.
func parseSerial(s string) (int, bool) {
	if !serialPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 999 {
		return 0, false
	}
	return n, true
}

// TicketsSold computes tickets sold for a normally closed pack. The
// ending serial is the position of the next unsold ticket. Malformed
// input yields 0 rather than an error; committed data is bounds-checked
// by the validator before this runs.
func TicketsSold(ending, starting string) int {
	e, ok := parseSerial(ending)
	if !ok {
		return 0
	}
	s, ok := parseSerial(starting)
	if !ok {
		return 0
	}
	if e < s {
		return 0
	}
	return e - s
}

// TicketsSoldDepleted computes tickets sold for a pack explicitly marked
// sold out. serialEnd is the last valid ticket index (0-based), so the
// count includes that final ticket. The depletion formula is chosen only
// by the explicit sold-out flag: a scan that happens to land on
// serialEnd must not be treated as depletion.
func TicketsSoldDepleted(serialEnd, starting string) int {
	e, ok := parseSerial(serialEnd)
	if !ok {
		return 0
	}
	s, ok := parseSerial(starting)
	if !ok {
		return 0
	}
	if e+1 < s {
		return 0
	}
	return e + 1 - s
}
