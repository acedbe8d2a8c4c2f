package validate

import (
	"strconv"
	"strings"
)

// ParsePrice parses a scraped price string, tolerating currency symbols,
// thousands separators, and trailing noise ("$12,500 USD" -> 12500).
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "USD")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")

	// Cut trailing currency annotations.
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}

	if s == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return p, true
}

// kmToMiles converts kilometer odometer readings to miles.
const kmToMiles = 0.621371

// ParseMileage parses an odometer string ("72,450 miles" -> 72450).
// Kilometer-denominated readings convert to miles so all stored mileage
// shares one unit.
func ParseMileage(raw string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", "")

	kilometers := false
	for _, suffix := range []string{"kilometers", "kilometres", "km"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			kilometers = true
			break
		}
	}
	if !kilometers {
		for _, suffix := range []string{"miles", "mile", "mi"} {
			s = strings.TrimSuffix(s, suffix)
		}
	}
	s = strings.TrimSpace(s)

	n, ok := parseOdometer(s)
	if !ok {
		return 0, false
	}
	if kilometers {
		n = int(float64(n)*kmToMiles + 0.5)
	}
	return n, true
}

func parseOdometer(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some sources report mileage as a float ("72.5k").
		if f, ferr := strconv.ParseFloat(strings.TrimSuffix(s, "k"), 64); ferr == nil && strings.HasSuffix(s, "k") {
			return int(f * 1000), true
		}
		return 0, false
	}
	return n, true
}

func parseInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}
