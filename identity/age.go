package identity

import (
	"log/slog"
	"strconv"
	"time"
)

// ageBounds is the sanity range for a derived age. Values outside it are
// discarded rather than surfaced, guarding against nonsensical model
// output like future dates.
const (
	minAge = 0
	maxAge = 120
)

// deriveAge computes an age from a date-of-birth string as of now. Two
// shapes are recognized: a bare 4-digit year and a full YYYY-MM-DD date.
// Anything else, and any out-of-bounds result, yields nil with a log entry
// but no user-facing error.
func deriveAge(dob string, now time.Time) *int {
	var age int
	switch {
	case len(dob) == 4 && allDigits(dob):
		year, err := strconv.Atoi(dob)
		if err != nil {
			return nil
		}
		age = now.Year() - year

	case len(dob) == 10 && dob[4] == '-' && dob[7] == '-':
		birth, err := time.Parse("2006-01-02", dob)
		if err != nil {
			slog.Warn("identity: unparseable date of birth", "dob", dob, "error", err)
			return nil
		}
		age = now.Year() - birth.Year()
		// Decrement when the birthday has not occurred yet this year.
		if now.Month() < birth.Month() ||
			(now.Month() == birth.Month() && now.Day() < birth.Day()) {
			age--
		}

	default:
		slog.Warn("identity: unrecognized date of birth format", "dob", dob)
		return nil
	}

	if age < minAge || age > maxAge {
		slog.Warn("identity: implausible age discarded", "dob", dob, "age", age)
		return nil
	}
	return &age
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
