// Package zodiac maps calendar dates to the twelve tropical signs and
// normalizes the three-letter sign codes produced by chart computations.
package zodiac

import (
	"errors"
	"fmt"
	"time"

	"github.com/tartampluch/go-astrology/internal/config"
)

var (
	// ErrInvalidDate is returned when day or month are outside 1..31 / 1..12.
	ErrInvalidDate = errors.New(config.ErrInvalidDate)
	// ErrNoMatch is the no-match sentinel. It is unreachable for real calendar
	// dates because the ranges partition the year.
	ErrNoMatch = errors.New(config.ErrNoSignMatch)
	// ErrUnknownCode is returned by ParseCode for codes outside the table.
	ErrUnknownCode = errors.New(config.ErrUnknownSignCode)
)

// Sign is a zodiac sign. Its integer value is the 1-based ordinal in the
// Aries-first ordering, which the horoscope site uses in its URLs.
type Sign int

const (
	Aries Sign = iota + 1
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// Count is the number of signs.
const Count = 12

// signTable holds, per sign, its label, chart code and date range.
// Indexed by Sign; index 0 is unused.
type signInfo struct {
	name       string
	code       string
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

var signTable = [Count + 1]signInfo{
	Aries:       {"Aries", "Ari", time.March, 21, time.April, 19},
	Taurus:      {"Taurus", "Tau", time.April, 20, time.May, 20},
	Gemini:      {"Gemini", "Gem", time.May, 21, time.June, 19},
	Cancer:      {"Cancer", "Can", time.June, 20, time.July, 22},
	Leo:         {"Leo", "Leo", time.July, 23, time.August, 22},
	Virgo:       {"Virgo", "Vir", time.August, 23, time.September, 22},
	Libra:       {"Libra", "Lib", time.September, 23, time.October, 22},
	Scorpio:     {"Scorpio", "Sco", time.October, 23, time.November, 21},
	Sagittarius: {"Sagittarius", "Sag", time.November, 22, time.December, 21},
	Capricorn:   {"Capricorn", "Cap", time.December, 22, time.January, 19},
	Aquarius:    {"Aquarius", "Aqu", time.January, 20, time.February, 18},
	Pisces:      {"Pisces", "Pis", time.February, 19, time.March, 20},
}

// codeIndex is the reverse lookup for ParseCode.
var codeIndex = buildCodeIndex()

// buildCodeIndex panics if the sign table has a gap or a duplicate code.
func buildCodeIndex() map[string]Sign {
	idx := make(map[string]Sign, Count)
	for s := Aries; s <= Pisces; s++ {
		info := signTable[s]
		if info.name == "" || info.code == "" || info.startDay == 0 || info.endDay == 0 {
			panic(fmt.Sprintf("zodiac: incomplete table entry for sign %d", int(s)))
		}
		if prev, dup := idx[info.code]; dup {
			panic(fmt.Sprintf("zodiac: code %q shared by %s and %s", info.code, prev, info.name))
		}
		idx[info.code] = s
	}
	return idx
}

// All returns the signs in Aries-first order.
func All() []Sign {
	out := make([]Sign, 0, Count)
	for s := Aries; s <= Pisces; s++ {
		out = append(out, s)
	}
	return out
}

// Valid reports whether s is one of the twelve signs.
func (s Sign) Valid() bool { return s >= Aries && s <= Pisces }

// Ordinal returns the 1-based position in the Aries-first ordering.
func (s Sign) Ordinal() int { return int(s) }

// String returns the full sign name, e.g. "Capricorn".
func (s Sign) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signTable[s].name
}

// Code returns the three-letter abbreviation, e.g. "Cap".
func (s Sign) Code() string {
	if !s.Valid() {
		return ""
	}
	return signTable[s].code
}

// Resolve returns the sign for a day and month. Ranges are checked in
// Aries-first order; a date matches when it is on or after the start day
// in the start month, or on or before the end day in the end month.
func Resolve(day int, month time.Month) (Sign, error) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return 0, fmt.Errorf("%w: day %d month %d", ErrInvalidDate, day, int(month))
	}
	for s := Aries; s <= Pisces; s++ {
		r := signTable[s]
		if (month == r.startMonth && day >= r.startDay) || (month == r.endMonth && day <= r.endDay) {
			return s, nil
		}
	}
	return 0, ErrNoMatch
}

// ForDate resolves the sign of a calendar date.
func ForDate(t time.Time) (Sign, error) {
	return Resolve(t.Day(), t.Month())
}

// ParseCode normalizes an abbreviated sign code ("Ari", "Can", ...) to a Sign.
func ParseCode(code string) (Sign, error) {
	s, ok := codeIndex[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	return s, nil
}
