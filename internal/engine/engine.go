// Package engine runs the reading pipelines: it validates raw person data,
// resolves signs and chart placements, fetches reading text and hands a
// flat row to the persistence sink. A row is only built after every step
// has succeeded, so failed runs leave the sink untouched.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/geo"
	"github.com/tartampluch/go-astrology/internal/validate"
	"github.com/tartampluch/go-astrology/internal/zodiac"
)

// ErrContentUnavailable covers every fetch or extraction failure.
var ErrContentUnavailable = errors.New(config.ErrContentUnavailable)

// CityLookup resolves a city name to coordinates. *geo.Dataset implements it.
type CityLookup interface {
	Lookup(city, country string) (geo.Coordinates, error)
}

// TimezoneResolver resolves coordinates to an IANA zone. *geo.TZFinder implements it.
type TimezoneResolver interface {
	Resolve(lat, lng float64) (string, error)
}

// Timeframe is the granularity of a horoscope reading.
type Timeframe string

const (
	Daily   Timeframe = "Daily"
	Weekly  Timeframe = "Weekly"
	Monthly Timeframe = "Monthly"
	Yearly  Timeframe = "Yearly"
)

// Timeframes lists the supported timeframes in menu order.
var Timeframes = []Timeframe{Daily, Weekly, Monthly, Yearly}

// ParseTimeframe accepts one of the Timeframes labels.
func ParseTimeframe(s string) (Timeframe, error) {
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("%s: %q", config.ErrUnknownTimeframe, s)
}

// PersonInput is raw, unvalidated person data as typed by the user.
type PersonInput struct {
	Name      string
	BirthDate string
	BirthTime string
	City      string
	Country   string
}

// Person is validated person data. BirthTime, City and Country are only set
// for birth charts.
type Person struct {
	Name      string
	BirthDate time.Time
	BirthTime *validate.TimeOfDay
	City      string
	Country   string
}

// Sign resolves the person's zodiac sign from the birth date.
func (p Person) Sign() (zodiac.Sign, error) {
	return zodiac.ForDate(p.BirthDate)
}

// parseIdentity validates name then birth date.
func parseIdentity(in PersonInput) (Person, error) {
	name, err := validate.Name(in.Name)
	if err != nil {
		return Person{}, err
	}
	date, err := validate.Date(in.BirthDate)
	if err != nil {
		return Person{}, err
	}
	return Person{Name: name, BirthDate: date}, nil
}

// parseBirth validates name, date, time, city and country in that order.
func parseBirth(in PersonInput) (Person, error) {
	p, err := parseIdentity(in)
	if err != nil {
		return Person{}, err
	}
	tod, err := validate.Time(in.BirthTime)
	if err != nil {
		return Person{}, err
	}
	city, err := validate.Location(in.City)
	if err != nil {
		return Person{}, err
	}
	country, err := validate.Location(in.Country)
	if err != nil {
		return Person{}, err
	}
	p.BirthTime = &tod
	p.City = city
	p.Country = country
	return p, nil
}
