// Package chart computes natal chart placements.
//
// The Computer interface is the only contract the rest of the application
// relies on: given fully resolved birth data it returns, per celestial body,
// the three-letter code of the sign the body occupies ("Ari", "Tau", ...).
// Ephemeris is the built-in implementation; it uses mean orbital elements
// and a truncated lunar series, which is accurate to well under a degree
// between 1800 and 2050.
package chart

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/tartampluch/go-astrology/internal/config"
)

// ErrComputation is the domain failure for inputs the ephemeris cannot handle.
var ErrComputation = errors.New(config.ErrChartComputation)

// Body identifies a chart point.
type Body string

const (
	Sun     Body = "sun"
	Moon    Body = "moon"
	Rising  Body = "rising"
	Mercury Body = "mercury"
	Venus   Body = "venus"
	Mars    Body = "mars"
	Jupiter Body = "jupiter"
	Saturn  Body = "saturn"
	Uranus  Body = "uranus"
	Neptune Body = "neptune"
	Pluto   Body = "pluto"
)

// Bodies lists the chart points in persisted column order.
var Bodies = []Body{Sun, Moon, Rising, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

// signCodes are the abbreviations returned by Compute, Aries first.
var signCodes = [12]string{"Ari", "Tau", "Gem", "Can", "Leo", "Vir", "Lib", "Sco", "Sag", "Cap", "Aqu", "Pis"}

// Input is the fully resolved birth data.
type Input struct {
	Name     string
	Date     time.Time // calendar date, only Y/M/D are read
	Hour     int
	Minute   int
	City     string
	Country  string
	Lat      float64
	Lng      float64
	Timezone string // IANA zone name
}

// Computer computes sign placements for a birth.
type Computer interface {
	Compute(in Input) (map[Body]string, error)
}

// Ephemeris implements Computer with analytic approximations.
type Ephemeris struct{}

// NewEphemeris returns the built-in computer.
func NewEphemeris() *Ephemeris { return &Ephemeris{} }

// Compute converts the local birth time to UT and returns the sign code of
// each body in Bodies.
func (e *Ephemeris) Compute(in Input) (map[Body]string, error) {
	if y := in.Date.Year(); y < config.EphemerisMinYear || y > config.EphemerisMaxYear {
		return nil, fmt.Errorf("%w: year %d outside %d-%d", ErrComputation, y, config.EphemerisMinYear, config.EphemerisMaxYear)
	}
	if in.Lat > config.MaxChartLatitude || in.Lat < -config.MaxChartLatitude {
		return nil, fmt.Errorf("%w: latitude %.2f beyond polar limit", ErrComputation, in.Lat)
	}
	if in.Lng < -180 || in.Lng > 180 {
		return nil, fmt.Errorf("%w: longitude %.2f out of range", ErrComputation, in.Lng)
	}

	loc, err := time.LoadLocation(in.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrComputation, config.ErrTimezoneUnknownName, in.Timezone, err)
	}

	local := time.Date(in.Date.Year(), in.Date.Month(), in.Date.Day(), in.Hour, in.Minute, 0, 0, loc)
	jd := julianDay(local.UTC())

	lons := longitudes(jd, in.Lat, in.Lng)
	out := make(map[Body]string, len(Bodies))
	for _, b := range Bodies {
		out[b] = signCode(lons[b])
	}

	slog.Debug("Chart computed",
		config.LogKeyComponent, config.CompChart,
		config.LogKeyName, in.Name,
		config.LogKeyTimezone, in.Timezone,
	)
	return out, nil
}

// signCode returns the abbreviation of the sign containing an ecliptic longitude.
func signCode(lon float64) string {
	return signCodes[int(normDeg(lon)/30)%12]
}
