package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tartampluch/go-astrology/internal/chart"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/geo"
	"github.com/tartampluch/go-astrology/internal/store"
	"github.com/tartampluch/go-astrology/internal/zodiac"
)

// ChartAssembler runs the birth chart pipeline.
type ChartAssembler struct {
	Cities   CityLookup
	Zones    TimezoneResolver
	Computer chart.Computer
	Sink     store.Sink
}

// BirthChart is a completed chart: the resolved place and the sign of each
// body in chart.Bodies.
type BirthChart struct {
	Person     Person
	Location   geo.Coordinates
	Timezone   string
	Placements map[chart.Body]zodiac.Sign
}

// Assemble validates in, resolves the birth place and its time zone, computes
// the placements and appends one birth chart row. Persistence follows the
// rules of Readings.Horoscope.
func (a *ChartAssembler) Assemble(ctx context.Context, in PersonInput) (BirthChart, error) {
	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompEngine)

	if err := a.ready(); err != nil {
		return BirthChart{}, err
	}

	p, err := parseBirth(in)
	if err != nil {
		return BirthChart{}, abort(log, stageValidate, err)
	}
	log = log.With(config.LogKeyCity, p.City)

	coords, err := a.Cities.Lookup(p.City, p.Country)
	if err != nil {
		return BirthChart{}, abort(log, stageLocate, err)
	}

	zone, err := a.Zones.Resolve(coords.Lat, coords.Lng)
	if err != nil {
		return BirthChart{}, abort(log, stageZone, err)
	}
	log = log.With(config.LogKeyTimezone, zone)

	codes, err := a.Computer.Compute(chart.Input{
		Name:     p.Name,
		Date:     p.BirthDate,
		Hour:     p.BirthTime.Hour,
		Minute:   p.BirthTime.Minute,
		City:     p.City,
		Country:  p.Country,
		Lat:      coords.Lat,
		Lng:      coords.Lng,
		Timezone: zone,
	})
	if err != nil {
		if !errors.Is(err, chart.ErrComputation) {
			err = fmt.Errorf("%w: %w", chart.ErrComputation, err)
		}
		return BirthChart{}, abort(log, stageCompute, err)
	}

	placements, err := normalizePlacements(codes)
	if err != nil {
		return BirthChart{}, abort(log, stageCompute, err)
	}

	bc := BirthChart{Person: p, Location: coords, Timezone: zone, Placements: placements}
	if err := a.Sink.Append(ctx, BirthChartRow(bc)); err != nil {
		return bc, abort(log, stagePersist, persistErr(err))
	}

	log.InfoContext(ctx, config.MsgChartStored,
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return bc, nil
}

func (a *ChartAssembler) ready() error {
	switch {
	case a.Cities == nil, a.Zones == nil, a.Computer == nil:
		return errors.New(config.ErrChartDepsMissing)
	case a.Sink == nil:
		return errors.New(config.ErrSinkMissing)
	}
	return nil
}

// normalizePlacements maps every code of chart.Bodies to a sign. A missing
// body or an unknown code fails the whole chart.
func normalizePlacements(codes map[chart.Body]string) (map[chart.Body]zodiac.Sign, error) {
	out := make(map[chart.Body]zodiac.Sign, len(chart.Bodies))
	for _, b := range chart.Bodies {
		code, ok := codes[b]
		if !ok {
			return nil, fmt.Errorf("%w: no placement for %s", chart.ErrComputation, b)
		}
		sign, err := zodiac.ParseCode(code)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", chart.ErrComputation, b, err)
		}
		out[b] = sign
	}
	return out, nil
}
