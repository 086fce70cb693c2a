// Package store persists completed readings. Every sink is append-only: a
// row is written once and never updated or deleted.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-astrology/internal/config"
)

var (
	// ErrPersist wraps every storage failure returned by a Sink.
	ErrPersist = errors.New(config.ErrPersist)
	// ErrSchemaMismatch is returned when a row does not fit its sheet.
	ErrSchemaMismatch = errors.New(config.ErrSchemaMismatch)
)

// Sheet names one of the three record layouts.
type Sheet string

const (
	SheetHoroscope     Sheet = "horoscope"
	SheetBirthChart    Sheet = "birth_chart"
	SheetCompatibility Sheet = "compatibility"
)

// Sheets lists every sheet in a stable order.
var Sheets = []Sheet{SheetHoroscope, SheetBirthChart, SheetCompatibility}

var schemas = map[Sheet][]string{
	SheetHoroscope: {"name", "birth_date", "sign", "timeframe", "reading"},
	SheetCompatibility: {
		"name1", "birth_date1", "sign1",
		"name2", "birth_date2", "sign2",
		"reading",
	},
	SheetBirthChart: {
		"name", "birth_date", "birth_time", "city", "country",
		"sun", "moon", "rising", "mercury", "venus", "mars",
		"jupiter", "saturn", "uranus", "neptune", "pluto",
	},
}

// Schema returns the ordered column names of a sheet.
func Schema(s Sheet) ([]string, error) {
	cols, ok := schemas[s]
	if !ok {
		return nil, fmt.Errorf("%s: %q", config.ErrUnknownSheet, s)
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out, nil
}

// Row is one flat record destined for a sheet. Fields are already serialized.
type Row struct {
	Sheet  Sheet
	Fields []string
}

// Validate checks the row against its sheet schema.
func (r Row) Validate() error {
	cols, err := Schema(r.Sheet)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	if len(cols) != len(r.Fields) {
		return fmt.Errorf("%w: %s wants %d fields, got %d", ErrSchemaMismatch, r.Sheet, len(cols), len(r.Fields))
	}
	return nil
}

// Sink accepts completed rows.
type Sink interface {
	Append(ctx context.Context, row Row) error
}

// Tee appends each row to every sink in order. The first sink is the
// primary store: its error is returned and nothing else is written. Once the
// primary has accepted the row, failures of the later sinks are logged and
// do not fail the append.
type Tee []Sink

// Append implements Sink.
func (t Tee) Append(ctx context.Context, row Row) error {
	if len(t) == 0 {
		return nil
	}
	if err := t[0].Append(ctx, row); err != nil {
		return err
	}
	for _, s := range t[1:] {
		if err := s.Append(ctx, row); err != nil {
			slog.Warn(config.MsgMirrorFailed,
				config.LogKeyComponent, config.CompStore,
				config.LogKeySheet, row.Sheet,
				config.LogKeyError, err,
			)
		}
	}
	return nil
}
