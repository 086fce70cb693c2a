package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/store"
	"github.com/tartampluch/go-astrology/internal/validate"
	"github.com/tartampluch/go-astrology/internal/zodiac"
)

// Pipeline stage names, logged when a run aborts.
const (
	stageValidate = "validate"
	stageSign     = "sign"
	stageURL      = "url"
	stageFetch    = "fetch"
	stageLocate   = "locate"
	stageZone     = "timezone"
	stageCompute  = "compute"
	stagePersist  = "persist"
)

// Readings runs the horoscope and compatibility pipelines.
type Readings struct {
	Clock     Clock       // picks the year of yearly readings
	Fetcher   PageFetcher // network abstraction
	Extractor Extractor
	Endpoints config.Endpoints
	Sink      store.Sink
}

// HoroscopeReading is a completed horoscope run.
type HoroscopeReading struct {
	Person    Person
	Sign      zodiac.Sign
	Timeframe Timeframe
	Text      string
}

// CompatibilityReading is a completed compatibility run. First and Second
// keep the order the people were given in.
type CompatibilityReading struct {
	First      Person
	FirstSign  zodiac.Sign
	Second     Person
	SecondSign zodiac.Sign
	Text       string
}

// Horoscope validates in, resolves the sign, fetches the reading for tf and
// appends one horoscope row to the sink.
//
// Nothing is appended when any step before persistence fails. When the sink
// itself fails the completed reading is still returned, along with an error
// wrapping store.ErrPersist.
func (r *Readings) Horoscope(ctx context.Context, in PersonInput, tf Timeframe) (HoroscopeReading, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyTimeframe, string(tf),
	)

	if err := r.ready(); err != nil {
		return HoroscopeReading{}, err
	}

	p, err := parseIdentity(in)
	if err != nil {
		return HoroscopeReading{}, abort(log, stageValidate, err)
	}
	sign, err := p.Sign()
	if err != nil {
		return HoroscopeReading{}, abort(log, stageSign, err)
	}

	url, err := HoroscopeURL(r.Endpoints, tf, sign, r.now().Year())
	if err != nil {
		return HoroscopeReading{}, abort(log, stageURL, err)
	}

	log = log.With(config.LogKeySign, sign.String())
	log.DebugContext(ctx, config.MsgFetchStart, config.LogKeyURL, url)

	text, err := r.fetchText(ctx, url, func(body io.Reader) (string, error) {
		return r.Extractor.Horoscope(body, tf)
	})
	if err != nil {
		return HoroscopeReading{}, abort(log, stageFetch, err)
	}

	reading := HoroscopeReading{Person: p, Sign: sign, Timeframe: tf, Text: text}
	if err := r.Sink.Append(ctx, HoroscopeRow(reading)); err != nil {
		return reading, abort(log, stagePersist, persistErr(err))
	}

	log.InfoContext(ctx, config.MsgReadingStored,
		config.LogKeySheet, string(store.SheetHoroscope),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return reading, nil
}

// Compatibility validates both people, resolves both signs and fetches the
// reading for the ordered sign pair. Persistence follows the rules of
// Horoscope.
func (r *Readings) Compatibility(ctx context.Context, first, second PersonInput) (CompatibilityReading, error) {
	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompEngine)

	if err := r.ready(); err != nil {
		return CompatibilityReading{}, err
	}

	nameA, err := validate.Name(first.Name)
	if err != nil {
		return CompatibilityReading{}, abort(log, stageValidate, err)
	}
	nameB, err := validate.Name(second.Name)
	if err != nil {
		return CompatibilityReading{}, abort(log, stageValidate, err)
	}
	dateA, err := validate.Date(first.BirthDate)
	if err != nil {
		return CompatibilityReading{}, abort(log, stageValidate, err)
	}
	dateB, err := validate.Date(second.BirthDate)
	if err != nil {
		return CompatibilityReading{}, abort(log, stageValidate, err)
	}
	pa := Person{Name: nameA, BirthDate: dateA}
	pb := Person{Name: nameB, BirthDate: dateB}

	signA, err := pa.Sign()
	if err != nil {
		return CompatibilityReading{}, abort(log, stageSign, err)
	}
	signB, err := pb.Sign()
	if err != nil {
		return CompatibilityReading{}, abort(log, stageSign, err)
	}

	url := CompatibilityURL(r.Endpoints, signA, signB)
	log.DebugContext(ctx, config.MsgFetchStart, config.LogKeyURL, url)

	text, err := r.fetchText(ctx, url, r.Extractor.Compatibility)
	if err != nil {
		return CompatibilityReading{}, abort(log, stageFetch, err)
	}

	reading := CompatibilityReading{
		First: pa, FirstSign: signA,
		Second: pb, SecondSign: signB,
		Text: text,
	}
	if err := r.Sink.Append(ctx, CompatibilityRow(reading)); err != nil {
		return reading, abort(log, stagePersist, persistErr(err))
	}

	log.InfoContext(ctx, config.MsgReadingStored,
		config.LogKeySheet, string(store.SheetCompatibility),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return reading, nil
}

func (r *Readings) ready() error {
	if r.Fetcher == nil {
		return errors.New(config.ErrFetcherMissing)
	}
	if r.Sink == nil {
		return errors.New(config.ErrSinkMissing)
	}
	return nil
}

func (r *Readings) now() time.Time {
	if r.Clock == nil {
		return RealClock{}.Now()
	}
	return r.Clock.Now()
}

// fetchText downloads url and hands the body to extract. Every failure,
// including context cancellation, is reported as ErrContentUnavailable.
func (r *Readings) fetchText(ctx context.Context, url string, extract func(io.Reader) (string, error)) (string, error) {
	body, err := r.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}
	defer func() { _ = body.Close() }()

	text, err := extract(body)
	if err != nil {
		if errors.Is(err, ErrContentUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}
	return text, nil
}

func persistErr(err error) error {
	if errors.Is(err, store.ErrPersist) {
		return err
	}
	return fmt.Errorf("%w: %w", store.ErrPersist, err)
}

// abort logs the failing stage and returns err unchanged.
func abort(log *slog.Logger, stage string, err error) error {
	log.Warn(config.MsgPipelineAbort,
		config.LogKeyStage, stage,
		config.LogKeyError, err,
	)
	return err
}
