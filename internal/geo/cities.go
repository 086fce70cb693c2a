// Package geo resolves birth places to coordinates and time zones.
package geo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/tartampluch/go-astrology/assets"
	"github.com/tartampluch/go-astrology/internal/config"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrLocationNotFound = errors.New(config.ErrLocationNotFound)
	ErrTimezoneNotFound = errors.New(config.ErrTimezoneNotFound)
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// City is one dataset row.
type City struct {
	Name    string
	Country string
	Coordinates
}

// Dataset is an immutable index of cities keyed by folded name: case and
// accents are ignored, so "zurich" finds "Zürich".
// It is loaded once and safe to share.
type Dataset struct {
	byName map[string][]City
	size   int
}

// LoadEmbedded reads the dataset bundled in the assets package.
func LoadEmbedded() (*Dataset, error) {
	f, err := assets.DataFS.Open(config.DatasetAssetPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDatasetLoad, err)
	}
	defer func() { _ = f.Close() }()
	return LoadDataset(f)
}

// LoadDataset reads a gzip-compressed CSV with a header line and the columns
// city,country,lat,lng.
func LoadDataset(r io.Reader) (*Dataset, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDatasetLoad, err)
	}
	defer func() { _ = zr.Close() }()

	cr := csv.NewReader(zr)
	cr.FieldsPerRecord = config.DatasetColumns

	// Header
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDatasetLoad, err)
	}

	d := &Dataset{byName: make(map[string][]City)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrDatasetLoad, err)
		}

		c, err := parseCity(rec)
		if err != nil {
			return nil, err
		}
		key := fold(c.Name)
		d.byName[key] = append(d.byName[key], c)
		d.size++
	}

	slog.Debug(config.MsgDatasetLoaded,
		config.LogKeyComponent, config.CompGeo,
		config.LogKeyCount, d.size,
	)
	return d, nil
}

func parseCity(rec []string) (City, error) {
	lat, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return City{}, fmt.Errorf("%s %q: %w", config.ErrDatasetRow, rec[0], err)
	}
	lng, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return City{}, fmt.Errorf("%s %q: %w", config.ErrDatasetRow, rec[0], err)
	}
	return City{
		Name:        rec[0],
		Country:     rec[1],
		Coordinates: Coordinates{Lat: lat, Lng: lng},
	}, nil
}

// Len returns the number of cities.
func (d *Dataset) Len() int { return d.size }

// Lookup finds a city by exact name, ignoring case and accents. When several cities
// share the name, the one in country wins; otherwise the first listed.
func (d *Dataset) Lookup(city, country string) (Coordinates, error) {
	matches := d.byName[fold(city)]
	if len(matches) == 0 {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrLocationNotFound, city)
	}

	want := fold(country)
	for _, c := range matches {
		if fold(c.Country) == want {
			return c.Coordinates, nil
		}
	}
	return matches[0].Coordinates, nil
}

// fold strips combining marks and applies Unicode case folding. Casers and
// transformers hold state, so each call builds its own.
func fold(s string) string {
	plain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(plain, s); err == nil {
		s = out
	}
	return cases.Fold().String(s)
}
