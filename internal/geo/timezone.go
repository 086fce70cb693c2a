package geo

import (
	"fmt"

	"github.com/ringsaturn/tzf"
	"github.com/tartampluch/go-astrology/internal/config"
)

// zoneFinder is the subset of tzf.F used here.
type zoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// TZFinder resolves coordinates to IANA zone names using timezone polygons.
type TZFinder struct {
	finder zoneFinder
}

// NewTZFinder loads the bundled polygon data. It is slow; call it once.
func NewTZFinder() (*TZFinder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTZFinder, err)
	}
	return &TZFinder{finder: f}, nil
}

// Resolve returns the zone containing lat/lng.
func (t *TZFinder) Resolve(lat, lng float64) (string, error) {
	name := t.finder.GetTimezoneName(lng, lat)
	if name == "" {
		return "", fmt.Errorf("%w: %.4f,%.4f", ErrTimezoneNotFound, lat, lng)
	}
	return name, nil
}
