package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/zodiac"
)

// HoroscopeURL fills the endpoint template of tf for sign. Daily, weekly and
// monthly pages are addressed by the sign ordinal (Aries=1); the yearly page
// by lowercase sign name and year.
func HoroscopeURL(ep config.Endpoints, tf Timeframe, sign zodiac.Sign, year int) (string, error) {
	var tmpl string
	switch tf {
	case Daily:
		tmpl = ep.Daily
	case Weekly:
		tmpl = ep.Weekly
	case Monthly:
		tmpl = ep.Monthly
	case Yearly:
		tmpl = ep.Yearly
	default:
		return "", fmt.Errorf("%s: %q", config.ErrUnknownTimeframe, tf)
	}

	r := strings.NewReplacer(
		config.PlaceholderOrdinal, strconv.Itoa(sign.Ordinal()),
		config.PlaceholderSign, strings.ToLower(sign.String()),
		config.PlaceholderYear, strconv.Itoa(year),
	)
	return r.Replace(tmpl), nil
}

// CompatibilityURL fills the compatibility template with "SignA-SignB",
// keeping the argument order.
func CompatibilityURL(ep config.Endpoints, a, b zodiac.Sign) string {
	pair := a.String() + config.SignPairSeparator + b.String()
	return strings.ReplaceAll(ep.Compatibility, config.PlaceholderSigns, pair)
}
