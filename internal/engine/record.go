package engine

import (
	"github.com/tartampluch/go-astrology/internal/chart"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/store"
)

// HoroscopeRow flattens a reading to name, birth_date, sign, timeframe, reading.
func HoroscopeRow(h HoroscopeReading) store.Row {
	return store.Row{
		Sheet: store.SheetHoroscope,
		Fields: []string{
			h.Person.Name,
			h.Person.BirthDate.Format(config.DateFormatInput),
			h.Sign.String(),
			string(h.Timeframe),
			h.Text,
		},
	}
}

// CompatibilityRow keeps the first person's columns before the second's.
func CompatibilityRow(c CompatibilityReading) store.Row {
	return store.Row{
		Sheet: store.SheetCompatibility,
		Fields: []string{
			c.First.Name,
			c.First.BirthDate.Format(config.DateFormatInput),
			c.FirstSign.String(),
			c.Second.Name,
			c.Second.BirthDate.Format(config.DateFormatInput),
			c.SecondSign.String(),
			c.Text,
		},
	}
}

// BirthChartRow writes the identity columns then one sign name per body, in
// chart.Bodies order.
func BirthChartRow(bc BirthChart) store.Row {
	birthTime := ""
	if bc.Person.BirthTime != nil {
		birthTime = bc.Person.BirthTime.String()
	}
	fields := []string{
		bc.Person.Name,
		bc.Person.BirthDate.Format(config.DateFormatInput),
		birthTime,
		bc.Person.City,
		bc.Person.Country,
	}
	for _, b := range chart.Bodies {
		fields = append(fields, bc.Placements[b].String())
	}
	return store.Row{Sheet: store.SheetBirthChart, Fields: fields}
}
