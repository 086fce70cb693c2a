// Package cli is the interactive terminal front end. It owns every prompt
// and re-prompt; the engine it drives never reads input.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kr/text"
	"github.com/tartampluch/go-astrology/internal/chart"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/engine"
	"github.com/tartampluch/go-astrology/internal/geo"
	"github.com/tartampluch/go-astrology/internal/store"
	"github.com/tartampluch/go-astrology/internal/validate"
)

// History lists stored rows. *store.Workbook implements it.
type History interface {
	Rows(ctx context.Context, sheet store.Sheet, limit int) ([]store.StoredRow, error)
}

// App wires the pipelines to a terminal.
type App struct {
	Readings  *engine.Readings
	Charts    *engine.ChartAssembler
	History   History
	T         *Translator
	WrapWidth int

	// OpenFile opens vCard files; os.Open when nil.
	OpenFile func(path string) (io.ReadCloser, error)
}

var menuKeys = []string{
	config.TKeyMenuHoroscope,
	config.TKeyMenuCompat,
	config.TKeyMenuChart,
	config.TKeyMenuContacts,
	config.TKeyMenuHistory,
	config.TKeyMenuQuit,
}

var timeframeKeys = []string{
	config.TKeyTimeframeDaily,
	config.TKeyTimeframeWeekly,
	config.TKeyTimeframeMonth,
	config.TKeyTimeframeYear,
}

var sheetKeys = map[store.Sheet]string{
	store.SheetHoroscope:     config.TKeySheetHoroscope,
	store.SheetCompatibility: config.TKeySheetCompat,
	store.SheetBirthChart:    config.TKeySheetChart,
}

// Run shows the main menu until the user quits, the input ends or ctx is
// cancelled. Failures of a single action are reported and the menu is shown
// again; only output errors are returned.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	p := newPrompter(in, out, a.T)
	log := slog.With(config.LogKeyComponent, config.CompCLI)

	p.say(config.TKeyBanner)
	for {
		if ctx.Err() != nil {
			log.Info(config.MsgCtxCancel)
			return nil
		}

		_, _ = fmt.Fprintln(out)
		choice, err := p.choose(config.TKeyMenuTitle, menuKeys)
		if err != nil {
			return a.finish(p, err)
		}

		switch menuKeys[choice] {
		case config.TKeyMenuHoroscope:
			err = a.horoscope(ctx, p)
		case config.TKeyMenuCompat:
			err = a.compatibility(ctx, p)
		case config.TKeyMenuChart:
			err = a.birthChart(ctx, p)
		case config.TKeyMenuContacts:
			err = a.contacts(ctx, p)
		case config.TKeyMenuHistory:
			err = a.history(ctx, p)
		case config.TKeyMenuQuit:
			p.say(config.TKeyGoodbye)
			return nil
		}

		if errors.Is(err, ErrInputClosed) {
			return a.finish(p, err)
		}
		if err != nil {
			log.Warn(config.MsgPipelineAbort, config.LogKeyError, err)
			p.say(errorMessage(err))
		}
	}
}

// finish ends the loop on closed input.
func (a *App) finish(p *prompter, err error) error {
	if errors.Is(err, ErrInputClosed) {
		p.say(config.TKeyGoodbye)
		return nil
	}
	return err
}

func (a *App) askPerson(p *prompter) (engine.PersonInput, error) {
	name, err := p.askUntil(config.TKeyPromptName, func(s string) error {
		_, err := validate.Name(s)
		return err
	})
	if err != nil {
		return engine.PersonInput{}, err
	}
	date, err := p.askUntil(config.TKeyPromptDate, func(s string) error {
		_, err := validate.Date(s)
		return err
	})
	if err != nil {
		return engine.PersonInput{}, err
	}
	return engine.PersonInput{Name: name, BirthDate: date}, nil
}

func (a *App) askTimeframe(p *prompter) (engine.Timeframe, error) {
	i, err := p.choose(config.TKeyPromptTimeframe, timeframeKeys)
	if err != nil {
		return "", err
	}
	return engine.Timeframes[i], nil
}

func (a *App) horoscope(ctx context.Context, p *prompter) error {
	person, err := a.askPerson(p)
	if err != nil {
		return err
	}
	return a.readHoroscope(ctx, p, person)
}

func (a *App) readHoroscope(ctx context.Context, p *prompter, person engine.PersonInput) error {
	tf, err := a.askTimeframe(p)
	if err != nil {
		return err
	}

	reading, err := a.Readings.Horoscope(ctx, person, tf)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		return err
	}

	p.sayf(config.TKeyResultSign, map[string]any{"Name": reading.Person.Name, "Sign": reading.Sign})
	a.printText(p, reading.Text)
	return a.saved(p, err)
}

func (a *App) compatibility(ctx context.Context, p *prompter) error {
	p.say(config.TKeyPersonFirst)
	first, err := a.askPerson(p)
	if err != nil {
		return err
	}
	p.say(config.TKeyPersonSecond)
	second, err := a.askPerson(p)
	if err != nil {
		return err
	}

	reading, err := a.Readings.Compatibility(ctx, first, second)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		return err
	}

	p.sayf(config.TKeyResultCompat, map[string]any{
		"First":  fmt.Sprintf("%s (%s)", reading.First.Name, reading.FirstSign),
		"Second": fmt.Sprintf("%s (%s)", reading.Second.Name, reading.SecondSign),
	})
	a.printText(p, reading.Text)
	return a.saved(p, err)
}

func (a *App) birthChart(ctx context.Context, p *prompter) error {
	person, err := a.askPerson(p)
	if err != nil {
		return err
	}
	checkLocation := func(s string) error {
		_, err := validate.Location(s)
		return err
	}
	if person.BirthTime, err = p.askUntil(config.TKeyPromptTime, func(s string) error {
		_, err := validate.Time(s)
		return err
	}); err != nil {
		return err
	}
	if person.City, err = p.askUntil(config.TKeyPromptCity, checkLocation); err != nil {
		return err
	}
	if person.Country, err = p.askUntil(config.TKeyPromptCountry, checkLocation); err != nil {
		return err
	}

	bc, err := a.Charts.Assemble(ctx, person)
	if err != nil && !errors.Is(err, store.ErrPersist) {
		return err
	}

	p.sayf(config.TKeyResultChart, map[string]any{"Name": bc.Person.Name, "Timezone": bc.Timezone})
	for _, b := range chart.Bodies {
		_, _ = fmt.Fprintf(p.out, "%s%-8s %s\n", config.WrapIndent, bodyLabel(b), bc.Placements[b])
	}
	return a.saved(p, err)
}

func (a *App) contacts(ctx context.Context, p *prompter) error {
	path, err := p.ask(config.TKeyPromptVCF)
	if err != nil {
		return err
	}

	open := a.OpenFile
	if open == nil {
		open = func(name string) (io.ReadCloser, error) { return os.Open(name) }
	}
	f, err := open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", errContacts, err)
	}
	list, err := engine.ImportContacts(ctx, f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("%w: %w", errContacts, err)
	}
	if len(list) == 0 {
		p.say(config.TKeyContactsNone)
		return nil
	}

	p.sayf(config.TKeyContactsFound, map[string]any{"Count": len(list)})
	for i, c := range list {
		_, _ = fmt.Fprintf(p.out, "  %d. %s (%s)\n", i+1, c.Name, c.BirthDate.Format(config.DateFormatInput))
	}
	_, _ = fmt.Fprintf(p.out, "%s\n", p.t.Msg(config.TKeyPromptContact))
	i, err := p.pick(len(list))
	if err != nil {
		return err
	}
	return a.readHoroscope(ctx, p, list[i].Input())
}

func (a *App) history(ctx context.Context, p *prompter) error {
	keys := make([]string, len(store.Sheets))
	for i, s := range store.Sheets {
		keys[i] = sheetKeys[s]
	}
	i, err := p.choose(config.TKeyPromptSheet, keys)
	if err != nil {
		return err
	}

	rows, err := a.History.Rows(ctx, store.Sheets[i], config.HistoryLimit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		p.say(config.TKeyHistoryEmpty)
		return nil
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(p.out, "%s%s%s%s\n", config.WrapIndent,
			r.CreatedAt.Local().Format(config.HistoryTimeFormat), config.HistoryFieldSeparator,
			strings.Join(r.Fields, config.HistoryFieldSeparator))
	}
	return nil
}

// saved reports the outcome of the persistence step.
func (a *App) saved(p *prompter, err error) error {
	if err != nil {
		return err
	}
	p.say(config.TKeyResultSaved)
	return nil
}

// printText wraps s to the configured width and indents it.
func (a *App) printText(p *prompter, s string) {
	width := a.WrapWidth
	if width <= 0 {
		width = config.DefaultWrapWidth
	}
	width -= len(config.WrapIndent)
	_, _ = fmt.Fprintln(p.out, text.Indent(text.Wrap(s, width), config.WrapIndent))
}

var errContacts = errors.New(config.ErrContactsImport)

// errorMessage maps a pipeline error to its translation key.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, engine.ErrContentUnavailable):
		return config.TKeyErrContent
	case errors.Is(err, geo.ErrLocationNotFound):
		return config.TKeyErrNotFound
	case errors.Is(err, geo.ErrTimezoneNotFound):
		return config.TKeyErrTimezone
	case errors.Is(err, chart.ErrComputation):
		return config.TKeyErrChart
	case errors.Is(err, store.ErrPersist):
		return config.TKeyErrPersist
	case errors.Is(err, errContacts):
		return config.TKeyErrContacts
	default:
		return validationMessage(err)
	}
}

// bodyLabel capitalizes a body name for display.
func bodyLabel(b chart.Body) string {
	s := string(b)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
