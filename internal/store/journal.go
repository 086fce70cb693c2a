package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/tartampluch/go-astrology/internal/config"
)

var sheetTitles = map[Sheet]string{
	SheetHoroscope:     "Horoscope",
	SheetCompatibility: "Compatibility",
	SheetBirthChart:    "Birth chart",
}

// Journal is a sink that records each row as an all-day event in an
// iCalendar file, so readings can be browsed from a calendar client.
type Journal struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	cal     *ical.Calendar
	modTime time.Time // last write; zero until the file exists

	// OnUpdate, when set, receives the encoded calendar after every append.
	OnUpdate func([]byte)
}

// OpenJournal loads the calendar at path, or starts an empty one if the
// file does not exist yet or holds only whitespace.
func OpenJournal(path string) (*Journal, error) {
	j := &Journal{path: path, now: time.Now}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		j.cal = newJournalCalendar()
		return j, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", config.ErrJournalOpen, err)
	case len(bytes.TrimSpace(data)) == 0:
		j.cal = newJournalCalendar()
		return j, nil
	}

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", config.ErrJournalOpen, config.ErrICalDecode, err)
	}
	j.cal = cal
	if fi, err := os.Stat(path); err == nil {
		j.modTime = fi.ModTime()
	}
	return j, nil
}

func newJournalCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	return cal
}

// Append adds the row as an event dated today and rewrites the file.
func (j *Journal) Append(ctx context.Context, row Row) error {
	if err := row.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	event := j.newEvent(row)
	j.cal.Children = append(j.cal.Children, event.Component)

	data, err := j.encodeLocked()
	if err != nil {
		// Keep memory and disk consistent.
		j.cal.Children = j.cal.Children[:len(j.cal.Children)-1]
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := writeFileAtomic(j.path, data); err != nil {
		j.cal.Children = j.cal.Children[:len(j.cal.Children)-1]
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	j.modTime = j.now()

	slog.Debug(config.MsgJournalAppended,
		config.LogKeyComponent, config.CompJournal,
		config.LogKeySheet, string(row.Sheet),
		config.LogKeySizeBytes, len(data),
	)

	if j.OnUpdate != nil {
		j.OnUpdate(data)
	}
	return nil
}

// Bytes returns the encoded calendar.
func (j *Journal) Bytes() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.encodeLocked()
}

// ModTime returns when the journal file was last written, or the zero time
// if it has not been written yet.
func (j *Journal) ModTime() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.modTime
}

// Len returns the number of journal entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cal.Children)
}

func (j *Journal) newEvent(row Row) *ical.Event {
	now := j.now()
	cols, _ := Schema(row.Sheet)

	event := ical.NewEvent()
	event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uuid.NewString(), config.ICalDomain))
	event.Props.SetText(config.PropSummary, summarize(row))
	event.Props.SetText(config.PropCategories, string(row.Sheet))

	var desc strings.Builder
	for i, c := range cols {
		fmt.Fprintf(&desc, "%s: %s\n", c, row.Fields[i])
	}
	event.Props.SetText(config.PropDescription, strings.TrimSuffix(desc.String(), "\n"))

	stamp := ical.NewProp(config.PropDTStamp)
	stamp.SetDateTime(now.UTC())
	event.Props.Set(stamp)

	start := ical.NewProp(config.PropDTStart)
	start.SetDate(time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))
	event.Props.Set(start)

	return event
}

// summarize builds "<Sheet title>: <first name>[ & <second name>]".
func summarize(row Row) string {
	title := sheetTitles[row.Sheet]
	if row.Sheet == SheetCompatibility {
		return fmt.Sprintf("%s: %s & %s", title, row.Fields[0], row.Fields[3])
	}
	return fmt.Sprintf("%s: %s", title, row.Fields[0])
}

func (j *Journal) encodeLocked() ([]byte, error) {
	// An iCalendar object needs at least one component.
	if len(j.cal.Children) == 0 {
		return []byte(config.StubVCalendar), nil
	}
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(j.cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, config.FilePermUserRW); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
