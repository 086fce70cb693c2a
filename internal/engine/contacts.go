package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/validate"
)

// Contact is a person imported from an address book.
type Contact struct {
	Name      string
	BirthDate time.Time
}

// Input returns the contact as raw pipeline input.
func (c Contact) Input() PersonInput {
	return PersonInput{Name: c.Name, BirthDate: c.BirthDate.Format(config.DateFormatInput)}
}

// ImportContacts decodes a vCard stream and keeps the cards that carry a full
// birthday and a name accepted by validate.Name. The given name is preferred;
// without one the first word of FN is used. Malformed cards are skipped.
func ImportContacts(ctx context.Context, r io.Reader) ([]Contact, error) {
	log := slog.With(config.LogKeyComponent, config.CompContacts)
	decoder := vcard.NewDecoder(r)
	var contacts []Contact
	processed := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Stop at the first broken card; fail only when none was read.
			if processed == 0 {
				return nil, fmt.Errorf("%s: %w", config.ErrVCardParse, err)
			}
			log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
			break
		}
		processed++

		bday := card.Get(config.VCardBDAY)
		if bday == nil || bday.Value == "" {
			continue
		}
		birthDate, err := parseDate(bday.Value)
		if err != nil {
			log.Debug(config.MsgSkippedDate, config.LogKeyValue, bday.Value)
			continue
		}

		name, err := validate.Name(contactName(card))
		if err != nil {
			log.Debug(config.MsgSkippedContact, config.LogKeyError, err)
			continue
		}

		contacts = append(contacts, Contact{Name: name, BirthDate: birthDate})
	}

	log.Info(config.MsgContactsLoaded, config.LogKeyCount, len(contacts))
	return contacts, nil
}

// contactName picks N's given name, falling back to the first word of FN.
func contactName(card vcard.Card) string {
	if n := card.Name(); n != nil && n.GivenName != "" {
		return strings.TrimSpace(n.GivenName)
	}
	if fn := card.Get(config.VCardFN); fn != nil {
		if words := strings.Fields(fn.Value); len(words) > 0 {
			return words[0]
		}
	}
	return ""
}

// parseDate accepts the vCard full-date layouts. Year-less birthdays
// ("--MM-DD") are rejected since every row records the birth year.
func parseDate(value string) (time.Time, error) {
	formats := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
	}
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%s: %q", config.ErrDateParse, value)
}
