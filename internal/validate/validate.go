// Package validate classifies raw user input. Every function is pure: it
// returns the parsed value or a *Error and never prompts, logs or retries.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/tartampluch/go-astrology/internal/config"
)

// Sentinel kinds. Use errors.Is to classify a returned *Error.
var (
	ErrInvalidName     = errors.New(config.ErrInvalidName)
	ErrInvalidDate     = errors.New(config.ErrInvalidDate)
	ErrInvalidTime     = errors.New(config.ErrInvalidTime)
	ErrInvalidLocation = errors.New(config.ErrInvalidLocation)
)

// Field names reported in *Error.
const (
	FieldName     = "name"
	FieldDate     = "date"
	FieldTime     = "time"
	FieldLocation = "location"
)

// Validation tags. letters, capfirst and placename are registered on the
// rule set. max counts runes.
var (
	tagName     = fmt.Sprintf("required,letters,max=%d,capfirst", config.MaxNameLength)
	tagLocation = "required,placename,capfirst"
	tagTime     = fmt.Sprintf("required,len=%d", len(config.TimeFormatInput))
	tagDate     = fmt.Sprintf("required,len=%d", len(config.DateFormatInput))
)

var placePattern = regexp.MustCompile(`^[A-Za-z /-]+$`)

// rules is the shared rule set. validator.Validate is safe for concurrent use
// once its custom rules are registered, which happens here exactly once.
var rules = newRules()

func newRules() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("%s %q: %v", config.ErrValidatorRegister, tag, err))
		}
	}

	mustRegister("letters", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsLetter(r) {
				return false
			}
		}
		return true
	})
	mustRegister("capfirst", func(fl validator.FieldLevel) bool {
		r, _ := utf8.DecodeRuneInString(fl.Field().String())
		return r != utf8.RuneError && unicode.IsUpper(r)
	})
	mustRegister("placename", func(fl validator.FieldLevel) bool {
		return placePattern.MatchString(fl.Field().String())
	})
	return v
}

// Error describes why a value was rejected.
type Error struct {
	Kind   error  // one of the sentinel kinds
	Field  string // FieldName, FieldDate, ...
	Value  string // raw input
	Reason string // failed rule or parse error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Value, e.Reason)
}

func (e *Error) Unwrap() error { return e.Kind }

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String renders HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Name accepts a non-empty run of at most 49 Unicode letters starting with an
// uppercase letter, so "Zoë" and "Åsa" pass and "Gerry2" does not.
func Name(s string) (string, error) {
	if err := check(s, tagName); err != "" {
		return "", &Error{Kind: ErrInvalidName, Field: FieldName, Value: s, Reason: err}
	}
	return s, nil
}

// Date parses DD/MM/YYYY. Day and month need two digits, and the day must
// exist in that month. Future dates are accepted.
func Date(s string) (time.Time, error) {
	if err := check(s, tagDate); err != "" {
		return time.Time{}, &Error{Kind: ErrInvalidDate, Field: FieldDate, Value: s, Reason: err}
	}
	d, err := time.Parse(config.DateFormatInput, s)
	if err != nil {
		return time.Time{}, &Error{Kind: ErrInvalidDate, Field: FieldDate, Value: s, Reason: err.Error()}
	}
	return d, nil
}

// Time parses 24-hour HH:MM. "9:30" is rejected; the hour needs two digits.
func Time(s string) (TimeOfDay, error) {
	if err := check(s, tagTime); err != "" {
		return TimeOfDay{}, &Error{Kind: ErrInvalidTime, Field: FieldTime, Value: s, Reason: err}
	}
	t, err := time.Parse(config.TimeFormatInput, s)
	if err != nil {
		return TimeOfDay{}, &Error{Kind: ErrInvalidTime, Field: FieldTime, Value: s, Reason: err.Error()}
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Location accepts letters, spaces, '/' and '-', starting with an uppercase letter.
func Location(s string) (string, error) {
	if err := check(s, tagLocation); err != "" {
		return "", &Error{Kind: ErrInvalidLocation, Field: FieldLocation, Value: s, Reason: err}
	}
	return s, nil
}

// check runs tag against s and returns the first failing rule, or "".
func check(s, tag string) string {
	err := rules.Var(s, tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return err.Error()
}
