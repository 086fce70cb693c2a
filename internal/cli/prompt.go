package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tartampluch/go-astrology/internal/config"
	"github.com/tartampluch/go-astrology/internal/validate"
	"github.com/tartampluch/go-astrology/internal/zodiac"
)

// ErrInputClosed is returned once the input stream is exhausted.
var ErrInputClosed = errors.New(config.ErrInputClosed)

// prompter reads one answer per line and writes prompts to out.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	t   *Translator
}

func newPrompter(in io.Reader, out io.Writer, t *Translator) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out, t: t}
}

// ask prints the translated label and returns the trimmed answer.
func (p *prompter) ask(labelKey string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "%s: ", p.t.Msg(labelKey))
	if !p.in.Scan() {
		_, _ = fmt.Fprintln(p.out)
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInputClosed, err)
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// askUntil repeats the question until check accepts the answer. Rejections
// are explained with the message of the validation kind.
func (p *prompter) askUntil(labelKey string, check func(string) error) (string, error) {
	for {
		answer, err := p.ask(labelKey)
		if err != nil {
			return "", err
		}
		if err := check(answer); err != nil {
			p.say(validationMessage(err))
			continue
		}
		return answer, nil
	}
}

// choose lists the translated options numbered from 1 and returns the
// 0-based index of the picked one.
func (p *prompter) choose(titleKey string, optionKeys []string) (int, error) {
	p.say(titleKey)
	for i, key := range optionKeys {
		_, _ = fmt.Fprintf(p.out, "  %d. %s\n", i+1, p.t.Msg(key))
	}
	return p.pick(len(optionKeys))
}

// pick reads a number in 1..n and returns it 0-based.
func (p *prompter) pick(n int) (int, error) {
	for {
		answer, err := p.ask(config.TKeyPromptChoice)
		if err != nil {
			return 0, err
		}
		i, err := strconv.Atoi(answer)
		if err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		p.say(config.TKeyErrChoice)
	}
}

func (p *prompter) say(key string) {
	_, _ = fmt.Fprintln(p.out, p.t.Msg(key))
}

func (p *prompter) sayf(key string, data map[string]any) {
	_, _ = fmt.Fprintln(p.out, p.t.Msgf(key, data))
}

// validationMessage maps a validation error to its translation key.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, validate.ErrInvalidName):
		return config.TKeyErrName
	case errors.Is(err, validate.ErrInvalidDate), errors.Is(err, zodiac.ErrInvalidDate):
		return config.TKeyErrDate
	case errors.Is(err, validate.ErrInvalidTime):
		return config.TKeyErrTime
	case errors.Is(err, validate.ErrInvalidLocation):
		return config.TKeyErrLocation
	default:
		return config.TKeyErrGeneric
	}
}
