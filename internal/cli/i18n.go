package cli

import (
	"embed"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-astrology/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Translator resolves translation keys for one language.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	languages []string
}

// NewTranslator loads every embedded locale and selects lang, falling back
// to English for missing keys.
func NewTranslator(lang string) *Translator {
	t := &Translator{bundle: i18n.NewBundle(language.English)}
	t.bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return t
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := t.bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		t.languages = append(t.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}
	t.localizer = i18n.NewLocalizer(t.bundle, lang, config.DefaultLanguage)
	return t
}

// Languages returns the codes of the loaded locales.
func (t *Translator) Languages() []string { return t.languages }

// Msg translates key. Unknown keys come back unchanged.
func (t *Translator) Msg(key string) string {
	return t.Msgf(key, nil)
}

// Msgf translates key with template data.
func (t *Translator) Msgf(key string, data map[string]any) string {
	if t == nil || t.localizer == nil {
		return key
	}
	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}
