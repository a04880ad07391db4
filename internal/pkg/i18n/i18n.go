package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle *goi18n.Bundle
	once   sync.Once
)

// Init loads the embedded locales. Safe to call more than once.
func Init() {
	once.Do(func() {
		bundle = goi18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
		for _, name := range []string{"locales/active.en.json", "locales/active.id.json"} {
			if _, err := bundle.LoadMessageFileFS(localeFS, name); err != nil {
				panic(err)
			}
		}
	})
}

// Load adds an extra message file from disk on top of the embedded ones.
func Load(path string) error {
	Init()
	_, err := bundle.LoadMessageFile(path)
	return err
}

// Localize renders messageID for the accept-language value lang. fallback is
// returned when the message is unknown.
func Localize(lang, messageID string, data map[string]any, fallback string) string {
	Init()
	if messageID == "" {
		return fallback
	}
	localizer := goi18n.NewLocalizer(bundle, lang, language.English.String())
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return fallback
	}
	return msg
}
