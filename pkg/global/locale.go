package global

import "golang.org/x/text/language"

const (
	LocaleCS = "cs"
	LocaleEN = "en"
)

var supportedLocales = language.NewMatcher([]language.Tag{
	language.Czech,
	language.English,
})

// NormalizeLocale maps a locale or Accept-Language value onto "cs" or "en".
// Czech is the default.
func NormalizeLocale(locale string) string {
	if locale == "" {
		return LocaleCS
	}
	_, idx := language.MatchStrings(supportedLocales, locale)
	if idx == 1 {
		return LocaleEN
	}
	return LocaleCS
}
