package story

import (
	"golang.org/x/text/language"
)

// Language is a supported story language, ISO 639-1 coded.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageSpanish Language = "es"
	LanguageFrench  Language = "fr"
	LanguageGerman  Language = "de"
)

// Supported lists the languages the platform can narrate and translate,
// in matcher preference order (english first as the default).
func Supported() []Language {
	return []Language{
		LanguageEnglish,
		LanguageHindi,
		LanguageSpanish,
		LanguageFrench,
		LanguageGerman,
	}
}

// IsValid reports whether the language is supported.
func (l Language) IsValid() bool {
	for _, s := range Supported() {
		if l == s {
			return true
		}
	}
	return false
}

// DisplayName returns the English display name used in generation prompts.
func (l Language) DisplayName() string {
	switch l {
	case LanguageHindi:
		return "Hindi"
	case LanguageSpanish:
		return "Spanish"
	case LanguageFrench:
		return "French"
	case LanguageGerman:
		return "German"
	default:
		return "English"
	}
}

var matcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Hindi,
	language.Spanish,
	language.French,
	language.German,
})

// Negotiate resolves a session display language from an Accept-Language
// header value. An empty or unparseable header yields english.
func Negotiate(acceptLanguage string) Language {
	if acceptLanguage == "" {
		return LanguageEnglish
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return LanguageEnglish
	}
	_, index, _ := matcher.Match(tags...)
	return Supported()[index]
}
