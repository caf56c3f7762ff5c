package textcase

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode selects a case conversion.
type Mode string

const (
	ModeTitle    Mode = "title"
	ModeSentence Mode = "sentence"
	ModeUpper    Mode = "upper"
	ModeLower    Mode = "lower"
)

// ParseMode maps a user-supplied mode name onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeTitle:
		return ModeTitle, nil
	case ModeSentence:
		return ModeSentence, nil
	case ModeUpper:
		return ModeUpper, nil
	case ModeLower:
		return ModeLower, nil
	}
	return "", fmt.Errorf("unknown case mode %q (title, sentence, upper, lower)", s)
}

// Convert applies the case conversion to s.
func Convert(s string, mode Mode) (string, error) {
	switch mode {
	case ModeTitle:
		return cases.Title(language.Und).String(s), nil
	case ModeSentence:
		return sentenceCase(s), nil
	case ModeUpper:
		return strings.ToUpper(s), nil
	case ModeLower:
		return strings.ToLower(s), nil
	}
	return "", fmt.Errorf("unknown case mode %q", mode)
}

// sentenceCase lowercases everything and uppercases the first letter.
func sentenceCase(s string) string {
	r := []rune(strings.ToLower(s))
	for i, c := range r {
		if unicode.IsLetter(c) {
			r[i] = unicode.ToUpper(c)
			break
		}
	}
	return string(r)
}
