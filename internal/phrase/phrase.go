// Package phrase extracts arguments from recognized command text.
package phrase

import (
	"strings"
	"unicode"
)

// Strip removes every occurrence of keyword from command and trims the rest
func Strip(command, keyword string) string {
	return strings.TrimSpace(strings.ReplaceAll(command, keyword, ""))
}

// ParseTranslation splits "translate <text> into <language>". The command
// must contain the word "into" exactly once.
func ParseTranslation(command string) (text, language string, ok bool) {
	parts := strings.Split(command, "into")
	if len(parts) != 2 {
		return "", "", false
	}
	text = Strip(parts[0], "translate")
	language = strings.ToLower(strings.TrimSpace(parts[1]))
	return text, language, true
}

var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true, "st": true,
	"vs": true, "etc": true, "e.g": true, "i.e": true, "inc": true, "jr": true, "sr": true,
}

// FirstSentence returns the first sentence of text, punctuation included
func FirstSentence(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)

	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && abbreviations[strings.ToLower(lastWord(runes[:i]))] {
			continue
		}
		return string(runes[:i+1])
	}

	return text
}

func lastWord(runes []rune) string {
	start := len(runes)
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	return string(runes[start:])
}
