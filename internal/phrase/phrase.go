// internal/phrase/phrase.go
//
// Text rules shared by every guess path:
//   - Normalize reduces a phrase to the form used for answer equality.
//   - ValidateGuess rejects empty or disallowed-character guesses.
//   - ValidateCustom checks a player-authored puzzle before it is played.
//
// Allowed guess characters are ASCII letters, digits, whitespace and '-'.
package phrase

import (
	"errors"
	"strings"
	"unicode"
)

// minCustomLen is the shortest phrase accepted for a player-authored puzzle.
const minCustomLen = 5

var (
	ErrEmptyGuess         = errors.New("guess is empty")
	ErrInvalidCharacters  = errors.New("guess contains invalid characters")
	ErrCustomMissing      = errors.New("gibberish and answer are both required")
	ErrCustomTooShort     = errors.New("phrases must be at least 5 characters long")
	ErrCustomSameAsAnswer = errors.New("gibberish and answer cannot be the same")
)

// Normalize lowercases s, drops every rune that is not a lowercase ASCII
// letter, digit, whitespace or hyphen, then trims surrounding whitespace.
func Normalize(s string) string {
	lower := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if isLowerAlnum(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Equal reports whether a and b are the same answer for gameplay purposes.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ValidateGuess trims raw and checks it. The trimmed (not normalized) guess
// is returned so it can be echoed back to the player.
func ValidateGuess(raw string) (string, error) {
	guess := strings.TrimSpace(raw)
	if guess == "" {
		return "", ErrEmptyGuess
	}
	for _, r := range guess {
		if !isGuessRune(r) {
			return "", ErrInvalidCharacters
		}
	}
	return guess, nil
}

// ValidateCustom checks a player-authored puzzle and returns its trimmed
// phrases.
func ValidateCustom(gibberish, answer string) (string, string, error) {
	g, a := strings.TrimSpace(gibberish), strings.TrimSpace(answer)
	if g == "" || a == "" {
		return "", "", ErrCustomMissing
	}
	if len(g) < minCustomLen || len(a) < minCustomLen {
		return "", "", ErrCustomTooShort
	}
	if Equal(g, a) {
		return "", "", ErrCustomSameAsAnswer
	}
	return g, a, nil
}

// Message returns the player-facing text for a validation error, or "" if
// err is not one of this package's errors.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrEmptyGuess):
		return "Your guess can't be empty."
	case errors.Is(err, ErrInvalidCharacters):
		return "Invalid characters. Only letters, numbers, spaces, and hyphens are allowed."
	case errors.Is(err, ErrCustomMissing):
		return "Both the gibberish phrase and the answer are required."
	case errors.Is(err, ErrCustomTooShort):
		return "Phrases must be at least 5 characters long."
	case errors.Is(err, ErrCustomSameAsAnswer):
		return "The gibberish phrase and the answer cannot be the same."
	}
	return ""
}

func isLowerAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}

func isGuessRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		unicode.IsSpace(r) || r == '-'
}
