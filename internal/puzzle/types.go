// internal/puzzle/types.go
//
// Puzzle data and the Source contract.
//
// A Source produces puzzles for a difficulty and theme, and hints for an
// answer. Every failure a Source returns wraps ErrFetch so callers can treat
// network, parse and schema problems alike.
package puzzle

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetch             = errors.New("puzzle fetch failed")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownTheme      = errors.New("unknown theme")
)

// Puzzle pairs a gibberish phrase with the real phrase it sounds like.
type Puzzle struct {
	Gibberish string `json:"gibberish"`
	Answer    string `json:"answer"`
}

// Valid reports whether both phrases are non-empty after trimming.
func (p Puzzle) Valid() bool {
	return strings.TrimSpace(p.Gibberish) != "" && strings.TrimSpace(p.Answer) != ""
}

// Difficulty selects prompt complexity and base points.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Difficulties lists the supported difficulties in ascending order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// ParseDifficulty accepts the difficulty names case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Difficulties {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Theme narrows the subject of generated puzzles.
type Theme string

const (
	General Theme = "General"
	Movies  Theme = "Movies"
	Science Theme = "Science"
	History Theme = "History"
)

// DefaultTheme is used when no valid preference is stored.
const DefaultTheme = General

// Themes lists the supported themes.
var Themes = []Theme{General, Movies, Science, History}

// ParseTheme accepts only the exact theme names.
func ParseTheme(s string) (Theme, error) {
	for _, known := range Themes {
		if Theme(s) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

// Source fetches puzzles and hints. Implementations must honor ctx.
type Source interface {
	FetchPuzzle(ctx context.Context, d Difficulty, t Theme) (Puzzle, error)
	FetchHint(ctx context.Context, answer string) (string, error)
}

// fetchErr wraps err (or a message) under ErrFetch.
func fetchErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFetch, fmt.Sprintf(format, args...))
}
