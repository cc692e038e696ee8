// internal/puzzle/pool.go
//
// Static fallback pool of hand-authored puzzles.
//
// Loading mirrors the word-list setup of the server:
//   1. If a file path is given, load "gibberish | answer" lines from it.
//   2. Otherwise use the embedded assets/puzzles.txt.
//
// Selection is uniform at random, never repeating the immediately previous
// pick when the pool holds more than one entry.
package puzzle

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/robalobadob/gibberish-guesser/assets"
)

// Pool is safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	puzzles []Puzzle
	last    int
	intn    func(n int) int
}

// NewPool builds a pool from puzzles. It fails if none are valid.
func NewPool(puzzles []Puzzle) (*Pool, error) {
	valid := lo.Filter(puzzles, func(p Puzzle, _ int) bool { return p.Valid() })
	if len(valid) == 0 {
		return nil, errors.New("puzzle pool is empty")
	}
	return &Pool{puzzles: valid, last: -1, intn: cryptoIntn}, nil
}

// LoadPool reads the pool from path, or from the embedded default when path
// is empty.
func LoadPool(path string) (*Pool, error) {
	var (
		lines []string
		err   error
	)
	if path == "" {
		lines, err = assets.PuzzleLines()
	} else {
		var f *os.File
		if f, err = os.Open(path); err == nil {
			defer f.Close()
			lines, err = assets.ReadLines(f)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load puzzle pool: %w", err)
	}
	puzzles, err := ParseLines(lines)
	if err != nil {
		return nil, err
	}
	return NewPool(puzzles)
}

// ParseLines parses "gibberish | answer" lines.
func ParseLines(lines []string) ([]Puzzle, error) {
	out := make([]Puzzle, 0, len(lines))
	for i, line := range lines {
		g, a, ok := strings.Cut(line, "|")
		p := Puzzle{Gibberish: strings.TrimSpace(g), Answer: strings.TrimSpace(a)}
		if !ok || !p.Valid() {
			return nil, fmt.Errorf("puzzle line %d: want \"gibberish | answer\", got %q", i+1, line)
		}
		out = append(out, p)
	}
	return out, nil
}

// Len returns the number of puzzles in the pool.
func (p *Pool) Len() int { return len(p.puzzles) }

// At returns the i-th puzzle in load order.
func (p *Pool) At(i int) Puzzle { return p.puzzles[i] }

// Next returns a random puzzle other than the previous pick.
func (p *Pool) Next() Puzzle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.puzzles) == 1 {
		p.last = 0
		return p.puzzles[0]
	}
	candidates := lo.Without(lo.Range(len(p.puzzles)), p.last)
	idx := candidates[p.intn(len(candidates))]
	p.last = idx
	return p.puzzles[idx]
}

// FetchPuzzle implements Source. The pool has no notion of difficulty or
// theme, so both are ignored.
func (p *Pool) FetchPuzzle(ctx context.Context, _ Difficulty, _ Theme) (Puzzle, error) {
	if err := ctx.Err(); err != nil {
		return Puzzle{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return p.Next(), nil
}

// FetchHint implements Source with a hint derived from the answer's shape.
func (p *Pool) FetchHint(ctx context.Context, answer string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	words := strings.Fields(answer)
	if len(words) == 0 {
		return "", fetchErr("no answer to hint at")
	}
	first := strings.ToUpper(string([]rune(words[0])[0]))
	if len(words) == 1 {
		return fmt.Sprintf("It's a single word starting with %q.", first), nil
	}
	return fmt.Sprintf("It's %d words and starts with %q.", len(words), first), nil
}

// cryptoIntn returns a uniform int in [0, n).
func cryptoIntn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
