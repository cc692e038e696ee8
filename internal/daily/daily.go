// internal/daily/daily.go
//
// Puzzle of the day. Every player gets the same pool puzzle on a given UTC
// date: the index is HMAC-SHA256(salt, "YYYY-MM-DD") modulo the pool size.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
)

var ErrEmptyPool = errors.New("daily: puzzle pool is empty")

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Index returns a deterministic index in [0, n) for the date of t.
func Index(t time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}

// Picker chooses the daily puzzle from a pool.
type Picker struct {
	pool *puzzle.Pool
	salt string
}

func NewPicker(pool *puzzle.Pool, salt string) *Picker {
	return &Picker{pool: pool, salt: salt}
}

// Today returns the date key and puzzle for t.
func (p *Picker) Today(t time.Time) (string, puzzle.Puzzle, error) {
	if p.pool == nil || p.pool.Len() == 0 {
		return "", puzzle.Puzzle{}, ErrEmptyPool
	}
	return DateKey(t), p.pool.At(Index(t, p.salt, p.pool.Len())), nil
}
