// internal/share/share.go
//
// Sharing helpers:
//   - HighScoreText / PuzzleText build the player-facing share messages.
//   - Sealer turns a puzzle into an opaque challenge token and back, so a
//     challenge link does not give the answer away.
//   - QRCode renders a challenge link as a PNG.
package share

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
)

const (
	nonceSize = 24
	qrSize    = 320
)

// ErrInvalidToken is returned for tokens that are malformed, forged or
// sealed with another secret.
var ErrInvalidToken = errors.New("invalid challenge token")

// HighScoreText is shared after a new high score.
func HighScoreText(highScore int) string {
	return fmt.Sprintf("I just set a new high score of %d on Gibberish Guesser! Can you beat it?", highScore)
}

// PuzzleText is shared after solving a puzzle.
func PuzzleText(p puzzle.Puzzle) string {
	return fmt.Sprintf("I just solved this puzzle!\n\nGibberish: %q\nAnswer: %q\n\nThink you can solve one?", p.Gibberish, p.Answer)
}

// ChallengeText invites someone to play a sealed puzzle without revealing
// its answer.
func ChallengeText(p puzzle.Puzzle, url string) string {
	return fmt.Sprintf("Can you decode %q on Gibberish Guesser?\n%s", p.Gibberish, url)
}

// Sealer seals puzzles with a key derived from a server secret.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the sealing key from secret.
func NewSealer(secret string) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(secret))}
}

type sealed struct {
	G string `json:"g"`
	A string `json:"a"`
}

// Seal returns a URL-safe token for p.
func (s *Sealer) Seal(p puzzle.Puzzle) (string, error) {
	body, err := json.Marshal(sealed{G: p.Gibberish, A: p.Answer})
	if err != nil {
		return "", err
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], body, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

// Open verifies and decodes a token produced by Seal.
func (s *Sealer) Open(token string) (puzzle.Puzzle, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return puzzle.Puzzle{}, ErrInvalidToken
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	body, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return puzzle.Puzzle{}, ErrInvalidToken
	}
	var v sealed
	if err := json.Unmarshal(body, &v); err != nil {
		return puzzle.Puzzle{}, ErrInvalidToken
	}
	p := puzzle.Puzzle{Gibberish: v.G, Answer: v.A}
	if !p.Valid() {
		return puzzle.Puzzle{}, ErrInvalidToken
	}
	return p, nil
}

// QRCode renders url as a PNG.
func QRCode(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, qrSize)
}
