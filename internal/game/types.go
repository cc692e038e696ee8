// internal/game/types.go
//
// Core type definitions for the gibberish session state machine.
// Defines:
//   - Status: the session state (idle → loading → playing → correct/incorrect).
//   - Notice: a transient, player-facing message.
//   - Snapshot: plain data describing a session for the presentation layer.
//   - Clock/Timer: the scheduling seam used for the incorrect → playing bounce.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
	"github.com/robalobadob/gibberish-guesser/internal/stats"
)

// Status is the state of a session's current round.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusPlaying   Status = "playing"
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
	StatusError     Status = "error"
)

// Per-round budgets.
const (
	HintsPerRound   = 2
	RevealsPerRound = 1
)

// DefaultRetryDelay is how long a wrong guess shows as incorrect before
// the round returns to playing.
const DefaultRetryDelay = time.Second

var (
	// ErrUnavailable means the action's guard rejected it; nothing changed.
	ErrUnavailable = errors.New("action not available")
	// ErrSuperseded means an async result arrived for a round that has since
	// been replaced; it was discarded.
	ErrSuperseded = errors.New("round superseded")
)

// NoticeKind classifies a notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient message for the player. ID increases with every
// notice so clients can tell a repeated message from a new one.
type Notice struct {
	ID      uint64     `json:"id"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// GuessResult describes an accepted guess.
type GuessResult struct {
	Correct      bool `json:"correct"`
	Points       int  `json:"points"`
	Penalty      int  `json:"penalty"`
	NewHighScore bool `json:"newHighScore"`
}

// Snapshot is a point-in-time copy of a session. Answer is only set once
// the round is solved or the answer has been revealed.
type Snapshot struct {
	Round              uint64            `json:"round"`
	Status             Status            `json:"status"`
	Difficulty         puzzle.Difficulty `json:"difficulty"`
	Theme              puzzle.Theme      `json:"theme"`
	Gibberish          string            `json:"gibberish,omitempty"`
	Answer             string            `json:"answer,omitempty"`
	GuessText          string            `json:"guessText"`
	Hint               string            `json:"hint,omitempty"`
	HintLoading        bool              `json:"hintLoading"`
	HintsRemaining     int               `json:"hintsRemaining"`
	HintsUsed          int               `json:"hintsUsed"`
	RevealRemaining    int               `json:"revealRemaining"`
	AnswerRevealed     bool              `json:"answerRevealed"`
	CustomGame         bool              `json:"customGame"`
	GuessedIncorrectly bool              `json:"guessedIncorrectly"`
	CanHint            bool              `json:"canHint"`
	CanReveal          bool              `json:"canReveal"`
	LastAward          int               `json:"lastAward,omitempty"`
	NewHighScore       bool              `json:"newHighScore"`
	ShowTutorial       bool              `json:"showTutorial"`
	Stats              stats.Stats       `json:"stats"`
	Notice             *Notice           `json:"notice,omitempty"`
}

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks and tells time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Hooks receive state that must outlive the process. They are called with
// the session locked and must not block.
type Hooks struct {
	SaveStats        func(stats.Stats)
	SaveTheme        func(puzzle.Theme)
	MarkTutorialSeen func()
}
