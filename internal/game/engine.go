// internal/game/engine.go
//
// Session state machine for one player.
// Responsibilities:
//   - Start rounds from a puzzle Source or from a player-authored puzzle.
//   - Validate and judge guesses, schedule the incorrect → playing bounce.
//   - Spend the per-round hint and reveal budgets.
//   - Fold wins and losses into the player's Stats (custom rounds excluded).
//
// Concurrency:
//   - All fields are guarded by mu. Source calls run with mu released.
//   - Every round has an id; async results for an older round are dropped
//     and the older round's fetch context is cancelled.
//
// Status transitions are validated by a looplab/fsm machine:
//
//	fetch:   any       → loading
//	loaded:  loading   → playing
//	fail:    loading   → error
//	install: any       → playing
//	solve:   playing   → correct
//	miss:    playing   → incorrect
//	resume:  incorrect → playing
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gibberish-guesser/internal/phrase"
	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
	"github.com/robalobadob/gibberish-guesser/internal/stats"
)

const (
	evFetch   = "fetch"
	evLoaded  = "loaded"
	evFail    = "fail"
	evInstall = "install"
	evSolve   = "solve"
	evMiss    = "miss"
	evResume  = "resume"
)

var allStatuses = []string{
	string(StatusIdle), string(StatusLoading), string(StatusPlaying),
	string(StatusCorrect), string(StatusIncorrect), string(StatusError),
}

var errUnchanged = errors.New("setting unchanged")

// Options configures a new Session.
type Options struct {
	Source       puzzle.Source
	Stats        stats.Stats
	Difficulty   puzzle.Difficulty
	Theme        puzzle.Theme
	TutorialSeen bool
	RetryDelay   time.Duration
	Clock        Clock
	Hooks        Hooks
}

// Session is the live game state of a single player.
type Session struct {
	mu      sync.Mutex
	machine *fsm.FSM
	source  puzzle.Source
	clock   Clock
	delay   time.Duration
	hooks   Hooks
	tracker *stats.Tracker

	difficulty   puzzle.Difficulty
	theme        puzzle.Theme
	tutorialSeen bool
	lastActive   time.Time

	// per round
	round           uint64
	roundDifficulty puzzle.Difficulty
	puzzle          *puzzle.Puzzle
	guessText       string
	hint            string
	hintLoading     bool
	hintsRemaining  int
	hintsUsed       int
	revealRemaining int
	revealed        bool
	custom          bool
	guessedWrong    bool
	lastAward       int
	newHighScore    bool

	cancelFetch context.CancelFunc
	cancelHint  context.CancelFunc
	bounce      Timer

	noticeSeq uint64
	notice    *Notice

	subs    map[int]chan Snapshot
	nextSub int
}

// NewSession creates an idle session. Unknown difficulty or theme values
// fall back to easy and the default theme.
func NewSession(opts Options) *Session {
	if _, err := puzzle.ParseDifficulty(string(opts.Difficulty)); err != nil {
		opts.Difficulty = puzzle.Easy
	}
	if _, err := puzzle.ParseTheme(string(opts.Theme)); err != nil {
		opts.Theme = puzzle.DefaultTheme
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	s := &Session{
		source:          opts.Source,
		clock:           opts.Clock,
		delay:           opts.RetryDelay,
		hooks:           opts.Hooks,
		tracker:         stats.NewTracker(opts.Stats),
		difficulty:      opts.Difficulty,
		theme:           opts.Theme,
		tutorialSeen:    opts.TutorialSeen,
		roundDifficulty: opts.Difficulty,
		hintsRemaining:  HintsPerRound,
		revealRemaining: RevealsPerRound,
		subs:            make(map[int]chan Snapshot),
	}
	s.lastActive = s.clock.Now()
	s.machine = fsm.NewFSM(
		string(StatusIdle),
		fsm.Events{
			{Name: evFetch, Src: allStatuses, Dst: string(StatusLoading)},
			{Name: evLoaded, Src: []string{string(StatusLoading)}, Dst: string(StatusPlaying)},
			{Name: evFail, Src: []string{string(StatusLoading)}, Dst: string(StatusError)},
			{Name: evInstall, Src: allStatuses, Dst: string(StatusPlaying)},
			{Name: evSolve, Src: []string{string(StatusPlaying)}, Dst: string(StatusCorrect)},
			{Name: evMiss, Src: []string{string(StatusPlaying)}, Dst: string(StatusIncorrect)},
			{Name: evResume, Src: []string{string(StatusIncorrect)}, Dst: string(StatusPlaying)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debug().Str("event", e.Event).Str("from", e.Src).Str("to", e.Dst).Msg("session transition")
			},
		},
	)
	return s
}

// ---------------------------------------------------------------------------
// Round lifecycle

// StartRound fetches a new puzzle for the current difficulty and theme.
// It blocks until the fetch completes. If another round starts meanwhile,
// the result is discarded and ErrSuperseded is returned.
func (s *Session) StartRound(ctx context.Context) error {
	return s.startRound(ctx, nil)
}

// Reset abandons the current round without affecting stats and starts a
// new one. It is the retry action after an error.
func (s *Session) Reset(ctx context.Context) error {
	return s.startRound(ctx, nil)
}

// SkipRound gives up on the current round. An unsolved, non-custom round
// counts as a loss.
func (s *Session) SkipRound(ctx context.Context) error {
	return s.startRound(ctx, func() error {
		st := s.status()
		if st == StatusLoading || s.revealed {
			return ErrUnavailable
		}
		if !s.custom && s.puzzle != nil && (st == StatusPlaying || st == StatusIncorrect) {
			s.tracker.ApplyLoss()
			s.saveStatsLocked()
		}
		s.setNoticeLocked(NoticeSuccess, "Puzzle skipped!")
		return nil
	})
}

// ChangeDifficulty switches difficulty and starts a new round. Setting the
// current difficulty again does nothing.
func (s *Session) ChangeDifficulty(ctx context.Context, d puzzle.Difficulty) error {
	d, err := puzzle.ParseDifficulty(string(d))
	if err != nil {
		return err
	}
	err = s.startRound(ctx, func() error {
		if s.difficulty == d {
			return errUnchanged
		}
		s.difficulty = d
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// ChangeTheme switches theme, persists the preference and starts a new
// round. Setting the current theme again does nothing.
func (s *Session) ChangeTheme(ctx context.Context, t puzzle.Theme) error {
	t, err := puzzle.ParseTheme(string(t))
	if err != nil {
		return err
	}
	err = s.startRound(ctx, func() error {
		if s.theme == t {
			return errUnchanged
		}
		s.theme = t
		if s.hooks.SaveTheme != nil {
			s.hooks.SaveTheme(t)
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	return err
}

// CreateCustomRound validates a player-authored puzzle and plays it.
// Custom rounds never touch stats.
func (s *Session) CreateCustomRound(gibberish, answer string) error {
	g, a, err := phrase.ValidateCustom(gibberish, answer)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if err != nil {
		s.setNoticeLocked(NoticeError, phrase.Message(err))
		s.publishLocked()
		return err
	}
	s.installLocked(puzzle.Puzzle{Gibberish: g, Answer: a})
	s.setNoticeLocked(NoticeSuccess, "Your custom puzzle is ready to play!")
	s.publishLocked()
	return nil
}

// InstallChallenge plays a puzzle shared by another player as a custom
// round.
func (s *Session) InstallChallenge(p puzzle.Puzzle) error {
	return s.installPuzzle(p, "Challenge accepted! Good luck.")
}

// PlayDaily plays the puzzle of the day. Like challenges it is a custom
// round, so replaying it cannot farm points.
func (s *Session) PlayDaily(p puzzle.Puzzle) error {
	return s.installPuzzle(p, "Today's puzzle is ready!")
}

func (s *Session) installPuzzle(p puzzle.Puzzle, notice string) error {
	if !p.Valid() {
		return fmt.Errorf("%w: puzzle is incomplete", ErrUnavailable)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	s.installLocked(p)
	s.setNoticeLocked(NoticeSuccess, notice)
	s.publishLocked()
	return nil
}

func (s *Session) installLocked(p puzzle.Puzzle) {
	s.abandonLocked()
	s.custom = true
	s.resetRoundLocked()
	s.puzzle = &p
	s.fire(evInstall)
}

// startRound runs prep (if any) and begins the fetch under one lock, then
// waits for the Source with the lock released.
func (s *Session) startRound(ctx context.Context, prep func() error) error {
	s.mu.Lock()
	s.touchLocked()
	if prep != nil {
		if err := prep(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.abandonLocked()
	s.custom = false
	s.resetRoundLocked()
	round, d, t := s.round, s.difficulty, s.theme
	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	s.fire(evFetch)
	s.publishLocked()
	s.mu.Unlock()

	p, err := s.source.FetchPuzzle(fetchCtx, d, t)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round {
		return ErrSuperseded
	}
	s.cancelFetch = nil
	if err == nil && !p.Valid() {
		err = fmt.Errorf("%w: incomplete puzzle", puzzle.ErrFetch)
	}
	if err != nil {
		if !errors.Is(err, puzzle.ErrFetch) {
			err = fmt.Errorf("%w: %v", puzzle.ErrFetch, err)
		}
		log.Error().Err(err).Uint64("round", round).Msg("fetch puzzle")
		s.fire(evFail)
		s.setNoticeLocked(NoticeError, "Could not fetch a new puzzle. Please try again.")
		s.publishLocked()
		return err
	}
	s.puzzle = &p
	s.fire(evLoaded)
	s.publishLocked()
	return nil
}

// abandonLocked ends the current round: outstanding fetches are cancelled,
// the bounce timer is stopped and the round id moves on.
func (s *Session) abandonLocked() {
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	if s.cancelHint != nil {
		s.cancelHint()
		s.cancelHint = nil
	}
	s.stopBounceLocked()
	s.round++
}

func (s *Session) resetRoundLocked() {
	s.roundDifficulty = s.difficulty
	s.puzzle = nil
	s.guessText = ""
	s.hint = ""
	s.hintLoading = false
	s.hintsRemaining = HintsPerRound
	s.hintsUsed = 0
	s.revealRemaining = RevealsPerRound
	s.revealed = false
	s.guessedWrong = false
	s.lastAward = 0
	s.newHighScore = false
	s.tracker.BeginRound()
}

// ---------------------------------------------------------------------------
// Player actions

// SetGuess records in-progress input.
func (s *Session) SetGuess(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.puzzle == nil || s.revealed {
		return ErrUnavailable
	}
	s.touchLocked()
	s.guessText = text
	return nil
}

// SubmitGuess validates raw and judges it against the answer.
// Validation failures produce a notice and change nothing else.
func (s *Session) SubmitGuess(raw string) (GuessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.puzzle == nil || s.status() != StatusPlaying || s.revealed {
		return GuessResult{}, ErrUnavailable
	}
	guess, err := phrase.ValidateGuess(raw)
	if err != nil {
		s.setNoticeLocked(NoticeError, phrase.Message(err))
		s.publishLocked()
		return GuessResult{}, err
	}
	s.guessText = guess

	var res GuessResult
	if phrase.Equal(guess, s.puzzle.Answer) {
		res = s.winLocked()
	} else {
		s.missLocked()
	}
	s.publishLocked()
	return res, nil
}

func (s *Session) winLocked() GuessResult {
	s.stopBounceLocked()
	s.fire(evSolve)
	res := GuessResult{Correct: true}
	if s.custom {
		s.setNoticeLocked(NoticeSuccess, "You solved your own puzzle!")
		return res
	}
	res.Points = stats.ComputeAward(s.roundDifficulty, s.hintsUsed)
	res.Penalty = stats.HintPenalty * s.hintsUsed
	res.NewHighScore = s.tracker.ApplyWin(res.Points)
	s.lastAward = res.Points
	s.newHighScore = res.NewHighScore
	s.saveStatsLocked()

	msg := fmt.Sprintf("Correct! +%d points", res.Points)
	if res.Penalty > 0 {
		msg += fmt.Sprintf(" (-%d for hints)", res.Penalty)
	}
	s.setNoticeLocked(NoticeSuccess, msg)
	return res
}

// missLocked handles a wrong guess. The streak breaks immediately, even
// though the round can still be won by a later guess.
func (s *Session) missLocked() {
	s.fire(evMiss)
	s.guessedWrong = true
	s.guessText = ""
	if !s.custom {
		s.tracker.BreakStreak()
		s.saveStatsLocked()
	}
	s.setNoticeLocked(NoticeError, "Not quite, try again!")

	s.stopBounceLocked()
	round := s.round
	s.bounce = s.clock.AfterFunc(s.delay, func() { s.resume(round) })
}

// resume is the bounce callback. It only acts if the round is unchanged and
// still showing incorrect.
func (s *Session) resume(round uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round {
		return
	}
	s.bounce = nil
	if s.status() != StatusIncorrect {
		return
	}
	s.fire(evResume)
	s.publishLocked()
}

func (s *Session) stopBounceLocked() {
	if s.bounce != nil {
		s.bounce.Stop()
		s.bounce = nil
	}
}

// RequestHint asks the Source for a hint. The budget is only spent when a
// hint is actually delivered.
func (s *Session) RequestHint(ctx context.Context) (string, error) {
	s.mu.Lock()
	s.touchLocked()
	if !s.canHintLocked() {
		s.mu.Unlock()
		return "", ErrUnavailable
	}
	s.hintLoading = true
	s.hint = ""
	round, answer := s.round, s.puzzle.Answer
	hintCtx, cancel := context.WithCancel(ctx)
	s.cancelHint = cancel
	s.publishLocked()
	s.mu.Unlock()

	hint, err := s.source.FetchHint(hintCtx, answer)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if round != s.round {
		return "", ErrSuperseded
	}
	s.cancelHint = nil
	s.hintLoading = false
	if err == nil && hint == "" {
		err = fmt.Errorf("%w: empty hint", puzzle.ErrFetch)
	}
	if err != nil {
		if !errors.Is(err, puzzle.ErrFetch) {
			err = fmt.Errorf("%w: %v", puzzle.ErrFetch, err)
		}
		log.Error().Err(err).Uint64("round", round).Msg("fetch hint")
		s.setNoticeLocked(NoticeError, "Couldn't get a hint this time.")
		s.publishLocked()
		return "", err
	}
	if s.revealed {
		s.publishLocked()
		return "", ErrSuperseded
	}
	s.hint = hint
	s.hintsRemaining--
	s.hintsUsed++
	s.publishLocked()
	return hint, nil
}

// RevealAnswer discloses the answer once per round, after at least one
// wrong guess. A non-custom reveal counts as a loss.
func (s *Session) RevealAnswer() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if !s.canRevealLocked() {
		return "", ErrUnavailable
	}
	s.guessText = s.puzzle.Answer
	s.revealed = true
	s.revealRemaining = 0
	if !s.custom {
		s.tracker.ApplyLoss()
		s.saveStatsLocked()
	}
	s.publishLocked()
	return s.puzzle.Answer, nil
}

// MarkTutorialSeen records that the player dismissed the tutorial.
func (s *Session) MarkTutorialSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tutorialSeen {
		return
	}
	s.tutorialSeen = true
	if s.hooks.MarkTutorialSeen != nil {
		s.hooks.MarkTutorialSeen()
	}
	s.publishLocked()
}

func (s *Session) canHintLocked() bool {
	return s.puzzle != nil && s.status() == StatusPlaying && !s.revealed &&
		!s.hintLoading && s.hintsRemaining > 0
}

func (s *Session) canRevealLocked() bool {
	st := s.status()
	return s.puzzle != nil && s.revealRemaining > 0 && !s.revealed && s.guessedWrong &&
		st != StatusCorrect && st != StatusLoading
}

// ---------------------------------------------------------------------------
// Queries

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

// Stats returns the player's current totals.
func (s *Session) Stats() stats.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Stats()
}

// Puzzle returns the active puzzle, if any.
func (s *Session) Puzzle() (puzzle.Puzzle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.puzzle == nil {
		return puzzle.Puzzle{}, false
	}
	return *s.puzzle, true
}

// LastActive reports when the player last acted on this session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe returns a channel that receives the current snapshot and then
// one after every change. Slow readers only see the latest snapshot.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// Close cancels outstanding work and ends all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	if s.cancelHint != nil {
		s.cancelHint()
	}
	s.stopBounceLocked()
	for id, c := range s.subs {
		delete(s.subs, id)
		close(c)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	st := s.status()
	snap := Snapshot{
		Round:              s.round,
		Status:             st,
		Difficulty:         s.difficulty,
		Theme:              s.theme,
		GuessText:          s.guessText,
		Hint:               s.hint,
		HintLoading:        s.hintLoading,
		HintsRemaining:     s.hintsRemaining,
		HintsUsed:          s.hintsUsed,
		RevealRemaining:    s.revealRemaining,
		AnswerRevealed:     s.revealed,
		CustomGame:         s.custom,
		GuessedIncorrectly: s.guessedWrong,
		CanHint:            s.canHintLocked(),
		CanReveal:          s.canRevealLocked(),
		LastAward:          s.lastAward,
		NewHighScore:       s.newHighScore,
		ShowTutorial:       !s.tutorialSeen,
		Stats:              s.tracker.Stats(),
	}
	if s.puzzle != nil {
		snap.Gibberish = s.puzzle.Gibberish
		if s.revealed || st == StatusCorrect {
			snap.Answer = s.puzzle.Answer
		}
	}
	if s.notice != nil {
		n := *s.notice
		snap.Notice = &n
	}
	return snap
}

// ---------------------------------------------------------------------------
// helpers

func (s *Session) status() Status { return Status(s.machine.Current()) }

// fire triggers a status event. Re-entering the current state is not an
// error for this machine.
func (s *Session) fire(event string) {
	err := s.machine.Event(context.Background(), event)
	var same fsm.NoTransitionError
	if err != nil && !errors.As(err, &same) {
		log.Warn().Err(err).Str("event", event).Str("status", s.machine.Current()).Msg("rejected transition")
	}
}

func (s *Session) touchLocked() { s.lastActive = s.clock.Now() }

func (s *Session) setNoticeLocked(kind NoticeKind, msg string) {
	s.noticeSeq++
	s.notice = &Notice{ID: s.noticeSeq, Kind: kind, Message: msg}
}

func (s *Session) saveStatsLocked() {
	if s.hooks.SaveStats != nil {
		s.hooks.SaveStats(s.tracker.Stats())
	}
}

// publishLocked hands the latest snapshot to every subscriber, replacing
// any snapshot they have not read yet.
func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
