// internal/stats/stats.go
//
// Scoring and cumulative player statistics.
//
//   - ComputeAward turns a difficulty and the hints used into points.
//   - Tracker folds round outcomes into Stats and counts each round once.
//
// Stats invariants: LongestStreak >= CurrentStreak, GamesWon <= GamesPlayed,
// Score never decreases and HighScore is the largest Score ever seen.
package stats

import "github.com/robalobadob/gibberish-guesser/internal/puzzle"

// HintPenalty is the number of points each hint costs on a win.
const HintPenalty = 5

// Stats is the persisted, whole-history record of a player.
type Stats struct {
	GamesPlayed   int `json:"gamesPlayed"`
	GamesWon      int `json:"gamesWon"`
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
	Score         int `json:"score"`
	HighScore     int `json:"highScore"`
}

// Sanitize clamps negative fields to zero and restores the streak and
// win-count invariants. It is applied to anything read back from storage.
func (s Stats) Sanitize() Stats {
	for _, p := range []*int{&s.GamesPlayed, &s.GamesWon, &s.CurrentStreak, &s.LongestStreak, &s.Score, &s.HighScore} {
		if *p < 0 {
			*p = 0
		}
	}
	if s.GamesWon > s.GamesPlayed {
		s.GamesPlayed = s.GamesWon
	}
	if s.LongestStreak < s.CurrentStreak {
		s.LongestStreak = s.CurrentStreak
	}
	if s.HighScore < s.Score {
		s.HighScore = s.Score
	}
	return s
}

// WinRate returns the percentage of games won, rounded down.
func (s Stats) WinRate() int {
	if s.GamesPlayed == 0 {
		return 0
	}
	return s.GamesWon * 100 / s.GamesPlayed
}

// BasePoints is the award for a hint-free win at difficulty d.
func BasePoints(d puzzle.Difficulty) int {
	switch d {
	case puzzle.Medium:
		return 20
	case puzzle.Hard:
		return 30
	default:
		return 10
	}
}

// ComputeAward returns the points for a win. Never negative.
func ComputeAward(d puzzle.Difficulty, hintsUsed int) int {
	return max(0, BasePoints(d)-HintPenalty*hintsUsed)
}

// Tracker applies round outcomes to Stats. A round is counted in
// GamesPlayed at most once, whichever of ApplyWin or ApplyLoss comes first.
type Tracker struct {
	stats   Stats
	counted bool
}

// NewTracker starts tracking from s.
func NewTracker(s Stats) *Tracker {
	return &Tracker{stats: s.Sanitize()}
}

// Stats returns a copy of the current totals.
func (t *Tracker) Stats() Stats { return t.stats }

// BeginRound opens a new, uncounted round.
func (t *Tracker) BeginRound() { t.counted = false }

// Counted reports whether the current round has been folded into the totals.
func (t *Tracker) Counted() bool { return t.counted }

// BreakStreak resets the current streak without ending the round.
func (t *Tracker) BreakStreak() { t.stats.CurrentStreak = 0 }

// ApplyLoss resets the streak and counts the round as played. It reports
// whether the totals changed.
func (t *Tracker) ApplyLoss() bool {
	changed := t.stats.CurrentStreak != 0
	t.stats.CurrentStreak = 0
	if !t.counted {
		t.counted = true
		t.stats.GamesPlayed++
		changed = true
	}
	return changed
}

// ApplyWin counts the round as won, extends the streak and adds points.
// It reports whether the new score is a new high score. A round that was
// already counted is left untouched.
func (t *Tracker) ApplyWin(points int) (newHigh bool) {
	if t.counted {
		return false
	}
	t.counted = true
	t.stats.GamesPlayed++
	t.stats.GamesWon++
	t.stats.CurrentStreak++
	t.stats.LongestStreak = max(t.stats.LongestStreak, t.stats.CurrentStreak)

	t.stats.Score += max(0, points)
	if t.stats.Score > t.stats.HighScore {
		t.stats.HighScore = t.stats.Score
		return true
	}
	return false
}
