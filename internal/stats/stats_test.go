package stats

import (
	"testing"

	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
)

func TestComputeAward(t *testing.T) {
	tests := []struct {
		name  string
		diff  puzzle.Difficulty
		hints int
		want  int
	}{
		{"easy no hints", puzzle.Easy, 0, 10},
		{"easy one hint", puzzle.Easy, 1, 5},
		{"easy clamped", puzzle.Easy, 3, 0},
		{"medium two hints", puzzle.Medium, 2, 10},
		{"hard one hint", puzzle.Hard, 1, 25},
		{"hard no hints", puzzle.Hard, 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeAward(tt.diff, tt.hints); got != tt.want {
				t.Errorf("ComputeAward(%s, %d) = %d, want %d", tt.diff, tt.hints, got, tt.want)
			}
		})
	}
}

func TestTracker_ApplyWin(t *testing.T) {
	priors := []Stats{
		{},
		{GamesPlayed: 4, GamesWon: 2, CurrentStreak: 2, LongestStreak: 2, Score: 40, HighScore: 40},
		{GamesPlayed: 9, GamesWon: 5, CurrentStreak: 1, LongestStreak: 4, Score: 70, HighScore: 70},
	}
	for _, prior := range priors {
		tr := NewTracker(prior)
		tr.BeginRound()
		tr.ApplyWin(10)
		got := tr.Stats()
		if got.LongestStreak < got.CurrentStreak {
			t.Errorf("longest %d < current %d after win from %+v", got.LongestStreak, got.CurrentStreak, prior)
		}
		if got.GamesPlayed != prior.GamesPlayed+1 || got.GamesWon != prior.GamesWon+1 {
			t.Errorf("played/won not incremented: %+v -> %+v", prior, got)
		}
		if got.CurrentStreak != prior.CurrentStreak+1 {
			t.Errorf("streak = %d, want %d", got.CurrentStreak, prior.CurrentStreak+1)
		}
		if got.Score != prior.Score+10 || got.HighScore != got.Score {
			t.Errorf("score/highScore = %d/%d", got.Score, got.HighScore)
		}
	}
}

func TestTracker_HighScoreOnlyWhenExceeded(t *testing.T) {
	tr := NewTracker(Stats{Score: 0, HighScore: 50})
	tr.BeginRound()
	if tr.ApplyWin(30) {
		t.Error("30 points should not beat a high score of 50")
	}
	tr.BeginRound()
	if !tr.ApplyWin(30) {
		t.Error("60 points should be a new high score")
	}
	if got := tr.Stats().HighScore; got != 60 {
		t.Errorf("HighScore = %d, want 60", got)
	}
}

func TestTracker_LossCountedOncePerRound(t *testing.T) {
	tr := NewTracker(Stats{GamesPlayed: 3, GamesWon: 3, CurrentStreak: 3, LongestStreak: 3, Score: 30, HighScore: 30})
	tr.BeginRound()
	tr.BreakStreak()
	tr.ApplyLoss()
	tr.ApplyLoss()

	got := tr.Stats()
	if got.GamesPlayed != 4 {
		t.Errorf("GamesPlayed = %d, want 4", got.GamesPlayed)
	}
	if got.CurrentStreak != 0 || got.LongestStreak != 3 {
		t.Errorf("streaks = %d/%d, want 0/3", got.CurrentStreak, got.LongestStreak)
	}
	if got.Score != 30 || got.HighScore != 30 {
		t.Errorf("loss must not touch score: %+v", got)
	}
	if tr.ApplyWin(10) {
		t.Error("a counted round cannot also be won")
	}
	if tr.Stats().GamesWon != 3 {
		t.Error("GamesWon changed after the round was counted")
	}
}

func TestStats_Sanitize(t *testing.T) {
	got := Stats{GamesPlayed: 1, GamesWon: 3, CurrentStreak: 5, LongestStreak: 2, Score: -4, HighScore: -1}.Sanitize()
	want := Stats{GamesPlayed: 3, GamesWon: 3, CurrentStreak: 5, LongestStreak: 5}
	if got != want {
		t.Errorf("Sanitize() = %+v, want %+v", got, want)
	}
}

func TestStats_WinRate(t *testing.T) {
	if (Stats{}).WinRate() != 0 {
		t.Error("win rate of no games should be 0")
	}
	if got := (Stats{GamesPlayed: 3, GamesWon: 2}).WinRate(); got != 66 {
		t.Errorf("WinRate() = %d, want 66", got)
	}
}
