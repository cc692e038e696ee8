package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
	"github.com/robalobadob/gibberish-guesser/internal/stats"
)

type fakePersister struct {
	mu       sync.Mutex
	stats    map[string]stats.Stats
	themes   map[string]puzzle.Theme
	tutorial map[string]bool
}

func newFakePersister() *fakePersister {
	return &fakePersister{
		stats:    map[string]stats.Stats{},
		themes:   map[string]puzzle.Theme{},
		tutorial: map[string]bool{},
	}
}

func (f *fakePersister) LoadStats(_ context.Context, player string) stats.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats[player]
}

func (f *fakePersister) SaveStats(_ context.Context, player string, s stats.Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats[player] = s
}

func (f *fakePersister) LoadTheme(_ context.Context, player string) puzzle.Theme {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.themes[player]; ok {
		return t
	}
	return puzzle.DefaultTheme
}

func (f *fakePersister) SaveTheme(_ context.Context, player string, t puzzle.Theme) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.themes[player] = t
}

func (f *fakePersister) TutorialSeen(_ context.Context, player string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tutorial[player]
}

func (f *fakePersister) MarkTutorialSeen(_ context.Context, player string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tutorial[player] = true
}

func TestManager_GetSeedsFromPersister(t *testing.T) {
	p := newFakePersister()
	p.stats["alice"] = stats.Stats{GamesPlayed: 4, GamesWon: 3, Score: 50, HighScore: 50}
	p.themes["alice"] = puzzle.Movies
	p.tutorial["alice"] = true

	m := NewManager(ManagerOptions{Source: newFakeSource(loveYou), Persister: p, Clock: newFakeClock()})
	defer m.Close()

	s := m.Get(context.Background(), "alice")
	if again := m.Get(context.Background(), "alice"); again != s {
		t.Fatal("Get should return the same session for a player")
	}
	snap := s.Snapshot()
	if snap.Stats.GamesPlayed != 4 || snap.Theme != puzzle.Movies || snap.ShowTutorial {
		t.Errorf("seeded snapshot = %+v", snap)
	}

	other := m.Get(context.Background(), "bob")
	if other == s {
		t.Fatal("players must not share sessions")
	}
	if snap := other.Snapshot(); snap.Stats != (stats.Stats{}) || !snap.ShowTutorial {
		t.Errorf("new player snapshot = %+v", snap)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
}

func TestManager_PersistsThroughWriter(t *testing.T) {
	p := newFakePersister()
	m := NewManager(ManagerOptions{Source: newFakeSource(loveYou, holyCow), Persister: p, Clock: newFakeClock()})

	s := m.Get(context.Background(), "alice")
	if err := s.StartRound(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SubmitGuess("I love you"); err != nil {
		t.Fatal(err)
	}
	if err := s.ChangeTheme(context.Background(), puzzle.History); err != nil {
		t.Fatal(err)
	}
	s.MarkTutorialSeen()

	// Close drains the queue before returning.
	m.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	if got := p.stats["alice"]; got.GamesWon != 1 || got.Score != 10 {
		t.Errorf("persisted stats = %+v", got)
	}
	if p.themes["alice"] != puzzle.History {
		t.Errorf("persisted theme = %q", p.themes["alice"])
	}
	if !p.tutorial["alice"] {
		t.Error("tutorial flag was not persisted")
	}
}

func TestManager_WritesAfterCloseAreDropped(t *testing.T) {
	p := newFakePersister()
	m := NewManager(ManagerOptions{Source: newFakeSource(loveYou), Persister: p, Clock: newFakeClock()})
	s := m.Get(context.Background(), "alice")
	m.Close()
	m.Close()

	s.MarkTutorialSeen()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tutorial["alice"] {
		t.Error("write after Close should have been dropped")
	}
}

func TestManager_Reap(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(ManagerOptions{
		Source:      newFakeSource(loveYou),
		Persister:   newFakePersister(),
		IdleTimeout: time.Hour,
		Clock:       clock,
	})
	defer m.Close()

	idle := m.Get(context.Background(), "idle")
	clock.Advance(45 * time.Minute)
	m.Get(context.Background(), "active")

	clock.Advance(30 * time.Minute)
	if n := m.reap(clock.Now()); n != 1 {
		t.Fatalf("reap evicted %d sessions, want 1", n)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
	if fresh := m.Get(context.Background(), "idle"); fresh == idle {
		t.Error("reaped player should get a new session")
	}
}
