// internal/game/manager.go
//
// Manager owns one Session per player. It is the application controller
// that wires sessions to persistence:
//   - New sessions are seeded from the Persister (stats, theme, tutorial).
//   - Session hooks queue writes onto a single background writer so the
//     game never waits on storage.
//   - Idle sessions are evicted after IdleTimeout.
package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
	"github.com/robalobadob/gibberish-guesser/internal/stats"
)

const (
	writeQueueSize = 256
	writeTimeout   = 5 * time.Second
)

// Persister loads and saves per-player state. Implementations fail open:
// loads return defaults and saves only log on error.
type Persister interface {
	LoadStats(ctx context.Context, player string) stats.Stats
	SaveStats(ctx context.Context, player string, s stats.Stats)
	LoadTheme(ctx context.Context, player string) puzzle.Theme
	SaveTheme(ctx context.Context, player string, t puzzle.Theme)
	TutorialSeen(ctx context.Context, player string) bool
	MarkTutorialSeen(ctx context.Context, player string)
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Source      puzzle.Source
	Persister   Persister
	Difficulty  puzzle.Difficulty
	RetryDelay  time.Duration
	IdleTimeout time.Duration // 0 disables eviction
	Clock       Clock
}

// Manager is safe for concurrent use.
type Manager struct {
	opts ManagerOptions

	mu       sync.Mutex
	sessions map[string]*Session

	wmu    sync.RWMutex // guards closed and sends on writes
	closed bool
	writes chan func(context.Context)

	done chan struct{}
	wg   sync.WaitGroup
}

// NewManager starts the background writer and, if enabled, the idle reaper.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	m := &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
		writes:   make(chan func(context.Context), writeQueueSize),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.writer()
	if opts.IdleTimeout > 0 {
		m.wg.Add(1)
		go m.reaperLoop()
	}
	return m
}

// Get returns the player's session, creating it on first use.
func (m *Manager) Get(ctx context.Context, player string) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[player]; ok {
		m.mu.Unlock()
		return s
	}
	m.mu.Unlock()

	s := m.newSession(ctx, player)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[player]; ok {
		s.Close()
		return existing
	}
	m.sessions[player] = s
	log.Debug().Str("player", player).Msg("session created")
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops background work, flushing queued writes first.
func (m *Manager) Close() {
	m.wmu.Lock()
	if m.closed {
		m.wmu.Unlock()
		return
	}
	m.closed = true
	close(m.writes)
	close(m.done)
	m.wmu.Unlock()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.Close()
		delete(m.sessions, id)
	}
}

func (m *Manager) newSession(ctx context.Context, player string) *Session {
	opts := Options{
		Source:     m.opts.Source,
		Difficulty: m.opts.Difficulty,
		RetryDelay: m.opts.RetryDelay,
		Clock:      m.opts.Clock,
	}
	p := m.opts.Persister
	if p == nil {
		return NewSession(opts)
	}
	opts.Stats = p.LoadStats(ctx, player)
	opts.Theme = p.LoadTheme(ctx, player)
	opts.TutorialSeen = p.TutorialSeen(ctx, player)
	opts.Hooks = Hooks{
		SaveStats: func(st stats.Stats) {
			m.enqueue(func(ctx context.Context) { p.SaveStats(ctx, player, st) })
		},
		SaveTheme: func(t puzzle.Theme) {
			m.enqueue(func(ctx context.Context) { p.SaveTheme(ctx, player, t) })
		},
		MarkTutorialSeen: func() {
			m.enqueue(func(ctx context.Context) { p.MarkTutorialSeen(ctx, player) })
		},
	}
	return NewSession(opts)
}

// enqueue hands fn to the writer without blocking. Writes are dropped if
// the queue is full or the manager is closed.
func (m *Manager) enqueue(fn func(context.Context)) {
	m.wmu.RLock()
	defer m.wmu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.writes <- fn:
	default:
		log.Warn().Msg("persistence queue full, dropping write")
	}
}

func (m *Manager) writer() {
	defer m.wg.Done()
	for fn := range m.writes {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		fn(ctx)
		cancel()
	}
}

// reaperLoop periodically removes sessions idle longer than IdleTimeout.
func (m *Manager) reaperLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := m.reap(m.opts.Clock.Now()); n > 0 {
				log.Info().Int("evicted", n).Msg("idle sessions reaped")
			}
		case <-m.done:
			return
		}
	}
}

func (m *Manager) reap(now time.Time) int {
	cutoff := now.Add(-m.opts.IdleTimeout)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			s.Close()
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
