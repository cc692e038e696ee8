// internal/store/adapter.go
//
// Adapter maps player state onto a KV under namespaced keys:
//
//	gibberish-guesser:<player>:stats         JSON stats.Stats
//	gibberish-guesser:<player>:theme         theme name
//	gibberish-guesser:<player>:tutorial-seen "true"
//
// Every method fails open. Missing, unreadable or invalid values load as
// defaults, and storage errors on save are logged and swallowed.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gibberish-guesser/internal/game"
	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
	"github.com/robalobadob/gibberish-guesser/internal/stats"
)

// KeyPrefix namespaces every key written by the Adapter.
const KeyPrefix = "gibberish-guesser"

const (
	keyStats    = "stats"
	keyTheme    = "theme"
	keyTutorial = "tutorial-seen"
)

var _ game.Persister = (*Adapter)(nil)

// Adapter implements game.Persister on top of a KV.
type Adapter struct {
	kv KV
}

// NewAdapter wraps kv.
func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

// Key returns the storage key for one of a player's values.
func Key(player, name string) string {
	return KeyPrefix + ":" + player + ":" + name
}

func (a *Adapter) LoadStats(ctx context.Context, player string) stats.Stats {
	raw, ok := a.load(ctx, player, keyStats)
	if !ok {
		return stats.Stats{}
	}
	var s stats.Stats
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		log.Warn().Err(err).Str("player", player).Msg("discarding unreadable stats")
		return stats.Stats{}
	}
	return s.Sanitize()
}

func (a *Adapter) SaveStats(ctx context.Context, player string, s stats.Stats) {
	b, err := json.Marshal(s)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("encode stats")
		return
	}
	a.save(ctx, player, keyStats, string(b))
}

func (a *Adapter) LoadTheme(ctx context.Context, player string) puzzle.Theme {
	raw, ok := a.load(ctx, player, keyTheme)
	if !ok {
		return puzzle.DefaultTheme
	}
	t, err := puzzle.ParseTheme(raw)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("discarding stored theme")
		return puzzle.DefaultTheme
	}
	return t
}

func (a *Adapter) SaveTheme(ctx context.Context, player string, t puzzle.Theme) {
	a.save(ctx, player, keyTheme, string(t))
}

func (a *Adapter) TutorialSeen(ctx context.Context, player string) bool {
	raw, ok := a.load(ctx, player, keyTutorial)
	return ok && raw == "true"
}

func (a *Adapter) MarkTutorialSeen(ctx context.Context, player string) {
	a.save(ctx, player, keyTutorial, "true")
}

// Forget removes everything stored for player.
func (a *Adapter) Forget(ctx context.Context, player string) {
	for _, name := range []string{keyStats, keyTheme, keyTutorial} {
		if err := a.kv.Remove(ctx, Key(player, name)); err != nil {
			log.Warn().Err(err).Str("player", player).Str("key", name).Msg("remove failed")
		}
	}
}

func (a *Adapter) load(ctx context.Context, player, name string) (string, bool) {
	raw, err := a.kv.Get(ctx, Key(player, name))
	if errors.Is(err, ErrNotFound) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("player", player).Str("key", name).Msg("load failed, using default")
		return "", false
	}
	return raw, true
}

func (a *Adapter) save(ctx context.Context, player, name, value string) {
	if err := a.kv.Set(ctx, Key(player, name), value); err != nil {
		log.Warn().Err(err).Str("player", player).Str("key", name).Msg("save failed")
	}
}
