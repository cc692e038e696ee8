package puzzle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeGenerator struct {
	reply string
	err   error
	last  Request
}

func (f *fakeGenerator) Generate(_ context.Context, req Request) (string, error) {
	f.last = req
	return f.reply, f.err
}

func TestParseDifficulty(t *testing.T) {
	for _, in := range []string{"easy", "Medium", " HARD "} {
		if _, err := ParseDifficulty(in); err != nil {
			t.Errorf("ParseDifficulty(%q) unexpected error: %v", in, err)
		}
	}
	if _, err := ParseDifficulty("insane"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Errorf("expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestParseTheme(t *testing.T) {
	if th, err := ParseTheme("Movies"); err != nil || th != Movies {
		t.Errorf("ParseTheme(Movies) = %v, %v", th, err)
	}
	if _, err := ParseTheme("movies"); !errors.Is(err, ErrUnknownTheme) {
		t.Errorf("theme names are exact, got %v", err)
	}
}

func TestGemini_FetchPuzzle(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		genErr  error
		want    Puzzle
		wantErr bool
	}{
		{"valid", `{"gibberish":" aisle of ewe ","answer":"I love you"}`, nil, Puzzle{"aisle of ewe", "I love you"}, false},
		{"missing answer", `{"gibberish":"aisle of ewe"}`, nil, Puzzle{}, true},
		{"blank field", `{"gibberish":"  ","answer":"x"}`, nil, Puzzle{}, true},
		{"not json", `sorry, I can't`, nil, Puzzle{}, true},
		{"transport error", "", errors.New("503"), Puzzle{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply, err: tt.genErr}
			got, err := NewGemini(gen).FetchPuzzle(context.Background(), Hard, Movies)
			if tt.wantErr {
				if !errors.Is(err, ErrFetch) {
					t.Fatalf("expected ErrFetch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !gen.last.JSON || !strings.Contains(gen.last.Prompt, "movie title") {
				t.Errorf("unexpected request %+v", gen.last)
			}
		})
	}
}

func TestGemini_FetchHint(t *testing.T) {
	gen := &fakeGenerator{reply: "  Something you say at dinner.  "}
	hint, err := NewGemini(gen).FetchHint(context.Background(), "Bon Appetit")
	if err != nil || hint != "Something you say at dinner." {
		t.Fatalf("FetchHint = %q, %v", hint, err)
	}
	if gen.last.JSON || !strings.Contains(gen.last.Prompt, `"Bon Appetit"`) {
		t.Errorf("unexpected request %+v", gen.last)
	}

	gen.reply = "   "
	if _, err := NewGemini(gen).FetchHint(context.Background(), "x"); !errors.Is(err, ErrFetch) {
		t.Errorf("empty hint should be ErrFetch, got %v", err)
	}
}

func TestPrompt_GeneralHasNoThemeSuffix(t *testing.T) {
	if got := Prompt(Easy, General); got != difficultyPrompts[Easy] {
		t.Errorf("Prompt(easy, General) = %q", got)
	}
}

func TestPool_NeverRepeatsPrevious(t *testing.T) {
	pool, err := NewPool([]Puzzle{{"a b", "A"}, {"c d", "C"}, {"e f", "E"}})
	if err != nil {
		t.Fatal(err)
	}
	prev := pool.Next()
	for i := 0; i < 200; i++ {
		next := pool.Next()
		if next == prev {
			t.Fatalf("pick %d repeated %+v", i, next)
		}
		prev = next
	}
}

func TestPool_TwoEntriesAlternate(t *testing.T) {
	pool, _ := NewPool([]Puzzle{{"a b", "A"}, {"c d", "C"}})
	pool.intn = func(int) int { return 0 }
	first, second, third := pool.Next(), pool.Next(), pool.Next()
	if first == second || second == third {
		t.Errorf("expected alternation, got %v %v %v", first, second, third)
	}
}

func TestPool_SingleEntry(t *testing.T) {
	pool, _ := NewPool([]Puzzle{{"a b", "A"}})
	if pool.Next() != pool.Next() {
		t.Error("single-entry pool must keep returning its only puzzle")
	}
}

func TestNewPool_RejectsEmpty(t *testing.T) {
	if _, err := NewPool([]Puzzle{{" ", "A"}}); err == nil {
		t.Error("expected error for a pool with no valid puzzles")
	}
}

func TestLoadPool(t *testing.T) {
	pool, err := LoadPool("")
	if err != nil {
		t.Fatalf("embedded pool: %v", err)
	}
	if pool.Len() < 2 {
		t.Errorf("embedded pool has %d puzzles", pool.Len())
	}

	path := filepath.Join(t.TempDir(), "puzzles.txt")
	_ = os.WriteFile(path, []byte("# comment\n\nHoe Lee Cow | Holy cow\n"), 0o644)
	pool, err = LoadPool(path)
	if err != nil || pool.Len() != 1 {
		t.Fatalf("LoadPool(file) = %v, %v", pool, err)
	}

	_ = os.WriteFile(path, []byte("no separator\n"), 0o644)
	if _, err := LoadPool(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestPool_FetchHint(t *testing.T) {
	pool, _ := NewPool([]Puzzle{{"a b", "A"}})
	hint, err := pool.FetchHint(context.Background(), "eye for an eye")
	if err != nil || hint != `It's 4 words and starts with "E".` {
		t.Errorf("FetchHint = %q, %v", hint, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.FetchPuzzle(ctx, Easy, General); !errors.Is(err, ErrFetch) {
		t.Errorf("cancelled fetch should be ErrFetch, got %v", err)
	}
}
