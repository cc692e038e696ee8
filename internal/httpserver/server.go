// internal/httpserver/server.go
//
// HTTP server wiring for the Gibberish Guesser backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, request
//     logging, JSON, CORS, timeouts).
//   - Public endpoints: "/", "/health".
//   - Session endpoints under /session, one session per player.
//   - Share, challenge and daily puzzle endpoints.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled so the player cookie works.
//   - The websocket stream is mounted outside the timeout group.
//   - Source calls run detached from the client connection, bounded by
//     FetchTimeout, so a dropped request does not fail the round.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gibberish-guesser/internal/daily"
	"github.com/robalobadob/gibberish-guesser/internal/game"
	"github.com/robalobadob/gibberish-guesser/internal/phrase"
	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
	"github.com/robalobadob/gibberish-guesser/internal/share"
)

const defaultFetchTimeout = 15 * time.Second

// Options configures a Server.
type Options struct {
	Manager      *game.Manager
	Sealer       *share.Sealer
	Daily        *daily.Picker // nil disables /daily
	JWTSecret    string
	CookieName   string
	ClientOrigin string
	Production   bool
	FetchTimeout time.Duration
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	opts Options
	now  func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.CookieName == "" {
		opts.CookieName = "gibberish_player"
	}
	s := &Server{r: chi.NewRouter(), opts: opts, now: time.Now}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"gibberish-guesser","endpoints":["/health","/session","/share/*","/challenge/*","/daily"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.withPlayer)
		r.Get("/session/events", s.handleEvents)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(opts.FetchTimeout + 5*time.Second))
			s.mountSession(r)
			s.mountShare(r)
			r.Post("/daily", s.handleDaily)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Handler exposes the router (useful for tests and http.Server).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimw.GetReqID(r.Context())).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------ helpers ------------------------------------

func (s *Server) session(r *http.Request) *game.Session {
	return s.opts.Manager.Get(r.Context(), playerFrom(r.Context()))
}

// fetchContext bounds a Source call without tying it to the client
// connection.
func (s *Server) fetchContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.opts.FetchTimeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// errorRes is the body of every failed session action.
type errorRes struct {
	Error   string         `json:"error"`
	Notice  *game.Notice   `json:"notice,omitempty"`
	Session *game.Snapshot `json:"session,omitempty"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, phrase.ErrEmptyGuess),
		errors.Is(err, phrase.ErrInvalidCharacters),
		errors.Is(err, phrase.ErrCustomMissing),
		errors.Is(err, phrase.ErrCustomTooShort),
		errors.Is(err, phrase.ErrCustomSameAsAnswer),
		errors.Is(err, puzzle.ErrUnknownDifficulty),
		errors.Is(err, puzzle.ErrUnknownTheme),
		errors.Is(err, share.ErrInvalidToken),
		errors.Is(err, errBadJSON):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrUnavailable), errors.Is(err, game.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, puzzle.ErrFetch):
		return http.StatusBadGateway
	case errors.Is(err, daily.ErrEmptyPool):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeActionError reports err along with the session state after it.
func writeActionError(w http.ResponseWriter, sess *game.Session, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("session action")
	}
	res := errorRes{Error: err.Error()}
	if sess != nil {
		snap := sess.Snapshot()
		res.Session = &snap
		res.Notice = snap.Notice
	}
	writeJSON(w, status, res)
}

var errBadJSON = errors.New("invalid json body")

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}
