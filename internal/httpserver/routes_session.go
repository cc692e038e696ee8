// internal/httpserver/routes_session.go
//
// Session endpoints. Every response carries the session snapshot so the
// client can render from it directly.
//
//	GET  /session             current snapshot
//	POST /session/round       start a round
//	POST /session/reset       retry / new round without stats effects
//	POST /session/skip        give up on the current round
//	POST /session/guess       {guess}
//	POST /session/input       {text}
//	POST /session/hint
//	POST /session/reveal
//	POST /session/custom      {gibberish, answer}
//	POST /session/tutorial    mark the tutorial as seen
//	PUT  /session/difficulty  {difficulty}
//	PUT  /session/theme       {theme}

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/gibberish-guesser/internal/game"
	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
)

type sessionRes struct {
	Session game.Snapshot     `json:"session"`
	Result  *game.GuessResult `json:"result,omitempty"`
	Hint    string            `json:"hint,omitempty"`
	Answer  string            `json:"answer,omitempty"`
}

type guessReq struct {
	Guess string `json:"guess"`
}

type inputReq struct {
	Text string `json:"text"`
}

type customReq struct {
	Gibberish string `json:"gibberish"`
	Answer    string `json:"answer"`
}

type difficultyReq struct {
	Difficulty string `json:"difficulty"`
}

type themeReq struct {
	Theme string `json:"theme"`
}

func (s *Server) mountSession(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Post("/round", s.handleRound)
		r.Post("/reset", s.handleReset)
		r.Post("/skip", s.handleSkip)
		r.Post("/guess", s.handleGuess)
		r.Post("/input", s.handleInput)
		r.Post("/hint", s.handleHint)
		r.Post("/reveal", s.handleReveal)
		r.Post("/custom", s.handleCustom)
		r.Post("/tutorial", s.handleTutorial)
		r.Put("/difficulty", s.handleDifficulty)
		r.Put("/theme", s.handleTheme)
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionRes{Session: s.session(r).Snapshot()})
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	ctx, cancel := s.fetchContext(r)
	defer cancel()
	s.respond(w, sess, sess.StartRound(ctx))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	ctx, cancel := s.fetchContext(r)
	defer cancel()
	s.respond(w, sess, sess.Reset(ctx))
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	ctx, cancel := s.fetchContext(r)
	defer cancel()
	s.respond(w, sess, sess.SkipRound(ctx))
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	var req guessReq
	if err := decode(r, &req); err != nil {
		writeActionError(w, sess, err)
		return
	}
	res, err := sess.SubmitGuess(req.Guess)
	if err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{Session: sess.Snapshot(), Result: &res})
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	var req inputReq
	if err := decode(r, &req); err != nil {
		writeActionError(w, sess, err)
		return
	}
	s.respond(w, sess, sess.SetGuess(req.Text))
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	ctx, cancel := s.fetchContext(r)
	defer cancel()
	hint, err := sess.RequestHint(ctx)
	if err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{Session: sess.Snapshot(), Hint: hint})
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	answer, err := sess.RevealAnswer()
	if err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{Session: sess.Snapshot(), Answer: answer})
}

func (s *Server) handleCustom(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	var req customReq
	if err := decode(r, &req); err != nil {
		writeActionError(w, sess, err)
		return
	}
	s.respond(w, sess, sess.CreateCustomRound(req.Gibberish, req.Answer))
}

func (s *Server) handleTutorial(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	sess.MarkTutorialSeen()
	s.respond(w, sess, nil)
}

func (s *Server) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	var req difficultyReq
	if err := decode(r, &req); err != nil {
		writeActionError(w, sess, err)
		return
	}
	ctx, cancel := s.fetchContext(r)
	defer cancel()
	s.respond(w, sess, sess.ChangeDifficulty(ctx, puzzle.Difficulty(req.Difficulty)))
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	var req themeReq
	if err := decode(r, &req); err != nil {
		writeActionError(w, sess, err)
		return
	}
	ctx, cancel := s.fetchContext(r)
	defer cancel()
	s.respond(w, sess, sess.ChangeTheme(ctx, puzzle.Theme(req.Theme)))
}

// respond writes the snapshot on success or the mapped error otherwise.
func (s *Server) respond(w http.ResponseWriter, sess *game.Session, err error) {
	if err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionRes{Session: sess.Snapshot()})
}
