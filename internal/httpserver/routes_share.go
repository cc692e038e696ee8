// internal/httpserver/routes_share.go
//
// Sharing endpoints:
//   - GET  /share/score           → high score share text
//   - POST /share/puzzle          → share text plus a sealed challenge link
//   - POST /challenge/{token}     → play a shared puzzle as a custom round
//   - GET  /challenge/{token}/qr  → PNG QR code of the challenge link
//   - POST /daily                 → play the puzzle of the day

package httpserver

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gibberish-guesser/internal/game"
	"github.com/robalobadob/gibberish-guesser/internal/share"
)

type scoreShareRes struct {
	Text      string `json:"text"`
	HighScore int    `json:"highScore"`
}

type puzzleShareRes struct {
	Text      string `json:"text"`
	Challenge string `json:"challenge"`
	Token     string `json:"token"`
	URL       string `json:"url"`
	QR        string `json:"qr"`
}

type dailyRes struct {
	Date    string        `json:"date"`
	Session game.Snapshot `json:"session"`
}

func (s *Server) mountShare(r chi.Router) {
	r.Get("/share/score", s.handleShareScore)
	r.Post("/share/puzzle", s.handleSharePuzzle)
	r.Post("/challenge/{token}", s.handleChallenge)
	r.Get("/challenge/{token}/qr", s.handleChallengeQR)
}

func (s *Server) handleShareScore(w http.ResponseWriter, r *http.Request) {
	st := s.session(r).Stats()
	writeJSON(w, http.StatusOK, scoreShareRes{Text: share.HighScoreText(st.HighScore), HighScore: st.HighScore})
}

// handleSharePuzzle shares the puzzle the player just solved.
func (s *Server) handleSharePuzzle(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	p, ok := sess.Puzzle()
	if !ok || sess.Status() != game.StatusCorrect {
		writeActionError(w, sess, game.ErrUnavailable)
		return
	}
	token, err := s.opts.Sealer.Seal(p)
	if err != nil {
		log.Error().Err(err).Msg("seal challenge")
		writeError(w, http.StatusInternalServerError, "seal_failed")
		return
	}
	url := baseURL(r) + "/challenge/" + token
	writeJSON(w, http.StatusOK, puzzleShareRes{
		Text:      share.PuzzleText(p),
		Challenge: share.ChallengeText(p, url),
		Token:     token,
		URL:       url,
		QR:        url + "/qr",
	})
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	p, err := s.opts.Sealer.Open(chi.URLParam(r, "token"))
	if err != nil {
		writeActionError(w, nil, err)
		return
	}
	s.respond(w, sess, sess.InstallChallenge(p))
}

// handleChallengeQR renders the challenge URL (this path minus "/qr").
func (s *Server) handleChallengeQR(w http.ResponseWriter, r *http.Request) {
	if _, err := s.opts.Sealer.Open(chi.URLParam(r, "token")); err != nil {
		writeActionError(w, nil, err)
		return
	}
	url := baseURL(r) + strings.TrimSuffix(r.URL.Path, "/qr")
	png, err := share.QRCode(url)
	if err != nil {
		log.Error().Err(err).Msg("qr generation")
		writeError(w, http.StatusInternalServerError, "qr_failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	if s.opts.Daily == nil {
		writeError(w, http.StatusNotFound, "daily_disabled")
		return
	}
	sess := s.session(r)
	date, p, err := s.opts.Daily.Today(s.now())
	if err == nil {
		err = sess.PlayDaily(p)
	}
	if err != nil {
		writeActionError(w, sess, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyRes{Date: date, Session: sess.Snapshot()})
}

// baseURL derives scheme://host, respecting TLS and X-Forwarded-Proto.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
