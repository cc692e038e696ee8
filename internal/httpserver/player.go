// internal/httpserver/player.go
//
// Anonymous player identity.
//   - A player is a uuid carried as the subject of an HS256 JWT.
//   - The token is read from "Authorization: Bearer" or the player cookie.
//   - Requests without a valid token get a fresh identity and cookie.
package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const playerTokenTTL = 180 * 24 * time.Hour

type ctxPlayerKey struct{}

// playerFrom returns the player id set by withPlayer.
func playerFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxPlayerKey{}).(string)
	return id
}

// withPlayer resolves (or mints) the player identity for every request.
func (s *Server) withPlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.parsePlayer(s.bearerOrCookie(r))
		if !ok {
			id = uuid.NewString()
			tok, exp, err := s.signPlayer(id)
			if err != nil {
				log.Error().Err(err).Msg("sign player token")
				writeError(w, http.StatusInternalServerError, "sign_failed")
				return
			}
			s.setPlayerCookie(w, tok, exp)
			log.Debug().Str("player", id).Msg("new player")
		}
		ctx := context.WithValue(r.Context(), ctxPlayerKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) signPlayer(id string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(playerTokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString([]byte(s.opts.JWTSecret))
	return ss, exp, err
}

// parsePlayer validates tok and returns its player id.
func (s *Server) parsePlayer(tok string) (string, bool) {
	if tok == "" {
		return "", false
	}
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", false
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", false
	}
	return claims.Subject, true
}

func (s *Server) setPlayerCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := s.opts.Production
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}
