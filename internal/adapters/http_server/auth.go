package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"spot_rental/internal/adapters/auth"
	"spot_rental/internal/adapters/observability"
	"spot_rental/internal/app"
	"spot_rental/internal/domain"
)

type ctxKey int

const (
	userKey ctxKey = iota
	claimsKey
)

// Authenticator binds session cookies to users.
type Authenticator struct {
	tokens   *auth.Tokens
	revoked  domain.TokenDenylist // nil disables revocation
	sessions *app.SessionService
	secure   bool
}

func NewAuthenticator(tokens *auth.Tokens, revoked domain.TokenDenylist, sessions *app.SessionService, secure bool) *Authenticator {
	return &Authenticator{tokens: tokens, revoked: revoked, sessions: sessions, secure: secure}
}

// RestoreUser attaches the session's user to the request context. Requests with
// a missing, invalid, revoked or orphaned token continue anonymously.
func (a *Authenticator) RestoreUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(auth.CookieName)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, user, ok := a.resolve(r.Context(), c.Value)
		if !ok {
			observability.ObserveAuth("token_rejected")
			a.clearCookie(w)
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) resolve(ctx context.Context, token string) (*auth.Claims, domain.User, bool) {
	claims, err := a.tokens.Parse(token)
	if err != nil {
		log.Debug().Err(err).Msg("session token rejected")
		return nil, domain.User{}, false
	}
	if a.revoked != nil {
		revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// fail closed: treat the caller as anonymous
			log.Warn().Err(err).Msg("revocation lookup failed")
			return nil, domain.User{}, false
		}
		if revoked {
			return nil, domain.User{}, false
		}
	}
	id, err := claims.UserID()
	if err != nil {
		log.Debug().Err(err).Msg("session token has no user id")
		return nil, domain.User{}, false
	}
	u, err := a.sessions.CurrentUser(ctx, id)
	if err != nil {
		return nil, domain.User{}, false
	}
	return claims, u, true
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUser(r); !ok {
			writeStatus(w, http.StatusUnauthorized, msgAuthRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUser(r *http.Request) (domain.User, bool) {
	u, ok := r.Context().Value(userKey).(domain.User)
	return u, ok
}

// actor returns the authenticated user. Routes using it sit behind RequireAuth.
func actor(r *http.Request) domain.User {
	u, _ := currentUser(r)
	return u
}

func (a *Authenticator) startSession(w http.ResponseWriter, u domain.User) error {
	tok, err := a.tokens.Issue(u)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    tok.Value,
		Path:     "/",
		Expires:  tok.ExpiresAt,
		MaxAge:   int(a.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// endSession revokes the current token until it would have expired and clears the cookie.
func (a *Authenticator) endSession(w http.ResponseWriter, r *http.Request) {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok && a.revoked != nil {
		if err := a.revoked.Revoke(r.Context(), claims.ID, a.tokens.Remaining(claims)); err != nil {
			log.Warn().Err(err).Msg("token revocation failed")
		}
	}
	a.clearCookie(w)
}

func (a *Authenticator) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
