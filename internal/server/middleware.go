package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pharmarawasy-del/Delala/internal"
	"github.com/pharmarawasy-del/Delala/internal/session"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

// Context key types to avoid collisions
type contextKey string

const contextKeyUser contextKey = "user"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// SessionMiddleware resolves the visitor from the access-token cookie and
// attaches them to the request context. Any failure leaves the request
// unauthenticated; pages still render for signed-out visitors.
func (s *Service) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := s.accessTokenFromRequest(r)
		if err != nil || accessToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), session.DefaultTimeout)
		user, err := s.bootstrapper.Resolve(ctx, accessToken)
		cancel()
		if err != nil {
			s.logger.WithError(err).Debug("session resolve failed, continuing unauthenticated")
			next.ServeHTTP(w, r)
			return
		}

		ctx = context.WithValue(r.Context(), contextKeyUser, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth redirects signed-out visitors to login, remembering where
// they were headed. Runs after SessionMiddleware.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.userFromContext(r.Context())
		if err != nil {
			s.setRedirectCookie(w, r.URL.Path, time.Minute*5)
			http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
			return
		}

		// Accounts without a display name go through profile setup first.
		if user.ProfileIncomplete && r.URL.Path != "/profile/setup" {
			http.Redirect(w, r, "/profile/setup", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.userFromContext(r.Context())
		if err != nil || user.Profile == nil || !user.Profile.IsAdmin {
			http.NotFound(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Only strip if path is not root and has trailing slash
		if path != "/" && strings.HasSuffix(path, "/") {
			newPath := strings.TrimSuffix(path, "/")
			newURL := *r.URL
			newURL.Path = newPath

			// Preserve query string
			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// accessTokenFromRequest reads and decrypts the access-token cookie.
func (s *Service) accessTokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err != nil {
		return "", err
	}

	var accessToken string
	err = s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

// JWKSVerifier validates Supabase access tokens against the project's JWKS
// endpoint and extracts the subject and email claims.
type JWKSVerifier struct {
	cache *jwk.Cache
	url   string
}

func NewJWKSVerifier(cache *jwk.Cache, url string) *JWKSVerifier {
	return &JWKSVerifier{cache: cache, url: url}
}

func (v *JWKSVerifier) Verify(ctx context.Context, accessToken string) (string, string, error) {
	set, err := v.cache.Lookup(ctx, v.url)
	if err != nil {
		return "", "", err
	}

	token, err := jwt.Parse(
		[]byte(accessToken),
		jwt.WithKeySet(set),
		jwt.WithValidate(true),
	)
	if err != nil {
		return "", "", err
	}

	userID, ok := token.Subject()
	if !ok || userID == "" {
		return "", "", fmt.Errorf("no user id in jwt subject claim")
	}

	// Supabase subjects are auth user UUIDs.
	if _, err := uuid.Parse(userID); err != nil {
		return "", "", fmt.Errorf("jwt subject is not a valid user id: %w", err)
	}

	// email is a private claim and optional
	var email string
	_ = token.Get("email", &email)

	return userID, email, nil
}
