package handlers

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"lumiere/internal/security"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const ClaimsContextKey ContextKey = "claims"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	limiter *security.RateLimiter
	tokens  *security.TokenIssuer
}

// NewMiddleware creates a new middleware instance. A nil limiter disables
// rate limiting and a nil issuer leaves the API open.
func NewMiddleware(limiter *security.RateLimiter, tokens *security.TokenIssuer) *Middleware {
	return &Middleware{
		limiter: limiter,
		tokens:  tokens,
	}
}

// RequireToken rejects requests without a valid bearer token
func (m *Middleware) RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.tokens == nil {
			next(w, r)
			return
		}

		raw, err := security.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="lumiere"`)
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
			return
		}

		claims, err := m.tokens.Validate(raw)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="lumiere", error="invalid_token"`)
			respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "Rejected access token", err)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter == nil {
			next(w, r)
			return
		}

		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			seconds := int(math.Ceil(m.limiter.RetryAfter().Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			log.Printf("Rate limit exceeded for %s on %s", ip, r.URL.Path)
			respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
			return
		}
		next(w, r)
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Call next handler
		next.ServeHTTP(rec, r)

		// Log request
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// GetClaimsFromContext retrieves the token claims from the request context
func GetClaimsFromContext(ctx context.Context) *jwt.RegisteredClaims {
	claims, ok := ctx.Value(ClaimsContextKey).(*jwt.RegisteredClaims)
	if !ok {
		return nil
	}
	return claims
}
