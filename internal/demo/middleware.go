package demo

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wolfman30/leadhunter/pkg/logging"
)

type contextKey string

const subjectKey contextKey = "demoSubject"

// requestLogger logs one line per request, reusing the caller's X-Request-ID.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get("X-Request-ID")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			logger.Info("demo request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.status,
				"request_id", reqID,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requireBearer validates an HMAC-signed JWT and stores its subject in the
// request context. Failures answer 401 with a FastAPI-style detail body.
func requireBearer(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(auth, "Bearer "), &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func subjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey).(string)
	return subject
}

// IssueToken mints an HS256 token for subject, valid for ttl.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    "leadhunter-demo",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
