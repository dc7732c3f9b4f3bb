package backendtest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/greencart/pkg/auth"
	"github.com/angelmondragon/greencart/pkg/httpclient"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/types"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const ctxAccount contextKey = "account"

var errUnknownAccount = errors.New("unknown account")

func requestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(httpclient.RequestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(httpclient.RequestIDHeader, reqID)
			ctx := logg.WithRequestID(r.Context(), reqID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// logging records one structured entry per request once it completes.
func logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			ctx = logg.WithFields(ctx, map[string]any{
				"status":      status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			logg.Info(ctx, "request.complete")
		})
	}
}

// requireUser resolves the bearer token to a seeded account or answers 401.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		forced := s.forceUnauth
		s.mu.Unlock()
		if forced {
			writeJSON(w, http.StatusUnauthorized, types.Envelope{Message: msgNotAuthorized})
			return
		}

		raw := strings.TrimSpace(r.Header.Get("Authorization"))
		token := raw
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, types.Envelope{Message: msgNotAuthorized})
			return
		}

		claims, err := auth.ParseToken(s.secret, token)
		if err != nil {
			s.logg.Debug(r.Context(), "rejecting token: "+err.Error())
			writeJSON(w, http.StatusUnauthorized, types.Envelope{Message: msgNotAuthorized})
			return
		}

		acct := s.accountByID(claims.UserID)
		if acct == nil {
			writeJSON(w, http.StatusUnauthorized, types.Envelope{Message: msgNotAuthorized})
			return
		}

		ctx := context.WithValue(r.Context(), ctxAccount, acct)
		ctx = s.logg.WithUserID(ctx, acct.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accountByID(id string) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.ID == id {
			return acct
		}
	}
	return nil
}

func accountFromContext(ctx context.Context) *Account {
	acct, _ := ctx.Value(ctxAccount).(*Account)
	return acct
}
