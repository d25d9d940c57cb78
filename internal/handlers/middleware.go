package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"familyspace/internal/auth"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	MemberIDContextKey ContextKey = "member_id"
	FamilyIDContextKey ContextKey = "family_id"
	RoleContextKey     ContextKey = "role"
)

// TokenValidator resolves a bearer credential into session claims
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens TokenValidator
	logger *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens TokenValidator, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		logger: logger,
	}
}

// RequireAuth is middleware that requires a valid bearer token. The member
// id, family id and role key it carries are placed on the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrUnauthorized})
			return
		}

		claims, err := m.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			m.logger.Debug("rejected bearer token", zap.Error(err))
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrUnauthorized})
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, MemberIDContextKey, claims.MemberID)
		ctx = context.WithValue(ctx, FamilyIDContextKey, claims.FamilyID)
		ctx = context.WithValue(ctx, RoleContextKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Logging middleware logs HTTP requests
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.status),
			zap.Int("size", wrapped.size),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Recovery turns a panicking handler into a 500 response
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.logger.Error("panic serving request",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrInternalServerError})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// GetMemberID retrieves the caller's member id from the request context
func GetMemberID(ctx context.Context) int64 {
	id, _ := ctx.Value(MemberIDContextKey).(int64)
	return id
}

// GetFamilyID retrieves the caller's family id, 0 when the session has none
func GetFamilyID(ctx context.Context) int64 {
	id, _ := ctx.Value(FamilyIDContextKey).(int64)
	return id
}

// GetRole retrieves the caller's role key
func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(RoleContextKey).(string)
	return role
}
