package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	tokenKey  contextKey = "session_token"

	// sessionCookie carries the token for browser clients.
	sessionCookie = "token"
)

// errorMessages are the client-facing texts for each error kind. Empty
// fields fall back to generic messages.
type errorMessages struct {
	NotFound     string
	Conflict     string
	Unauthorized string
	Internal     string
}

// fail maps err onto the error taxonomy and writes the response. Details
// of internal failures are logged, never returned.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, msgs errorMessages) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		BadRequestError(ve.Message, ve.Field).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(orDefault(msgs.NotFound, "Not found")).Write(w)
	case errors.Is(err, core.ErrConflict):
		ConflictError(orDefault(msgs.Conflict, "Conflict")).Write(w)
	case errors.Is(err, core.ErrUnauthenticated):
		UnauthorizedError(orDefault(msgs.Unauthorized, "Unauthorized")).Write(w)
	default:
		fields := log.NewFields()
		if uid, ok := userIDFrom(r.Context()); ok {
			fields = fields.WithUser(uid)
		}
		fields[log.FieldMethod] = r.Method
		fields[log.FieldPath] = r.URL.Path
		s.structured(r.Context()).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method, fields)
		InternalServerError(orDefault(msgs.Internal, "Internal server error")).Write(w)
	}
}

func (s *Server) structured(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(ctx))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// requireAuth resolves the bearer token or session cookie to a user id and
// stores it in the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			UnauthorizedError("Unauthorized").Write(w)
			return
		}
		userID, err := s.auth.Authenticate(r.Context(), token)
		if err != nil {
			s.fail(w, r, err, errorMessages{Internal: "Failed to verify session"})
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		ctx = context.WithValue(ctx, tokenKey, token)
		ctx = context.WithValue(ctx, log.LoggerContextKey, log.FromContext(ctx).With(log.FieldUserID, userID))
		next(w, r.WithContext(ctx))
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func userIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// mustUserID returns the authenticated user. Only call behind requireAuth.
func mustUserID(r *http.Request) int64 {
	id, ok := userIDFrom(r.Context())
	if !ok {
		panic("http: handler registered without requireAuth")
	}
	return id
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// parseBody reads the request body, writing a 400 on malformed input.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body", "").Write(w)
		return nil, false
	}
	return p, true
}
