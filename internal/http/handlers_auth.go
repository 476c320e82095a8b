package http

import (
	"net/http"
	"time"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	id, err := s.auth.Signup(r.Context(), p.Get("username"), p.Get("email"), p.Get("password"))
	if err != nil {
		s.fail(w, r, err, errorMessages{Conflict: "Username or email already exists", Internal: "Internal server error"})
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Payload(struct {
		Message string `json:"message"`
		UserID  int64  `json:"userId"`
	}{Message: "User created", UserID: id}).Write(w)
}

// handleLogin issues a session token, returned in the body and as an
// HttpOnly cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	sess, user, err := s.auth.Login(r.Context(), p.Get("email"), p.Get("password"))
	if err != nil {
		s.fail(w, r, err, errorMessages{Unauthorized: "Invalid credentials", Internal: "Internal server error"})
		return
	}

	NewJSONResponse().
		Cookie(s.sessionCookie(sess.Token, sess.ExpiresAt)).
		Payload(struct {
			Message string   `json:"message"`
			Token   string   `json:"token"`
			User    userJSON `json:"user"`
		}{Message: "Login successful", Token: sess.Token, User: toUserJSON(user)}).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		s.fail(w, r, err, errorMessages{Internal: "Logout error"})
		return
	}
	NewJSONResponse().
		Cookie(s.sessionCookie("", time.Unix(0, 0))).
		Payload(messageJSON{Success: true, Message: "Logout successful"}).
		Write(w)
}

func (s *Server) sessionCookie(token string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	}
	return c
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Profile(r.Context(), mustUserID(r))
	if err != nil {
		s.fail(w, r, err, errorMessages{NotFound: "User not found", Internal: "Failed to fetch settings"})
		return
	}
	NewJSONResponse().Payload(struct {
		Success bool     `json:"success"`
		User    userJSON `json:"user"`
	}{Success: true, User: toUserJSON(u)}).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	err := s.auth.UpdateProfile(r.Context(), mustUserID(r), p.Get("username"), p.Get("email"))
	if err != nil {
		s.fail(w, r, err, errorMessages{
			NotFound: "User not found",
			Conflict: "Username or email already exists",
			Internal: "Failed to update profile",
		})
		return
	}
	NewJSONResponse().Payload(messageJSON{Success: true, Message: "Profile updated successfully"}).Write(w)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	err := s.auth.ChangePassword(r.Context(), mustUserID(r), p.Get("currentPassword"), p.Get("newPassword"))
	if err != nil {
		s.fail(w, r, err, errorMessages{NotFound: "User not found", Internal: "Failed to update password"})
		return
	}
	NewJSONResponse().Payload(messageJSON{Success: true, Message: "Password updated successfully"}).Write(w)
}
