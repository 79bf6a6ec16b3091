package devserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/langassess/langassess/internal/auth"
	"github.com/langassess/langassess/internal/rbac"
)

type userView struct {
	ID    string    `json:"_id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email"`
	Role  rbac.Role `json:"role"`
}

func viewOf(u user) userView { return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role} }

type tokenReply struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	User         *userView `json:"user,omitempty"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeFail(w, http.StatusBadRequest, "email and password required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.HashCost)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, err.Error())
		return
	}
	u, err := s.store.addUser(user{Name: req.Name, Email: req.Email, PasswordHash: hash, Role: rbac.RoleStudent})
	if err != nil {
		writeFail(w, http.StatusConflict, "email already registered")
		return
	}
	s.log.Printf("otp for %s: %s", u.Email, s.cfg.DevOTPCode)
	writeOK(w, http.StatusCreated, "registered, check your email for the verification code", viewOf(u))
}

func (s *Server) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, err := s.store.userByEmail(req.Email)
	if err != nil {
		writeFail(w, http.StatusNotFound, "user not found")
		return
	}
	if req.OTP != s.cfg.DevOTPCode {
		writeFail(w, http.StatusBadRequest, "invalid verification code")
		return
	}
	_ = s.store.updateUser(u.ID, func(u *user) error { u.Verified = true; return nil })
	writeOK(w, http.StatusOK, "email verified", nil)
}

func (s *Server) resendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.store.userByEmail(req.Email); err != nil {
		writeFail(w, http.StatusNotFound, "user not found")
		return
	}
	s.log.Printf("otp for %s: %s", req.Email, s.cfg.DevOTPCode)
	writeOK(w, http.StatusOK, "verification code sent", nil)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, err := s.store.userByEmail(req.Email)
	if err != nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		loginAttempts.WithLabelValues("failure").Inc()
		writeFail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !u.Verified {
		loginAttempts.WithLabelValues("failure").Inc()
		writeFail(w, http.StatusForbidden, "email not verified")
		return
	}
	tr, err := s.issueTokens(w, u)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "issue token")
		return
	}
	loginAttempts.WithLabelValues("success").Inc()
	writeOK(w, http.StatusOK, "login successful", tr)
}

func (s *Server) issueTokens(w http.ResponseWriter, u user) (tokenReply, error) {
	access, err := s.auth.IssueAccess(u.ID, u.Email, string(u.Role))
	if err != nil {
		return tokenReply{}, err
	}
	refresh, err := s.auth.IssueRefresh(u.ID)
	if err != nil {
		return tokenReply{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     APIPrefix + "/auth",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.auth.RefreshTTL),
	})
	v := viewOf(u)
	return tokenReply{AccessToken: access, RefreshToken: refresh, User: &v}, nil
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Path:     APIPrefix + "/auth",
		HttpOnly: true,
		MaxAge:   -1,
	})
	writeOK(w, http.StatusOK, "logged out", nil)
}

// refreshToken accepts the refresh token from the cookie or, for clients
// without a cookie jar, from the body.
func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var tok string
	if c, err := r.Cookie(refreshCookie); err == nil {
		tok = c.Value
	}
	if tok == "" && r.ContentLength != 0 {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if !decode(w, r, &req) {
			return
		}
		tok = req.RefreshToken
	}
	if tok == "" {
		writeFail(w, http.StatusUnauthorized, "refresh token required")
		return
	}
	c, err := s.auth.ParseRefresh(tok)
	if err != nil {
		writeFail(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	u, err := s.store.userByID(c.ID)
	if err != nil {
		writeFail(w, http.StatusUnauthorized, "user no longer exists")
		return
	}
	tr, err := s.issueTokens(w, u)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, "issue token")
		return
	}
	writeOK(w, http.StatusOK, "token refreshed", tr)
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	u, err := s.store.userByEmail(req.Email)
	if err == nil {
		token := uuid.NewString()
		_ = s.store.updateUser(u.ID, func(u *user) error { u.ResetToken = token; return nil })
		s.log.Printf("password reset for %s: token=%s id=%s", u.Email, token, u.ID)
	}
	// same reply whether or not the account exists
	writeOK(w, http.StatusOK, "if the account exists a reset link has been sent", nil)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		UserID   string `json:"userId"`
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeFail(w, http.StatusBadRequest, "new password required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.HashCost)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, err.Error())
		return
	}
	err = s.store.updateUser(req.UserID, func(u *user) error {
		if u.ResetToken == "" || u.ResetToken != req.Token {
			return errBadReset
		}
		u.PasswordHash, u.ResetToken = hash, ""
		return nil
	})
	if err != nil {
		writeFail(w, http.StatusBadRequest, "invalid or expired reset link")
		return
	}
	writeOK(w, http.StatusOK, "password reset", nil)
}

var errBadReset = errors.New("bad reset token")

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	userID := auth.SubjectFromContext(r.Context())
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		writeFail(w, http.StatusBadRequest, "new password required")
		return
	}
	u, err := s.store.userByID(userID)
	if err != nil {
		writeFail(w, http.StatusNotFound, "user not found")
		return
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.CurrentPassword)) != nil {
		writeFail(w, http.StatusForbidden, "incorrect current password")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.HashCost)
	if err != nil {
		writeFail(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = s.store.updateUser(userID, func(u *user) error { u.PasswordHash = hash; return nil })
	writeOK(w, http.StatusOK, "password changed", nil)
}
