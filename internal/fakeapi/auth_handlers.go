package fakeapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/users"
	"github.com/rs/zerolog/log"
)

const authHeader = "x-auth-token"

type ctxKey int

const userKey ctxKey = iota

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Contact  string `json:"contact"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := s.accounts.GetByEmail(req.Email)
	if err != nil || !checkPasswordHash(req.Password, a.PasswordHash) {
		writeMsg(w, http.StatusBadRequest, "Invalid Credentials")
		return
	}
	if !a.Verified {
		writeMsg(w, http.StatusForbidden, "Please verify your email before logging in")
		return
	}
	if !s.issueOtp(w, a.User.Email) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to your email"})
}

func (s *Server) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Otp   string `json:"otp"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !s.accounts.CheckOtp(req.Email, req.Otp, MaxOtpFailures, s.now()) {
		writeMsg(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	a, err := s.accounts.GetByEmail(req.Email)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	access, err := s.tokens.CreateAccessToken(a.User.ID, string(a.User.Role))
	if err != nil {
		log.Err(err).Msg("failed to create access token")
		writeMsg(w, http.StatusInternalServerError, "Server error")
		return
	}
	refresh, err := s.tokens.CreateRefreshToken(a.User.ID)
	if err != nil {
		log.Err(err).Msg("failed to create refresh token")
		writeMsg(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         a.User,
	})
}

func (s *Server) resendOtp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	a, err := s.accounts.GetByEmail(req.Email)
	if err != nil || !a.Verified {
		writeMsg(w, http.StatusBadRequest, "User not found")
		return
	}
	if !s.issueOtp(w, a.User.Email) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP resent successfully"})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeMsg(w, http.StatusBadRequest, "Please fill in all required fields")
		return
	}
	u := users.User{Email: strings.TrimSpace(req.Email), Name: req.Name, Contact: req.Contact, Credits: DefaultSignupCredits}
	a, err := s.accounts.Create(u, req.Password, false)
	if errors.Is(err, errors.ErrValidation) {
		writeMsg(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		log.Err(err).Msg("signup failed")
		writeMsg(w, http.StatusInternalServerError, "Server error")
		return
	}
	s.send(a.User.Email, MailVerify, a.VerifyToken)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Signup successful. Please check your email to verify your account."})
}

func (s *Server) verifyEmail(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	err := s.accounts.UpdateWhere(func(a *account) bool {
		return token != "" && a.VerifyToken == token
	}, func(a *account) error {
		a.Verified = true
		a.VerifyToken = ""
		return nil
	})
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid or expired verification link")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully. You can now log in."})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	token := randomToken()
	err := s.accounts.Update(req.Email, func(a *account) error {
		a.ResetToken = token
		return nil
	})
	if errors.Is(err, errors.ErrNotFound) {
		writeMsg(w, http.StatusNotFound, "User not found")
		return
	}
	s.send(req.Email, MailReset, token)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset link sent to your email"})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	var req struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeMsg(w, http.StatusBadRequest, "Password is required")
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		writeMsg(w, http.StatusInternalServerError, "Server error")
		return
	}

	var userID string
	err = s.accounts.UpdateWhere(func(a *account) bool {
		return token != "" && a.ResetToken == token
	}, func(a *account) error {
		a.PasswordHash = hash
		a.ResetToken = ""
		userID = a.User.ID
		return nil
	})
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid or expired reset link")
		return
	}
	s.tokens.RevokeUser(userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset successful"})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeMsg(w, http.StatusUnauthorized, "Refresh token required")
		return
	}
	userID, err := s.tokens.LookupRefreshToken(req.RefreshToken)
	if err != nil {
		writeMsg(w, http.StatusForbidden, "Invalid refresh token")
		return
	}
	a, err := s.accounts.GetByID(userID)
	if err != nil {
		writeMsg(w, http.StatusForbidden, "Invalid refresh token")
		return
	}
	access, err := s.tokens.CreateAccessToken(a.User.ID, string(a.User.Role))
	if err != nil {
		writeMsg(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) issueOtp(w http.ResponseWriter, email string) bool {
	code, err := s.accounts.IssueOtp(email, DefaultOtpTTL, s.now())
	if err != nil {
		log.Err(err).Msg("failed to issue otp")
		writeMsg(w, http.StatusInternalServerError, "Server error")
		return false
	}
	s.send(email, MailOtp, code)
	return true
}

// requireUser rejects requests without a valid x-auth-token and puts the caller in the context
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(authHeader)
		if raw == "" {
			writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		userID, err := s.tokens.ParseAccessToken(raw)
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		a, err := s.accounts.GetByID(userID)
		if err != nil {
			writeMsg(w, http.StatusUnauthorized, "Token is not valid")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, a.User)))
	}
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		u := userFrom(r.Context())
		if !u.IsAdmin() {
			writeMsg(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r)
	})
}

func userFrom(ctx context.Context) users.User {
	u, _ := ctx.Value(userKey).(users.User)
	return u
}
