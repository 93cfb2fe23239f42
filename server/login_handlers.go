package server

import (
	"net/http"

	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/rs/zerolog/log"
)

// IndexHandler renders the home page with the public community gallery
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := s.studio.ListCommunity(r.Context())
		if err != nil {
			log.Err(err).Msg("failed to load community posts")
		}
		s.render(w, r, "index.html", PageData{Title: "Home", Posts: posts})
	}
}

// LoginPageHandler shows whichever login step is in progress (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.store.IsAuthenticated() {
			http.Redirect(w, r, s.config.GetHomePath(), http.StatusSeeOther)
			return
		}
		step := s.login.Step()
		if step != pages.StepOtp {
			step = pages.StepCredentials
		}
		s.render(w, r, "login.html", PageData{
			Title:   "Log in",
			Step:    step.String(),
			Email:   s.login.Email(),
			Error:   s.login.Error(),
			Message: s.login.Message(),
		})
	}
}

// LoginSubmissionHandler processes the email and password form (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if err := s.login.SubmitCredentials(r.Context(), r.FormValue("email"), r.FormValue("password")); err != nil {
			log.Debug().Err(err).Msg("login rejected")
		}
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

// OtpSubmissionHandler completes the login (POST /login/otp)
func (s *Server) OtpSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if err := s.login.SubmitOtp(r.Context(), r.FormValue("otp")); err != nil {
			log.Debug().Err(err).Msg("otp rejected")
			http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, s.config.GetHomePath(), http.StatusSeeOther)
	}
}

// ResendOtpHandler asks for a fresh code (POST /login/otp/resend)
func (s *Server) ResendOtpHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.login.Resend(r.Context()); err != nil {
			log.Debug().Err(err).Msg("resend failed")
		}
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

// CancelLoginHandler goes back from the OTP step to the password form (POST /login/cancel)
func (s *Server) CancelLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.login.Back()
		http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.store.Logout()
		s.login.Back()
		http.Redirect(w, r, s.config.GetLoginPath(), http.StatusSeeOther)
	}
}
