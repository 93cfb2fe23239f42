package server

import (
	"net/http"

	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/jrsteele09/go-studio-client/studio"
)

// AccountPageHandler renders one of the account forms
func (s *Server) AccountPageHandler(title, form string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, "account.html", PageData{Title: title, Form: form})
	}
}

func (s *Server) SignupPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		res, _ := s.signup.Submit(r.Context(), session.SignupRequest{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			Name:     r.FormValue("name"),
			Contact:  r.FormValue("contact"),
		})
		if !res.OK() {
			redirectWith(w, r, RouteSignup, "error", res.Error)
			return
		}
		redirectWith(w, r, RouteLogin, "message", res.Message)
	}
}

// VerifyEmailHandler consumes the link from the verification email (GET /verify/{token})
func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, _ := s.recovery.VerifyEmail(r.Context(), r.PathValue("token"))
		s.render(w, r, "account.html", PageData{Title: "Email verification", Message: res.Message, Error: res.Error})
	}
}

func (s *Server) ForgotPasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		res, _ := s.recovery.ForgotPassword(r.Context(), r.FormValue("email"))
		flash(w, r, RouteForgotPassword, res)
	}
}

func (s *Server) ResetPasswordGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, "account.html", PageData{Title: "Reset password", Form: "reset", Token: r.PathValue("token")})
	}
}

func (s *Server) ResetPasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		token := r.PathValue("token")
		res, _ := s.recovery.ResetPassword(r.Context(), token, r.FormValue("password"), r.FormValue("confirm"))
		if !res.OK() {
			redirectWith(w, r, "/reset-password/"+token, "error", res.Error)
			return
		}
		redirectWith(w, r, RouteLogin, "message", res.Message)
	}
}

func (s *Server) ProposalHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		res, _ := s.forms.Propose(r.Context(), studio.Proposal{
			Name:  r.FormValue("name"),
			Email: r.FormValue("email"),
			Idea:  r.FormValue("idea"),
		})
		flash(w, r, RouteHome, res)
	}
}

func (s *Server) SubscribeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		res, _ := s.forms.Subscribe(r.Context(), r.FormValue("contact"))
		flash(w, r, RouteHome, res)
	}
}

func flash(w http.ResponseWriter, r *http.Request, path string, res pages.Result) {
	if !res.OK() {
		redirectWith(w, r, path, "error", res.Error)
		return
	}
	redirectWith(w, r, path, "message", res.Message)
}
