package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare()...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLoginOtp, ChainMiddleware(s.OtpSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLoginResend, ChainMiddleware(s.ResendOtpHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLoginCancel, ChainMiddleware(s.CancelLoginHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// Account flows
	s.RegisterRouteHandler("GET "+RouteSignup, ChainMiddleware(s.AccountPageHandler("Sign up", "signup"), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteVerifyEmail, ChainMiddleware(s.VerifyEmailHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteForgotPassword, ChainMiddleware(s.AccountPageHandler("Forgot password", "forgot"), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteResetPassword, ChainMiddleware(s.ResetPasswordGetHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordPostHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteProposal, ChainMiddleware(s.ProposalHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteSubscribe, ChainMiddleware(s.SubscribeHandler(), s.HTMLMiddleWare()...))

	// Studio routes (require an authenticated session)
	s.RegisterRouteHandler("GET "+RouteEdit, ChainMiddleware(s.EditPageHandler(), s.HTMLMiddleWare(s.authenticated)...))
	s.RegisterRouteHandler("GET "+RouteEditCredits, ChainMiddleware(s.CreditsHandler(), s.HTMLMiddleWare(s.authenticated)...))
	s.RegisterRouteHandler("POST "+RouteEditUpload, ChainMiddleware(s.EditUploadHandler(), s.HTMLMiddleWare(s.authenticated)...))
	s.RegisterRouteHandler("POST "+RouteEditSelect, ChainMiddleware(s.EditSelectHandler(), s.HTMLMiddleWare(s.authenticated)...))
	s.RegisterRouteHandler("POST "+RouteEditGenerate, ChainMiddleware(s.EditGenerateHandler(), s.HTMLMiddleWare(s.authenticated)...))
	s.RegisterRouteHandler("POST "+RouteEditReset, ChainMiddleware(s.EditResetHandler(), s.HTMLMiddleWare(s.authenticated)...))

	// Admin routes (require an authenticated admin)
	s.RegisterRouteHandler("GET "+RouteAdmin, ChainMiddleware(s.AdminPageHandler(), s.HTMLMiddleWare(s.admin)...))
	s.RegisterRouteHandler("GET "+RouteAdminAssets, ChainMiddleware(s.AdminAssetsHandler(), s.HTMLMiddleWare(s.admin)...))
	s.RegisterRouteHandler("POST "+RouteAdminAssets, ChainMiddleware(s.AdminUploadHandler(), s.HTMLMiddleWare(s.admin)...))
	s.RegisterRouteHandler("POST "+RouteAdminAssetDelete, ChainMiddleware(s.AdminDeleteAssetHandler(), s.HTMLMiddleWare(s.admin)...))
	s.RegisterRouteHandler("POST "+RouteAdminCleanup, ChainMiddleware(s.AdminCleanupHandler(), s.HTMLMiddleWare(s.admin)...))
	s.RegisterRouteHandler("POST "+RouteAdminPostDelete, ChainMiddleware(s.AdminDeletePostHandler(), s.HTMLMiddleWare(s.admin)...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPINotification, ChainMiddleware(s.NotificationHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIDismiss, ChainMiddleware(s.DismissHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}
