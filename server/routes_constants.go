package server

// Route path constants
// All gateway routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = "/"

	// Login & Logout
	RouteLogin       = "/login"
	RouteLoginOtp    = "/login/otp"
	RouteLoginResend = "/login/otp/resend"
	RouteLoginCancel = "/login/cancel"
	RouteLogout      = "/logout"

	// Account flows
	RouteSignup         = "/signup"
	RouteVerifyEmail    = "/verify/{token}"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password/{token}"

	// Public forms
	RouteProposal  = "/forms/proposal"
	RouteSubscribe = "/forms/subscribe"

	// Studio, authenticated users only
	RouteEdit         = "/edit"
	RouteEditCredits  = "/edit/credits"
	RouteEditUpload   = "/edit/upload"
	RouteEditSelect   = "/edit/select"
	RouteEditGenerate = "/edit/generate"
	RouteEditReset    = "/edit/reset"

	// Asset curation, admins only
	RouteAdmin            = "/admin"
	RouteAdminAssets      = "/admin/assets"
	RouteAdminAssetDelete = "/admin/assets/{id}/delete"
	RouteAdminCleanup     = "/admin/cleanup"
	RouteAdminPostDelete  = "/admin/community/{id}/delete"

	// API Routes
	RouteAPISession      = "/api/session"
	RouteAPINotification = "/api/notification"
	RouteAPIDismiss      = "/api/notification/dismiss"
	RouteMetrics         = "/metrics"
)
