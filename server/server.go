package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/go-studio-client/guards"
	"github.com/jrsteele09/go-studio-client/internal/config"
	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Deps are the long lived client components the gateway renders
type Deps struct {
	Store    *session.Store
	Studio   *studio.Client
	Surface  *notify.Surface
	Gatherer prometheus.Gatherer
}

// Server is the local gateway. It plays the part of the single page app router:
// gated routes go through the session guards and every page shows the notification surface.
type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	templates map[string]*template.Template

	store    *session.Store
	studio   *studio.Client
	surface  *notify.Surface
	gatherer prometheus.Gatherer

	authenticated func(http.HandlerFunc) http.HandlerFunc
	admin         func(http.HandlerFunc) http.HandlerFunc

	// One browser talks to one gateway, so each page keeps a single controller
	pagesLock sync.Mutex
	login     *pages.LoginFlow
	signup    *pages.SignupFlow
	recovery  *pages.Recovery
	edit      *pages.EditWorkflow
	assets    *pages.AdminAssets
	forms     *pages.Forms
}

func New(c config.Config, deps Deps) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		env:       c.GetEnv(),
		mux:       http.NewServeMux(),
		config:    c,
		templates: templates,
		store:     deps.Store,
		studio:    deps.Studio,
		surface:   deps.Surface,
		gatherer:  gatherer,
		authenticated: guards.Middleware(guards.Authenticated{LoginPath: c.GetLoginPath()}, deps.Store),
		admin:         guards.Middleware(guards.Admin{HomePath: c.GetHomePath()}, deps.Store),
		login:         pages.NewLoginFlow(deps.Store),
		signup:        pages.NewSignupFlow(deps.Store),
		recovery:      pages.NewRecovery(deps.Store),
		edit:          pages.NewEditWorkflow(deps.Studio),
		assets:        pages.NewAdminAssets(deps.Studio),
		forms:         pages.NewForms(deps.Studio),
	}

	// A logout or expiry abandons whatever the studio pages were doing
	deps.Store.Subscribe(func(state session.State) {
		if _, ok := state.(session.Unauthenticated); ok {
			s.edit.StartOver()
		}
	})

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

var (
	methodStyles = map[string]lipgloss.Style{
		http.MethodGet:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		http.MethodPost:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		http.MethodPut:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		http.MethodDelete: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		http.MethodPatch:  lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	}
	otherMethodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	routeErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func logRoute(method, path string) {
	log.Info().Msgf("[%s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%s] %s %s", colourMethod(method), path, routeErrorStyle.Render(error))
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if style, ok := methodStyles[method]; ok {
		return style.Render(paddedMethod)
	}
	return otherMethodStyle.Render(paddedMethod)
}
