package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/jrsteele09/go-studio-client/users"
	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

//go:embed templates/*
var templateFiles embed.FS

var pageTemplates = []string{"index.html", "login.html", "account.html", "edit.html", "admin.html"}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// parseTemplates pairs every page with the shared layout
func parseTemplates() (map[string]*template.Template, error) {
	fsys := TemplateFilesFS()
	parsed := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		tmpl, err := template.New(name).ParseFS(fsys, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		parsed[name] = tmpl
	}
	return parsed, nil
}

// PageData is the template model shared by every page
type PageData struct {
	AppName      string
	Title        string
	User         *users.User
	Notification *notify.Notification
	Error        string
	Message      string

	// Login page
	Step  string
	Email string

	// Account pages
	Form  string
	Token string

	// Studio pages
	Edit      pages.EditView
	Assets    []studio.Asset
	Posts     []studio.CommunityPost
	AssetForm pages.AssetForm
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		return
	}
	data.AppName = s.config.GetAppName()
	if u, ok := s.store.User(); ok {
		data.User = &u
	}
	if s.surface != nil {
		if n, ok := s.surface.Current(); ok {
			data.Notification = &n
		}
	}
	if data.Error == "" {
		data.Error = r.URL.Query().Get("error")
	}
	if data.Message == "" {
		data.Message = r.URL.Query().Get("message")
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render template")
	}
}

// redirectWith sends the browser to path with a flash message in the query string
func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	if msg != "" {
		path += "?" + url.Values{key: {msg}}.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
