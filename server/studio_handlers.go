package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/rs/zerolog/log"
)

const maxUploadSize = 10 << 20

// EditPageHandler renders the current step of the edit workflow (GET /edit)
func (s *Server) EditPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{Title: "Studio"}
		if err := s.edit.LoadCredits(r.Context()); err != nil {
			logError(r.Method, r.URL.Path, err.Error())
			data.Error = "Could not load your credits. " + pages.ErrorMessage(err)
		}
		data.Edit = s.edit.View()
		s.render(w, r, "edit.html", data)
	}
}

// CreditsHandler returns the balance as JSON (GET /edit/credits)
func (s *Server) CreditsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		credits, err := s.studio.Credits(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"credits": credits})
	}
}

func (s *Server) EditUploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, ok := readImage(r)
		if !ok {
			redirectWith(w, r, RouteEdit, "error", "Please choose a photo")
			return
		}
		if err := s.edit.Upload(r.Context(), img); err != nil {
			log.Debug().Err(err).Msg("upload failed")
		}
		http.Redirect(w, r, RouteEdit, http.StatusSeeOther)
	}
}

func (s *Server) EditSelectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if err := s.edit.Select(r.FormValue("match")); err != nil {
			redirectWith(w, r, RouteEdit, "error", pages.ErrorMessage(err))
			return
		}
		http.Redirect(w, r, RouteEdit, http.StatusSeeOther)
	}
}

func (s *Server) EditGenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.edit.Generate(r.Context()); err != nil {
			log.Debug().Err(err).Msg("generate failed")
			if s.edit.View().Error == "" {
				redirectWith(w, r, RouteEdit, "error", pages.ErrorMessage(err))
				return
			}
		}
		http.Redirect(w, r, RouteEdit, http.StatusSeeOther)
	}
}

func (s *Server) EditResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.edit.StartOver()
		http.Redirect(w, r, RouteEdit, http.StatusSeeOther)
	}
}

// AdminPageHandler lists assets and community posts (GET /admin)
func (s *Server) AdminPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := s.assets.Refresh(ctx); err != nil {
			log.Err(err).Msg("failed to load assets")
		}
		if err := s.assets.RefreshCommunity(ctx); err != nil {
			log.Err(err).Msg("failed to load community posts")
		}
		s.render(w, r, "admin.html", PageData{
			Title:     "Admin",
			Message:   s.assets.Message(),
			Assets:    s.assets.Assets(),
			Posts:     s.assets.Posts(),
			AssetForm: s.assets.Form(),
		})
	}
}

// AdminAssetsHandler returns the asset list as JSON (GET /admin/assets)
func (s *Server) AdminAssetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.assets.Refresh(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.assets.Assets())
	}
}

// AdminUploadHandler chooses the image, applies the form and uploads (POST /admin/assets)
func (s *Server) AdminUploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, ok := readImage(r)
		if !ok {
			redirectWith(w, r, RouteAdmin, "error", "Please select an image")
			return
		}
		ctx := r.Context()
		prompt := r.FormValue("preedited_prompt")
		s.assets.SetAutoExtract(prompt == "")
		s.assets.ChooseImage(ctx, img)

		form := s.assets.Form()
		if prompt != "" {
			form.PreeditedPrompt = prompt
			form.PoseCategory = r.FormValue("pose_category")
			form.Gender = r.FormValue("gender")
		}
		form.AdminNotes = r.FormValue("admin_notes")
		s.assets.UpdateForm(form)

		if err := s.assets.Submit(ctx); err != nil {
			redirectWith(w, r, RouteAdmin, "error", pages.ErrorMessage(err))
			return
		}
		http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
	}
}

func (s *Server) AdminDeleteAssetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.assets.Delete(r.Context(), r.PathValue("id")); err != nil {
			redirectWith(w, r, RouteAdmin, "error", pages.ErrorMessage(err))
			return
		}
		http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
	}
}

func (s *Server) AdminCleanupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.assets.Cleanup(r.Context()); err != nil {
			log.Err(err).Msg("cleanup failed")
		}
		http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
	}
}

func (s *Server) AdminDeletePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.assets.DeletePost(r.Context(), r.PathValue("id")); err != nil {
			redirectWith(w, r, RouteAdmin, "error", pages.ErrorMessage(err))
			return
		}
		http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
	}
}

func readImage(r *http.Request) (studio.Image, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return studio.Image{}, false
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		return studio.Image{}, false
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil || len(content) == 0 {
		return studio.Image{}, false
	}
	return studio.Image{Filename: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Content: content}, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// writeError maps a client error onto the gateway's own status
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, errors.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, errors.ErrNotAuthenticated), errors.Is(err, errors.ErrSessionExpired), errors.Is(err, errors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case apiclient.StatusCode(err) != 0:
		status = apiclient.StatusCode(err)
	}
	writeJSON(w, status, map[string]string{"error": pages.ErrorMessage(err)})
}
