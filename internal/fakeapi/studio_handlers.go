package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/studio"
)

// ImageHost is the base of every URL the fake hands out for uploaded or generated images
const ImageHost = "https://images.example.test"

const maxUpload = 10 << 20

// SetCredits overwrites the balance of the user with email
func (s *Server) SetCredits(email string, credits int) error {
	return s.accounts.Update(email, func(a *account) error {
		a.User.Credits = credits
		return nil
	})
}

// Proposals returns the submitted collaboration forms
func (s *Server) Proposals() []studio.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]studio.Proposal(nil), s.proposals...)
}

// UploadTypes returns the content type of every image part received, in order
func (s *Server) UploadTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.uploadTypes...)
}

// Subscribers returns the newsletter contacts
func (s *Server) Subscribers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subscribers...)
}

func (s *Server) credits(w http.ResponseWriter, r *http.Request) {
	a, err := s.accounts.GetByID(userFrom(r.Context()).ID)
	if err != nil {
		writeMsg(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"credits": a.User.Credits})
}

func (s *Server) analyzePose(w http.ResponseWriter, r *http.Request) {
	name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	matches := make([]studio.Match, 0, len(s.assets))
	for _, a := range s.assets {
		matches = append(matches, studio.Match{
			ID:              a.ID,
			CloudinaryURL:   a.CloudinaryURL,
			PreeditedPrompt: a.PreeditedPrompt,
			PoseCategory:    a.PoseCategory,
			Gender:          a.Gender,
		})
	}
	s.mu.Unlock()

	if len(matches) == 0 {
		writeJSON(w, http.StatusOK, studio.Analysis{Error: "No matching poses found"})
		return
	}
	writeJSON(w, http.StatusOK, studio.Analysis{
		Pose:         studio.PoseFrontFullBody,
		Matches:      matches,
		UserImageURL: fmt.Sprintf("%s/uploads/%s-%s", ImageHost, randomToken(), name),
	})
}

func (s *Server) generateEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PreeditedPrompt string `json:"preedited_prompt"`
		UserImageURL    string `json:"userImageUrl"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.PreeditedPrompt == "" || req.UserImageURL == "" {
		writeMsg(w, http.StatusBadRequest, "Prompt and image are required")
		return
	}

	u := userFrom(r.Context())
	var remaining int
	err := s.accounts.Update(u.Email, func(a *account) error {
		if a.User.Credits < studio.EditCost {
			return errors.ErrInsufficientCredits
		}
		a.User.Credits -= studio.EditCost
		remaining = a.User.Credits
		return nil
	})
	if errors.Is(err, errors.ErrInsufficientCredits) {
		writeMsg(w, http.StatusPaymentRequired, "Insufficient credits")
		return
	}
	if err != nil {
		writeMsg(w, http.StatusNotFound, "User not found")
		return
	}

	url := fmt.Sprintf("%s/generated/%s.png", ImageHost, randomToken())
	s.mu.Lock()
	s.posts = append(s.posts, studio.CommunityPost{
		ID:                randomToken(),
		GeneratedImageURL: url,
		Prompt:            req.PreeditedPrompt,
		CreatedAt:         s.now(),
	})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, studio.EditResult{ImageURL: url, RemainingCredits: remaining})
}

func (s *Server) listCommunity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	posts := append([]studio.CommunityPost{}, s.posts...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	assets := append([]studio.Asset{}, s.assets...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	prompt := r.FormValue("preedited_prompt")
	if prompt == "" {
		writeMsg(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	a := s.SeedAsset(studio.Asset{
		CloudinaryURL:   fmt.Sprintf("%s/assets/%s-%s", ImageHost, randomToken(), name),
		PoseCategory:    valueOr(r.FormValue("pose_category"), studio.PoseFrontFullBody),
		Gender:          valueOr(r.FormValue("gender"), studio.GenderMale),
		PreeditedPrompt: prompt,
		AdminNotes:      r.FormValue("admin_notes"),
	})
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) deleteAsset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	found := false
	for i, a := range s.assets {
		if a.ID == id {
			s.assets = append(s.assets[:i], s.assets[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		writeMsg(w, http.StatusNotFound, "Asset not found")
		return
	}
	writeMsg(w, http.StatusOK, "Asset deleted")
}

func (s *Server) extractPrompt(w http.ResponseWriter, r *http.Request) {
	name, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, studio.Extraction{
		Prompt: "A person standing in the pose shown in " + name,
		Gender: studio.GenderMale,
		Pose:   studio.PoseFrontFullBody,
	})
}

// cleanupCommunity drops posts whose image was stored inline as a data URI
func (s *Server) cleanupCommunity(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	kept := s.posts[:0]
	removed := 0
	for _, p := range s.posts {
		if strings.HasPrefix(p.GeneratedImageURL, "data:") {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	s.posts = kept
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Cleaned up %d posts", removed)})
}

func (s *Server) deleteCommunityPost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	found := false
	for i, p := range s.posts {
		if p.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		writeMsg(w, http.StatusNotFound, "Post not found")
		return
	}
	writeMsg(w, http.StatusOK, "Post deleted")
}

func (s *Server) submitProposal(w http.ResponseWriter, r *http.Request) {
	var p studio.Proposal
	if !decode(w, r, &p) {
		return
	}
	if p.Name == "" || p.Email == "" || p.Idea == "" {
		writeMsg(w, http.StatusBadRequest, "All fields are required")
		return
	}
	s.mu.Lock()
	s.proposals = append(s.proposals, p)
	s.mu.Unlock()
	writeMsg(w, http.StatusOK, "Thanks! We will be in touch.")
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Contact string `json:"contact"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Contact) == "" {
		writeMsg(w, http.StatusBadRequest, "Email or phone number is required")
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, req.Contact)
	s.mu.Unlock()
	writeMsg(w, http.StatusOK, "Subscribed!")
}

// readUpload parses the multipart "image" field and returns its filename
// readUpload drains the image part and records its declared content type
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeMsg(w, http.StatusBadRequest, "Image is required")
		return "", false
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeMsg(w, http.StatusBadRequest, "Image is required")
		return "", false
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		writeMsg(w, http.StatusBadRequest, "Failed to read image")
		return "", false
	}
	s.mu.Lock()
	s.uploadTypes = append(s.uploadTypes, hdr.Header.Get("Content-Type"))
	s.mu.Unlock()
	return hdr.Filename, true
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
