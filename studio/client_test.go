package studio_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// rotatingTokens hands out a token and swaps it for a new one on refresh
type rotatingTokens struct {
	lock      sync.Mutex
	current   string
	next      string
	refreshes int
	failWith  error
}

func (r *rotatingTokens) Token() (*oauth2.Token, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return &oauth2.Token{AccessToken: r.current}, nil
}

func (r *rotatingTokens) RefreshAccessToken(context.Context) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.refreshes++
	if r.failWith != nil {
		return r.failWith
	}
	r.current = r.next
	return nil
}

type clientFixture struct {
	mux    *http.ServeMux
	events []notify.Event
	tokens *rotatingTokens
	client *studio.Client
}

func newClientFixture(t *testing.T) *clientFixture {
	t.Helper()
	f := &clientFixture{
		mux:    http.NewServeMux(),
		tokens: &rotatingTokens{current: "old", next: "new"},
	}
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)

	bus := notify.NewBroadcaster()
	bus.Subscribe(notify.RateLimitExceeded, func(e notify.Event) { f.events = append(f.events, e) })
	f.client = studio.New(apiclient.New(srv.URL, bus), f.tokens, studio.WithRefresher(f.tokens))
	return f
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requireToken(valid string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(apiclient.AuthHeader) != valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token is not valid"})
			return
		}
		next(w, r)
	}
}

func TestClient_CreditsSendsAuthHeader(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("GET /user/credits", requireToken("old", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"credits": 7})
	}))

	credits, err := f.client.Credits(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, credits)
	require.Equal(t, 0, f.tokens.refreshes)
}

func TestClient_UploadCarriesImageContentType(t *testing.T) {
	f := newClientFixture(t)
	var contentTypes []string
	f.mux.HandleFunc("POST /user/analyze-pose", requireToken("old", func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		contentTypes = append(contentTypes, hdr.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, studio.Analysis{Matches: []studio.Match{{ID: "m1"}}})
	}))

	pngMagic := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	images := []studio.Image{
		{Filename: "me.jpg", ContentType: "image/jpeg", Content: []byte("jpeg-bytes")},
		{Filename: "me.png", Content: pngMagic},
	}
	for _, img := range images {
		_, err := f.client.AnalyzePose(context.Background(), img)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"image/jpeg", "image/png"}, contentTypes)
}

func TestClient_RefreshesOnceAndResendsUpload(t *testing.T) {
	f := newClientFixture(t)
	var uploads []string
	f.mux.HandleFunc("POST /user/analyze-pose", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("image")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		uploads = append(uploads, string(data))
		requireToken("new", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, studio.Analysis{
				Pose:         studio.PoseFrontFullBody,
				Matches:      []studio.Match{{ID: "m1", PreeditedPrompt: "oil painting"}},
				UserImageURL: "https://cdn.example.com/u.png",
			})
		})(w, r)
	})

	a, err := f.client.AnalyzePose(context.Background(), studio.Image{Filename: "me.png", Content: []byte("png-bytes")})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/u.png", a.UserImageURL)
	require.Len(t, a.Matches, 1)
	require.Equal(t, 1, f.tokens.refreshes)
	require.Equal(t, []string{"png-bytes", "png-bytes"}, uploads)
}

func TestClient_SecondUnauthorizedIsReturned(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("GET /user/credits", requireToken("never", func(w http.ResponseWriter, r *http.Request) {}))

	_, err := f.client.Credits(context.Background())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrUnauthorized))
	require.Equal(t, 1, f.tokens.refreshes)
}

func TestClient_FailedRefreshIsSessionExpired(t *testing.T) {
	f := newClientFixture(t)
	f.tokens.failWith = errors.New("refresh rejected")
	f.mux.HandleFunc("GET /user/credits", requireToken("new", func(w http.ResponseWriter, r *http.Request) {}))

	_, err := f.client.Credits(context.Background())
	require.True(t, errors.Is(err, errors.ErrSessionExpired))
}

func TestClient_AnalysisErrorField(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("POST /user/analyze-pose", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"error": "No person detected"})
	})

	_, err := f.client.AnalyzePose(context.Background(), studio.Image{Filename: "cat.png", Content: []byte("x")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "No person detected")
}

func TestClient_GenerateEditRateLimited(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("POST /user/generate-edit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"msg": "Daily API limit exceeded"})
	})

	_, err := f.client.GenerateEdit(context.Background(), "oil painting", "https://cdn.example.com/u.png")
	require.True(t, errors.Is(err, errors.ErrRateLimited))
	require.Len(t, f.events, 1)
}

func TestClient_GenerateEditPaymentRequired(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("POST /user/generate-edit", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"msg": "Insufficient credits"})
	})

	_, err := f.client.GenerateEdit(context.Background(), "oil painting", "https://cdn.example.com/u.png")
	require.True(t, errors.Is(err, errors.ErrInsufficientCredits))
}

func TestClient_ListAssetsNonArrayIsEmpty(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("GET /admin/assets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"msg": "unexpected"})
	})

	assets, err := f.client.ListAssets(context.Background())
	require.NoError(t, err)
	require.NotNil(t, assets)
	require.Empty(t, assets)
}

func TestClient_CreateAssetSendsFormFields(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("POST /admin/assets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		writeJSON(w, http.StatusCreated, studio.Asset{
			ID:              "a1",
			PoseCategory:    r.FormValue("pose_category"),
			Gender:          r.FormValue("gender"),
			PreeditedPrompt: r.FormValue("preedited_prompt"),
			AdminNotes:      r.FormValue("admin_notes"),
		})
	})

	asset, err := f.client.CreateAsset(context.Background(), studio.NewAsset{
		Image:           studio.Image{Filename: "ref.png", Content: []byte("ref")},
		PoseCategory:    studio.PoseFrontFullBody,
		Gender:          studio.GenderMale,
		PreeditedPrompt: "renaissance portrait",
		AdminNotes:      "from the archive",
	})
	require.NoError(t, err)
	require.Equal(t, "a1", asset.ID)
	require.Equal(t, "FRONT_FULL_BODY", asset.PoseCategory)
	require.Equal(t, "MALE", asset.Gender)
	require.Equal(t, "renaissance portrait", asset.PreeditedPrompt)
	require.Equal(t, "from the archive", asset.AdminNotes)
}

func TestClient_CommunityAndForms(t *testing.T) {
	f := newClientFixture(t)
	f.mux.HandleFunc("GET /user/community", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get(apiclient.AuthHeader))
		writeJSON(w, http.StatusOK, []studio.CommunityPost{{ID: "p1", GeneratedImageURL: "https://cdn.example.com/p1.png"}})
	})
	f.mux.HandleFunc("DELETE /admin/community/{id}", requireToken("old", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "p1", r.PathValue("id"))
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Post deleted"})
	}))
	f.mux.HandleFunc("POST /forms/subscribe", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Subscribed!"})
	})
	f.mux.HandleFunc("POST /forms/proposal", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Idea too short"})
	})
	ctx := context.Background()

	posts, err := f.client.ListCommunity(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, f.client.DeleteCommunityPost(ctx, "p1"))

	msg, err := f.client.Subscribe(ctx, "555-0100")
	require.NoError(t, err)
	require.Equal(t, "Subscribed!", msg)

	_, err = f.client.SubmitProposal(ctx, studio.Proposal{Name: "A", Email: "a@example.com", Idea: "x"})
	require.Error(t, err)
	require.Equal(t, "Idea too short", err.Error())
}
