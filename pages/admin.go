package pages

import (
	"context"
	"strings"
	"sync"

	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/rs/zerolog/log"
)

// AssetAPI is the part of the studio client the admin page uses
type AssetAPI interface {
	ListAssets(ctx context.Context) ([]studio.Asset, error)
	CreateAsset(ctx context.Context, a studio.NewAsset) (*studio.Asset, error)
	DeleteAsset(ctx context.Context, id string) error
	ExtractPrompt(ctx context.Context, img studio.Image) (*studio.Extraction, error)
	CleanupCommunity(ctx context.Context) (string, error)
	ListCommunity(ctx context.Context) ([]studio.CommunityPost, error)
	DeleteCommunityPost(ctx context.Context, id string) error
}

// AssetForm is the upload form on the admin page
type AssetForm struct {
	PoseCategory    string `json:"pose_category"`
	Gender          string `json:"gender"`
	PreeditedPrompt string `json:"preedited_prompt"`
	AdminNotes      string `json:"admin_notes"`
}

// DefaultAssetForm is the blank form
func DefaultAssetForm() AssetForm {
	return AssetForm{PoseCategory: studio.PoseFrontFullBody, Gender: studio.GenderMale}
}

// AdminAssets curates reference assets and moderates community posts
type AdminAssets struct {
	api AssetAPI

	lock        sync.Mutex
	assets      []studio.Asset
	posts       []studio.CommunityPost
	form        AssetForm
	image       *studio.Image
	autoExtract bool
	message     string
}

func NewAdminAssets(api AssetAPI) *AdminAssets {
	return &AdminAssets{
		api:         api,
		assets:      []studio.Asset{},
		posts:       []studio.CommunityPost{},
		form:        DefaultAssetForm(),
		autoExtract: true,
	}
}

// SetAutoExtract toggles prompt extraction when an image is chosen
func (a *AdminAssets) SetAutoExtract(on bool) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.autoExtract = on
}

// Refresh reloads the asset list. A failure leaves an empty list.
func (a *AdminAssets) Refresh(ctx context.Context) error {
	assets, err := a.api.ListAssets(ctx)
	if err != nil {
		log.Err(err).Msg("failed to fetch assets")
		assets = []studio.Asset{}
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	a.assets = assets
	return err
}

// RefreshCommunity reloads the community posts
func (a *AdminAssets) RefreshCommunity(ctx context.Context) error {
	posts, err := a.api.ListCommunity(ctx)
	if err != nil {
		log.Err(err).Msg("failed to fetch community posts")
		return err
	}
	a.lock.Lock()
	defer a.lock.Unlock()
	a.posts = posts
	return nil
}

// ChooseImage selects the image to upload. With auto-extract on, the form is prefilled from
// the server's description; extraction failures are logged and the form is left as it was.
func (a *AdminAssets) ChooseImage(ctx context.Context, img studio.Image) {
	a.lock.Lock()
	a.image = &img
	auto := a.autoExtract
	a.lock.Unlock()

	if !auto {
		return
	}
	ex, err := a.api.ExtractPrompt(ctx, img)
	if err != nil {
		log.Err(err).Msg("extraction failed")
		return
	}
	if ex.Prompt == "" {
		return
	}

	a.lock.Lock()
	defer a.lock.Unlock()
	a.form.PreeditedPrompt = ex.Prompt
	if ex.Gender != "" {
		a.form.Gender = ex.Gender
	}
	if ex.Pose != "" {
		a.form.PoseCategory = ex.Pose
	}
}

// UpdateForm replaces the editable fields. Empty category or gender keep their current values.
func (a *AdminAssets) UpdateForm(f AssetForm) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if f.PoseCategory == "" {
		f.PoseCategory = a.form.PoseCategory
	}
	if f.Gender == "" {
		f.Gender = a.form.Gender
	}
	a.form = f
}

// Submit uploads the chosen image with the form, then resets the form and reloads the list
func (a *AdminAssets) Submit(ctx context.Context) error {
	a.lock.Lock()
	img, form := a.image, a.form
	a.lock.Unlock()

	if img == nil {
		return invalid("Please select an image")
	}
	if strings.TrimSpace(form.PreeditedPrompt) == "" {
		return invalid("Please enter a prompt")
	}

	_, err := a.api.CreateAsset(ctx, studio.NewAsset{
		Image:           *img,
		PoseCategory:    form.PoseCategory,
		Gender:          form.Gender,
		PreeditedPrompt: form.PreeditedPrompt,
		AdminNotes:      form.AdminNotes,
	})
	if err != nil {
		a.setMessage(ErrorMessage(err))
		return err
	}

	a.lock.Lock()
	a.form = DefaultAssetForm()
	a.image = nil
	a.message = "Asset uploaded successfully!"
	a.lock.Unlock()

	return a.Refresh(ctx)
}

// Delete removes an asset and reloads the list
func (a *AdminAssets) Delete(ctx context.Context, id string) error {
	if err := a.api.DeleteAsset(ctx, id); err != nil {
		a.setMessage(ErrorMessage(err))
		return err
	}
	return a.Refresh(ctx)
}

// Cleanup repairs community posts and shows the server's summary
func (a *AdminAssets) Cleanup(ctx context.Context) error {
	msg, err := a.api.CleanupCommunity(ctx)
	if err != nil {
		a.setMessage("Cleanup failed")
		return err
	}
	a.setMessage(msg)
	return a.RefreshCommunity(ctx)
}

// DeletePost removes a community post and reloads the gallery
func (a *AdminAssets) DeletePost(ctx context.Context, id string) error {
	if err := a.api.DeleteCommunityPost(ctx, id); err != nil {
		log.Err(err).Str("post_id", id).Msg("failed to delete post")
		return err
	}
	return a.RefreshCommunity(ctx)
}

func (a *AdminAssets) Assets() []studio.Asset {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]studio.Asset{}, a.assets...)
}

func (a *AdminAssets) Posts() []studio.CommunityPost {
	a.lock.Lock()
	defer a.lock.Unlock()
	return append([]studio.CommunityPost{}, a.posts...)
}

func (a *AdminAssets) Form() AssetForm {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.form
}

// Message is the last status shown to the admin
func (a *AdminAssets) Message() string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.message
}

func (a *AdminAssets) setMessage(msg string) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.message = msg
}
