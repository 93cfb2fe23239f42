package pages_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/stretchr/testify/require"
)

type fakeAssetAPI struct {
	assets     []studio.Asset
	posts      []studio.CommunityPost
	extraction *studio.Extraction
	created    []studio.NewAsset
	listErr    error
}

func (f *fakeAssetAPI) ListAssets(context.Context) ([]studio.Asset, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.assets, nil
}

func (f *fakeAssetAPI) CreateAsset(_ context.Context, a studio.NewAsset) (*studio.Asset, error) {
	f.created = append(f.created, a)
	asset := studio.Asset{ID: "new", PoseCategory: a.PoseCategory, Gender: a.Gender, PreeditedPrompt: a.PreeditedPrompt}
	f.assets = append(f.assets, asset)
	return &asset, nil
}

func (f *fakeAssetAPI) DeleteAsset(_ context.Context, id string) error {
	for i, a := range f.assets {
		if a.ID == id {
			f.assets = append(f.assets[:i], f.assets[i+1:]...)
			return nil
		}
	}
	return errors.ErrNotFound
}

func (f *fakeAssetAPI) ExtractPrompt(context.Context, studio.Image) (*studio.Extraction, error) {
	if f.extraction == nil {
		return nil, errors.ErrRequestFailed
	}
	return f.extraction, nil
}

func (f *fakeAssetAPI) CleanupCommunity(context.Context) (string, error) {
	return "Fixed 2 posts", nil
}

func (f *fakeAssetAPI) ListCommunity(context.Context) ([]studio.CommunityPost, error) {
	return f.posts, nil
}

func (f *fakeAssetAPI) DeleteCommunityPost(_ context.Context, id string) error {
	for i, p := range f.posts {
		if p.ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return errors.ErrNotFound
}

func TestAdminAssets_Defaults(t *testing.T) {
	a := pages.NewAdminAssets(&fakeAssetAPI{})
	require.Equal(t, pages.AssetForm{PoseCategory: "FRONT_FULL_BODY", Gender: "MALE"}, a.Form())
	require.NotNil(t, a.Assets())
	require.Empty(t, a.Assets())
}

func TestAdminAssets_ListFailureLeavesEmptyList(t *testing.T) {
	api := &fakeAssetAPI{assets: []studio.Asset{{ID: "a1"}}}
	a := pages.NewAdminAssets(api)
	require.NoError(t, a.Refresh(context.Background()))
	require.Len(t, a.Assets(), 1)

	api.listErr = errors.ErrRequestFailed
	require.Error(t, a.Refresh(context.Background()))
	require.Empty(t, a.Assets())
}

func TestAdminAssets_AutoExtractPrefillsForm(t *testing.T) {
	api := &fakeAssetAPI{extraction: &studio.Extraction{Prompt: "baroque portrait", Gender: studio.GenderFemale}}
	a := pages.NewAdminAssets(api)
	ctx := context.Background()

	a.ChooseImage(ctx, studio.Image{Filename: "ref.png", Content: []byte("ref")})
	form := a.Form()
	require.Equal(t, "baroque portrait", form.PreeditedPrompt)
	require.Equal(t, "FEMALE", form.Gender)
	require.Equal(t, "FRONT_FULL_BODY", form.PoseCategory)

	require.NoError(t, a.Submit(ctx))
	require.Len(t, api.created, 1)
	require.Equal(t, "baroque portrait", api.created[0].PreeditedPrompt)
	require.Equal(t, pages.DefaultAssetForm(), a.Form())
	require.Len(t, a.Assets(), 1)
	require.Equal(t, "Asset uploaded successfully!", a.Message())
}

func TestAdminAssets_ExtractionFailureKeepsForm(t *testing.T) {
	a := pages.NewAdminAssets(&fakeAssetAPI{})
	a.UpdateForm(pages.AssetForm{PreeditedPrompt: "hand written"})

	a.ChooseImage(context.Background(), studio.Image{Filename: "ref.png"})
	require.Equal(t, "hand written", a.Form().PreeditedPrompt)
	require.Equal(t, "MALE", a.Form().Gender)
}

func TestAdminAssets_SubmitRequiresImage(t *testing.T) {
	api := &fakeAssetAPI{}
	a := pages.NewAdminAssets(api)
	a.UpdateForm(pages.AssetForm{PreeditedPrompt: "p"})

	err := a.Submit(context.Background())
	require.True(t, errors.Is(err, errors.ErrValidation))
	require.Empty(t, api.created)
}

func TestAdminAssets_DeleteAndModerate(t *testing.T) {
	api := &fakeAssetAPI{
		assets: []studio.Asset{{ID: "a1"}, {ID: "a2"}},
		posts:  []studio.CommunityPost{{ID: "p1"}, {ID: "p2"}},
	}
	a := pages.NewAdminAssets(api)
	ctx := context.Background()

	require.NoError(t, a.Delete(ctx, "a1"))
	require.Len(t, a.Assets(), 1)

	require.NoError(t, a.RefreshCommunity(ctx))
	require.Len(t, a.Posts(), 2)
	require.NoError(t, a.DeletePost(ctx, "p2"))
	require.Len(t, a.Posts(), 1)

	require.NoError(t, a.Cleanup(ctx))
	require.Equal(t, "Fixed 2 posts", a.Message())
}
