package pages_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/stretchr/testify/require"
)

type fakeEditAPI struct {
	credits     int
	analysisErr error
	generateErr error
	prompts     []string
}

func (f *fakeEditAPI) Credits(context.Context) (int, error) {
	return f.credits, nil
}

func (f *fakeEditAPI) AnalyzePose(context.Context, studio.Image) (*studio.Analysis, error) {
	if f.analysisErr != nil {
		return nil, f.analysisErr
	}
	return &studio.Analysis{
		Pose: studio.PoseFrontFullBody,
		Matches: []studio.Match{
			{ID: "m1", PreeditedPrompt: "oil painting"},
			{ID: "m2", PreeditedPrompt: "watercolour"},
		},
		UserImageURL: "https://cdn.example.com/u.png",
	}, nil
}

func (f *fakeEditAPI) GenerateEdit(_ context.Context, prompt, _ string) (*studio.EditResult, error) {
	f.prompts = append(f.prompts, prompt)
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	f.credits -= studio.EditCost
	return &studio.EditResult{ImageURL: "https://cdn.example.com/out.png", RemainingCredits: f.credits}, nil
}

var photo = studio.Image{Filename: "me.png", Content: []byte("png")}

func newEditWorkflow(t *testing.T, api *fakeEditAPI) *pages.EditWorkflow {
	t.Helper()
	w := pages.NewEditWorkflow(api)
	require.NoError(t, w.LoadCredits(context.Background()))
	return w
}

func TestEditWorkflow_HappyPath(t *testing.T) {
	api := &fakeEditAPI{credits: 5}
	w := newEditWorkflow(t, api)
	ctx := context.Background()
	require.Equal(t, pages.StepUpload, w.View().Step)

	require.NoError(t, w.Upload(ctx, photo))
	v := w.View()
	require.Equal(t, pages.StepSelection, v.Step)
	require.Len(t, v.Matches, 2)
	require.Equal(t, "https://cdn.example.com/u.png", v.UserImageURL)

	require.NoError(t, w.Select("m2"))
	require.NoError(t, w.Generate(ctx))

	v = w.View()
	require.Equal(t, pages.StepResult, v.Step)
	require.Equal(t, "https://cdn.example.com/out.png", v.ResultURL)
	require.Equal(t, 3, v.Credits)
	require.Equal(t, []string{"watercolour"}, api.prompts)

	w.StartOver()
	v = w.View()
	require.Equal(t, pages.StepUpload, v.Step)
	require.Equal(t, 3, v.Credits)
	require.Empty(t, v.ResultURL)
}

func TestEditWorkflow_AnalysisFailureReturnsToUpload(t *testing.T) {
	api := &fakeEditAPI{credits: 5, analysisErr: errors.New("no person detected")}
	w := newEditWorkflow(t, api)

	require.Error(t, w.Upload(context.Background(), photo))
	v := w.View()
	require.Equal(t, pages.StepUpload, v.Step)
	require.NotEmpty(t, v.Error)
}

func TestEditWorkflow_GenerationNeedsSelectionAndCredits(t *testing.T) {
	api := &fakeEditAPI{credits: 1}
	w := newEditWorkflow(t, api)
	ctx := context.Background()

	require.Error(t, w.Generate(ctx))
	require.NoError(t, w.Upload(ctx, photo))

	err := w.Generate(ctx)
	require.True(t, errors.Is(err, errors.ErrValidation))

	require.Error(t, w.Select("missing"))
	require.NoError(t, w.Select("m1"))
	err = w.Generate(ctx)
	require.True(t, errors.Is(err, errors.ErrInsufficientCredits))
	require.Equal(t, pages.StepSelection, w.View().Step)
	require.Empty(t, api.prompts)
}

func TestEditWorkflow_RateLimitedGenerationReturnsToSelection(t *testing.T) {
	api := &fakeEditAPI{credits: 5, generateErr: &apiclient.APIError{StatusCode: 429, Message: "Daily API limit exceeded"}}
	w := newEditWorkflow(t, api)
	ctx := context.Background()

	require.NoError(t, w.Upload(ctx, photo))
	require.NoError(t, w.Select("m1"))
	err := w.Generate(ctx)
	require.True(t, errors.Is(err, errors.ErrRateLimited))

	v := w.View()
	require.Equal(t, pages.StepSelection, v.Step)
	require.Equal(t, "m1", v.Selected)
	require.Equal(t, 5, v.Credits)
	require.Equal(t, "Daily API limit exceeded. Please try again tomorrow.", v.Error)
}

func TestEditStep_String(t *testing.T) {
	require.Equal(t, "upload", pages.StepUpload.String())
	require.Equal(t, "result", pages.StepResult.String())
	require.Equal(t, 1, int(pages.StepUpload))
	require.Equal(t, 5, int(pages.StepResult))
}
