package pages

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/rs/zerolog/log"
)

// EditAPI is the part of the studio client the edit page uses
type EditAPI interface {
	Credits(ctx context.Context) (int, error)
	AnalyzePose(ctx context.Context, img studio.Image) (*studio.Analysis, error)
	GenerateEdit(ctx context.Context, prompt, userImageURL string) (*studio.EditResult, error)
}

type EditStep int

const (
	StepUpload EditStep = iota + 1
	StepAnalyzing
	StepSelection
	StepGenerating
	StepResult
)

func (s EditStep) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepAnalyzing:
		return "analyzing"
	case StepSelection:
		return "selection"
	case StepGenerating:
		return "generating"
	case StepResult:
		return "result"
	default:
		return "unknown"
	}
}

var (
	errBusy          = invalid("Please wait for the current step to finish")
	errNoSelection   = invalid("Please choose a style first")
	errNotEnough     = &session.FlowError{Kind: errors.ErrInsufficientCredits, Message: insufficientCredits}
	errWrongStep     = invalid("That action is not available right now")
	errAnalysisFail  = invalid("We couldn't analyse that photo. Please try another one.")
	errGenerateFails = invalid("Generation failed. Please try again.")
)

// EditView is a snapshot of the edit page
type EditView struct {
	Step         EditStep       `json:"step"`
	Credits      int            `json:"credits"`
	Pose         string         `json:"pose,omitempty"`
	Matches      []studio.Match `json:"matches,omitempty"`
	Selected     string         `json:"selected,omitempty"`
	UserImageURL string         `json:"userImageUrl,omitempty"`
	ResultURL    string         `json:"resultUrl,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// EditWorkflow drives upload, pose analysis, style selection and generation.
// A failed analysis goes back to upload and a failed generation goes back to selection,
// so a 429 anywhere aborts the step in progress.
type EditWorkflow struct {
	api EditAPI

	lock         sync.Mutex
	run          uint64
	step         EditStep
	credits      int
	pose         string
	matches      []studio.Match
	selected     *studio.Match
	userImageURL string
	resultURL    string
	errMsg       string
}

func NewEditWorkflow(api EditAPI) *EditWorkflow {
	return &EditWorkflow{api: api, step: StepUpload}
}

// LoadCredits fetches the balance shown in the header
func (w *EditWorkflow) LoadCredits(ctx context.Context) error {
	credits, err := w.api.Credits(ctx)
	if err != nil {
		log.Err(err).Msg("failed to fetch credits")
		return err
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	w.credits = credits
	return nil
}

// Upload sends the photo for pose analysis and moves to style selection
func (w *EditWorkflow) Upload(ctx context.Context, img studio.Image) error {
	w.lock.Lock()
	if w.step == StepAnalyzing || w.step == StepGenerating {
		w.lock.Unlock()
		return errBusy
	}
	w.run++
	run := w.run
	w.reset()
	w.step = StepAnalyzing
	w.lock.Unlock()

	analysis, err := w.api.AnalyzePose(ctx, img)

	w.lock.Lock()
	defer w.lock.Unlock()
	if run != w.run {
		return errors.Wrapf(errors.ErrRequestFailed, "[EditWorkflow Upload] workflow restarted")
	}
	if err != nil {
		log.Err(err).Msg("analysis failed")
		w.step = StepUpload
		w.errMsg = messageOr(err, errAnalysisFail)
		return err
	}
	w.pose = analysis.Pose
	w.matches = analysis.Matches
	w.userImageURL = analysis.UserImageURL
	w.step = StepSelection
	return nil
}

// Select picks one of the matched styles
func (w *EditWorkflow) Select(matchID string) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.step != StepSelection {
		return errWrongStep
	}
	for i := range w.matches {
		if w.matches[i].ID == matchID {
			m := w.matches[i]
			w.selected = &m
			w.errMsg = ""
			return nil
		}
	}
	return invalid("Unknown style")
}

// Generate spends EditCost credits on the selected style
func (w *EditWorkflow) Generate(ctx context.Context) error {
	w.lock.Lock()
	if w.step != StepSelection {
		w.lock.Unlock()
		return errWrongStep
	}
	if w.selected == nil {
		w.lock.Unlock()
		return errNoSelection
	}
	if w.credits < studio.EditCost {
		w.errMsg = errNotEnough.Message
		w.lock.Unlock()
		return errNotEnough
	}
	run := w.run
	prompt, imageURL := w.selected.PreeditedPrompt, w.userImageURL
	w.step = StepGenerating
	w.errMsg = ""
	w.lock.Unlock()

	result, err := w.api.GenerateEdit(ctx, prompt, imageURL)

	w.lock.Lock()
	defer w.lock.Unlock()
	if run != w.run {
		return errors.Wrapf(errors.ErrRequestFailed, "[EditWorkflow Generate] workflow restarted")
	}
	if err != nil {
		log.Err(err).Msg("generation failed")
		w.step = StepSelection
		w.errMsg = messageOr(err, errGenerateFails)
		return err
	}
	w.resultURL = result.ImageURL
	w.credits = result.RemainingCredits
	w.step = StepResult
	return nil
}

// StartOver returns to the upload step, keeping the credit balance
func (w *EditWorkflow) StartOver() {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.run++
	w.reset()
	w.step = StepUpload
}

func (w *EditWorkflow) View() EditView {
	w.lock.Lock()
	defer w.lock.Unlock()
	v := EditView{
		Step:         w.step,
		Credits:      w.credits,
		Pose:         w.pose,
		Matches:      append([]studio.Match(nil), w.matches...),
		UserImageURL: w.userImageURL,
		ResultURL:    w.resultURL,
		Error:        w.errMsg,
	}
	if w.selected != nil {
		v.Selected = w.selected.ID
	}
	return v
}

// reset clears everything but credits. Must hold w.lock.
func (w *EditWorkflow) reset() {
	w.pose = ""
	w.matches = nil
	w.selected = nil
	w.userImageURL = ""
	w.resultURL = ""
	w.errMsg = ""
}

func messageOr(err error, fallback error) string {
	if errors.Is(err, errors.ErrRateLimited) || errors.Is(err, errors.ErrInsufficientCredits) {
		return ErrorMessage(err)
	}
	return fallback.Error()
}
