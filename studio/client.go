package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Resource endpoints, relative to the API base URL
const (
	PathCredits          = "/user/credits"
	PathAnalyzePose      = "/user/analyze-pose"
	PathGenerateEdit     = "/user/generate-edit"
	PathCommunity        = "/user/community"
	PathAdminAssets      = "/admin/assets"
	PathExtractPrompt    = "/admin/extract-prompt"
	PathCleanupCommunity = "/admin/cleanup-community"
	PathAdminCommunity   = "/admin/community"
	PathProposal         = "/forms/proposal"
	PathSubscribe        = "/forms/subscribe"
)

// Refresher renews the access token after the API rejected it, usually *session.Store
type Refresher interface {
	RefreshAccessToken(ctx context.Context) error
}

// Client calls the studio resource endpoints. Every request goes through the apiclient wrapper,
// so a 429 anywhere is broadcast and returned as an error.
type Client struct {
	api       *apiclient.Client
	tokens    oauth2.TokenSource
	refresher Refresher
}

// Option configures a Client
type Option func(*Client)

// WithRefresher retries a request once with a fresh token when it is rejected with 401
func WithRefresher(r Refresher) Option {
	return func(c *Client) {
		c.refresher = r
	}
}

func New(api *apiclient.Client, tokens oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		api:    api,
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Credits returns the signed-in user's balance
func (c *Client) Credits(ctx context.Context) (int, error) {
	var out struct {
		Credits int `json:"credits"`
	}
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.Get(ctx, PathCredits, token)
	}, &out)
	if err != nil {
		return 0, errors.Wrapf(err, "[studio Credits]")
	}
	return out.Credits, nil
}

// AnalyzePose uploads the user's photo and returns the matching reference styles
func (c *Client) AnalyzePose(ctx context.Context, img Image) (*Analysis, error) {
	var out Analysis
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.PostMultipart(ctx, PathAnalyzePose, img.part("image"), nil, token)
	}, &out)
	if err != nil {
		return nil, errors.Wrapf(err, "[studio AnalyzePose]")
	}
	if out.Error != "" {
		return nil, errors.Wrapf(errors.ErrRequestFailed, "[studio AnalyzePose] %s", out.Error)
	}
	return &out, nil
}

// GenerateEdit applies the chosen style prompt to the uploaded image. It costs EditCost credits.
func (c *Client) GenerateEdit(ctx context.Context, prompt, userImageURL string) (*EditResult, error) {
	body := struct {
		PreeditedPrompt string `json:"preedited_prompt"`
		UserImageURL    string `json:"userImageUrl"`
	}{prompt, userImageURL}

	var out EditResult
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.PostJSON(ctx, PathGenerateEdit, body, token)
	}, &out)
	if err != nil {
		if apiclient.StatusCode(err) == http.StatusPaymentRequired {
			return nil, errors.Wrapf(errors.ErrInsufficientCredits, "[studio GenerateEdit] %v", err)
		}
		return nil, errors.Wrapf(err, "[studio GenerateEdit]")
	}
	return &out, nil
}

// ListAssets returns the curated reference images. A reply that is not a list yields no assets.
func (c *Client) ListAssets(ctx context.Context) ([]Asset, error) {
	var raw json.RawMessage
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.Get(ctx, PathAdminAssets, token)
	}, &raw)
	if err != nil {
		return nil, errors.Wrapf(err, "[studio ListAssets]")
	}
	return decodeList[Asset](raw), nil
}

// CreateAsset uploads a new reference image with its metadata
func (c *Client) CreateAsset(ctx context.Context, a NewAsset) (*Asset, error) {
	fields := map[string]string{
		"pose_category":    a.PoseCategory,
		"gender":           a.Gender,
		"preedited_prompt": a.PreeditedPrompt,
		"admin_notes":      a.AdminNotes,
	}
	var out Asset
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.PostMultipart(ctx, PathAdminAssets, a.Image.part("image"), fields, token)
	}, &out)
	if err != nil {
		return nil, errors.Wrapf(err, "[studio CreateAsset]")
	}
	return &out, nil
}

func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.Delete(ctx, PathAdminAssets+"/"+id, token)
	}, nil)
	return errors.Wrapf(err, "[studio DeleteAsset] %s", id)
}

// ExtractPrompt asks the server to describe a reference image
func (c *Client) ExtractPrompt(ctx context.Context, img Image) (*Extraction, error) {
	var out Extraction
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.PostMultipart(ctx, PathExtractPrompt, img.part("image"), nil, token)
	}, &out)
	if err != nil {
		return nil, errors.Wrapf(err, "[studio ExtractPrompt]")
	}
	return &out, nil
}

// CleanupCommunity repairs community posts stored with inline image data
func (c *Client) CleanupCommunity(ctx context.Context) (string, error) {
	var out apiclient.MessageResponse
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.PostJSON(ctx, PathCleanupCommunity, struct{}{}, token)
	}, &out)
	if err != nil {
		return "", errors.Wrapf(err, "[studio CleanupCommunity]")
	}
	return out.Text(), nil
}

// ListCommunity is public and sends no token
func (c *Client) ListCommunity(ctx context.Context) ([]CommunityPost, error) {
	resp, err := c.api.Get(ctx, PathCommunity, "")
	if err != nil {
		return nil, errors.Wrapf(err, "[studio ListCommunity]")
	}
	var raw json.RawMessage
	if err := apiclient.DecodeResponse(resp, &raw); err != nil {
		return nil, errors.Wrapf(err, "[studio ListCommunity]")
	}
	return decodeList[CommunityPost](raw), nil
}

func (c *Client) DeleteCommunityPost(ctx context.Context, id string) error {
	err := c.authorized(ctx, func(token string) (*http.Response, error) {
		return c.api.Delete(ctx, PathAdminCommunity+"/"+id, token)
	}, nil)
	return errors.Wrapf(err, "[studio DeleteCommunityPost] %s", id)
}

// SubmitProposal sends the collaboration form and returns the server's reply
func (c *Client) SubmitProposal(ctx context.Context, p Proposal) (string, error) {
	return c.form(ctx, PathProposal, p)
}

// Subscribe adds an email address or phone number to the newsletter
func (c *Client) Subscribe(ctx context.Context, contact string) (string, error) {
	return c.form(ctx, PathSubscribe, struct {
		Contact string `json:"contact"`
	}{contact})
}

func (c *Client) form(ctx context.Context, path string, body any) (string, error) {
	resp, err := c.api.PostJSON(ctx, path, body, "")
	if err != nil {
		return "", errors.Wrapf(err, "[studio form] %s", path)
	}
	msg, err := apiclient.DecodeMessage(resp)
	if err != nil {
		return "", err
	}
	return msg, nil
}

// authorized sends a request with the current access token. On 401 it refreshes once and resends.
func (c *Client) authorized(ctx context.Context, send func(token string) (*http.Response, error), target any) error {
	token, err := c.accessToken()
	if err != nil {
		return err
	}
	resp, err := send(token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.refresher != nil {
		_ = apiclient.DecodeResponse(resp, nil)
		log.Debug().Msg("access token rejected, refreshing")
		if err := c.refresher.RefreshAccessToken(ctx); err != nil {
			return errors.Wrapf(errors.ErrSessionExpired, "%v", err)
		}
		if token, err = c.accessToken(); err != nil {
			return err
		}
		if resp, err = send(token); err != nil {
			return err
		}
	}
	return apiclient.DecodeResponse(resp, target)
}

func (c *Client) accessToken() (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return "", errors.Wrapf(errors.ErrNotAuthenticated, "%v", err)
	}
	return tok.AccessToken, nil
}

func (img Image) part(field string) apiclient.FilePart {
	return apiclient.FilePart{
		Field:       field,
		Filename:    img.Filename,
		ContentType: img.MediaType(),
		Content:     bytes.NewReader(img.Content),
	}
}

// MediaType is the declared content type, or the one sniffed from the bytes
func (img Image) MediaType() string {
	if img.ContentType != "" {
		return img.ContentType
	}
	return http.DetectContentType(img.Content)
}

func decodeList[T any](raw json.RawMessage) []T {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn().Err(err).Msg("expected a list, ignoring reply")
	}
	if items == nil {
		return []T{}
	}
	return items
}
