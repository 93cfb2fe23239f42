package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/go-studio-client/internal/errors"
)

// APIError is a non-OK response from the studio API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap maps the status onto the package sentinels so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return errors.ErrUnauthorized
	case http.StatusTooManyRequests:
		return errors.ErrRateLimited
	case http.StatusNotFound:
		return errors.ErrNotFound
	default:
		return errors.ErrRequestFailed
	}
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an *APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// MessageResponse is the body most auth endpoints reply with
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Text returns whichever message field the server filled in
func (m MessageResponse) Text() string {
	switch {
	case m.Message != "":
		return m.Message
	case m.Msg != "":
		return m.Msg
	default:
		return m.Error
	}
}

// DecodeResponse closes the body. Non-2xx becomes an *APIError, otherwise the JSON body is decoded into target.
func DecodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("[apiclient DecodeResponse] failed to decode response: %w", err)
	}
	return nil
}

// DecodeMessage decodes a {message|msg} reply and returns the text
func DecodeMessage(resp *http.Response) (string, error) {
	var m MessageResponse
	if err := DecodeResponse(resp, &m); err != nil {
		return "", err
	}
	return m.Text(), nil
}

func readMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(body) == 0 {
		return ""
	}
	var m MessageResponse
	if err := json.Unmarshal(body, &m); err == nil {
		return m.Text()
	}
	return ""
}
