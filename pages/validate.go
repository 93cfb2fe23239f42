package pages

import (
	"net/http"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/session"
)

// Form limits
const (
	MinPasswordLength = 6
	OtpLength         = 6
)

const insufficientCredits = "You need at least 2 credits to generate an edit"

func invalid(msg string) error {
	return &session.FlowError{Kind: errors.ErrValidation, Message: msg}
}

func validateEmail(email string) error {
	if !govalidator.IsEmail(strings.TrimSpace(email)) {
		return invalid("Please enter a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return invalid("Password must be at least 6 characters")
	}
	return nil
}

func validateOtp(code string) error {
	if len(code) != OtpLength || !govalidator.IsNumeric(code) {
		return invalid("Please enter the 6-digit code from your email")
	}
	return nil
}

func required(msg string, values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return invalid(msg)
		}
	}
	return nil
}

// ErrorMessage is the text a form shows for err
func ErrorMessage(err error) string {
	var flowErr *session.FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}
	if errors.Is(err, errors.ErrRateLimited) {
		return "Daily API limit exceeded. Please try again tomorrow."
	}
	if errors.Is(err, errors.ErrInsufficientCredits) {
		return insufficientCredits
	}
	return "Something went wrong. Please try again."
}

// statusMessage is the server's own text for a rejected request, if it sent one
func statusMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusTooManyRequests {
		return apiErr.Message
	}
	return ""
}
