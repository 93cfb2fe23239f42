package pages

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-studio-client/studio"
)

// FormsAPI sends the landing page forms
type FormsAPI interface {
	SubmitProposal(ctx context.Context, p studio.Proposal) (string, error)
	Subscribe(ctx context.Context, contact string) (string, error)
}

// Forms backs the proposal and newsletter forms on the landing page
type Forms struct {
	api FormsAPI
}

func NewForms(api FormsAPI) *Forms {
	return &Forms{api: api}
}

// Propose requires every field
func (f *Forms) Propose(ctx context.Context, p studio.Proposal) (Result, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Idea = strings.TrimSpace(p.Idea)
	if err := required("Please fill in all fields.", p.Name, p.Email, p.Idea); err != nil {
		return resultOf("", "", err), err
	}
	msg, err := f.api.SubmitProposal(ctx, p)
	return formResult(msg, "Thanks! We'll be in touch.", err), err
}

// Subscribe takes an email address or a phone number
func (f *Forms) Subscribe(ctx context.Context, contact string) (Result, error) {
	contact = strings.TrimSpace(contact)
	if err := required("Please enter an email or phone number.", contact); err != nil {
		return resultOf("", "", err), err
	}
	msg, err := f.api.Subscribe(ctx, contact)
	return formResult(msg, "Subscribed!", err), err
}

// formResult shows the server's own message on rejection, as the landing page does
func formResult(msg, fallback string, err error) Result {
	if err != nil && statusMessage(err) != "" {
		return Result{Error: statusMessage(err)}
	}
	return resultOf(msg, fallback, err)
}
