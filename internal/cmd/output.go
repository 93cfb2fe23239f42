package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// printValue writes v as json or yaml. Text output is left to the caller.
func printValue(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want %s, %s or %s)", format, FormatText, FormatJSON, FormatYAML)
	}
}

// terminalPrompt asks for a single value with huh
func terminalPrompt(title string, secret bool) (string, error) {
	var value string
	input := huh.NewInput().
		Title(title).
		Value(&value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return value, nil
}

// valueOrPrompt returns value, asking for it when it was not given on the command line
func (a *app) valueOrPrompt(value, title string, secret bool) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.prompt(title, secret)
}

// commandError turns a client error into the text the matching page would show.
// A missing or expired session keeps ErrNotAuthenticated in the chain.
func commandError(err error) error {
	if errors.Is(err, errors.ErrNotAuthenticated) || errors.Is(err, errors.ErrSessionExpired) {
		return errors.Wrapf(errors.ErrNotAuthenticated, "run studio login first")
	}
	return errors.New(pages.ErrorMessage(err))
}
