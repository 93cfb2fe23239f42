package cmd

import (
	"fmt"

	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/spf13/cobra"
)

func printResult(cmd *cobra.Command, res pages.Result) error {
	if !res.OK() {
		return errors.New(res.Error)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}

func (a *app) signupCommand() *cobra.Command {
	var req session.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account. You must verify your email before logging in.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Password, err = a.valueOrPrompt(req.Password, "Password", true); err != nil {
				return err
			}
			res, _ := pages.NewSignupFlow(a.store).Submit(cmd.Context(), req)
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Name, "name", "", "your name")
	cmd.Flags().StringVar(&req.Contact, "contact", "", "phone number (optional)")
	cmd.Flags().StringVar(&req.Password, "password", "", "password, at least 6 characters (prompted when omitted)")
	return cmd
}

func (a *app) verifyEmailCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email TOKEN",
		Short: "Activate an account with the token from the verification email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _ := pages.NewRecovery(a.store).VerifyEmail(cmd.Context(), args[0])
			return printResult(cmd, res)
		},
	}
}

func (a *app) forgotPasswordCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _ := pages.NewRecovery(a.store).ForgotPassword(cmd.Context(), email)
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) resetPasswordCommand() *cobra.Command {
	var password, confirm string
	cmd := &cobra.Command{
		Use:   "reset-password TOKEN",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if password, err = a.valueOrPrompt(password, "New password", true); err != nil {
				return err
			}
			if confirm, err = a.valueOrPrompt(confirm, "Confirm password", true); err != nil {
				return err
			}
			res, _ := pages.NewRecovery(a.store).ResetPassword(cmd.Context(), args[0], password, confirm)
			return printResult(cmd, res)
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password (prompted when omitted)")
	return cmd
}
