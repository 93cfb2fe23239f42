package cmd

import (
	"fmt"

	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/pages"
	"github.com/spf13/cobra"
)

func (a *app) loginCommand() *cobra.Command {
	var email, password, otp string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email, password and the emailed one time code",
		Long: `Sign in to the studio.

The password step makes the server email a 6 digit code. Pass it with --otp, or
leave --otp out to be prompted for it once the email has been sent.`,
		Example: `  studio login --email alice@example.com
  studio login --email alice@example.com --password secret --otp 123456`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store.IsAuthenticated() {
				u, _ := a.store.User()
				fmt.Fprintf(cmd.OutOrStdout(), "Already logged in as %s\n", u.Email)
				return nil
			}
			var err error
			if email, err = a.valueOrPrompt(email, "Email", false); err != nil {
				return err
			}
			if password, err = a.valueOrPrompt(password, "Password", true); err != nil {
				return err
			}

			flow := pages.NewLoginFlow(a.store)
			if err := flow.SubmitCredentials(cmd.Context(), email, password); err != nil {
				return commandError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), flow.Message())

			if otp, err = a.valueOrPrompt(otp, "Code from your email", false); err != nil {
				flow.Back()
				return err
			}
			if err := flow.SubmitOtp(cmd.Context(), otp); err != nil {
				return commandError(err)
			}
			u, _ := a.store.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&otp, "otp", "", "one time code (prompted when omitted)")
	return cmd
}

func (a *app) verifyOtpCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify-otp CODE",
		Short: "Finish a login started in another terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.VerifyOtp(cmd.Context(), email, args[0]); err != nil {
				return commandError(err)
			}
			u, _ := a.store.User()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) resendOtpCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Email a fresh login code",
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.store.ResendOtp(cmd.Context(), email)
			if err != nil {
				return commandError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.store.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, ok := a.store.User()
			if !ok {
				return errors.ErrNotAuthenticated
			}
			if format == FormatText {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) %s\n", u.Email, u.Role, u.Name)
				return nil
			}
			return printValue(cmd.OutOrStdout(), format, u)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", FormatText, "output format: text, json or yaml")
	return cmd
}
