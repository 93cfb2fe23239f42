// Package cmd implements the studio command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-studio-client/apiclient"
	"github.com/jrsteele09/go-studio-client/internal/config"
	"github.com/jrsteele09/go-studio-client/internal/logging"
	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/jrsteele09/go-studio-client/session"
	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// standalone marks commands that do not talk to the studio API through a session
const standalone = "standalone"

// Prompter asks the user for one value. Secret values are not echoed.
type Prompter func(title string, secret bool) (string, error)

// app holds the client components shared by every command
type app struct {
	cfg    config.Config
	fs     afero.Fs
	out    io.Writer
	errOut io.Writer
	prompt Prompter

	apiURL   string
	logLevel string
	dataDir  string

	registry *prometheus.Registry
	bus      *notify.Broadcaster
	surface  *notify.Surface
	client   *apiclient.Client
	repo     *session.FileTokenRepo
	store    *session.Store
	studio   *studio.Client
	closeLog func() error
}

type Option func(*app)

// WithFs replaces the OS filesystem used for the token file
func WithFs(fs afero.Fs) Option {
	return func(a *app) {
		a.fs = fs
	}
}

// WithOutput redirects command output and notifications
func WithOutput(out, errOut io.Writer) Option {
	return func(a *app) {
		a.out = out
		a.errOut = errOut
	}
}

// WithPrompter replaces the interactive terminal prompts
func WithPrompter(p Prompter) Option {
	return func(a *app) {
		a.prompt = p
	}
}

// NewRootCommand builds the studio command tree
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		cfg:    config.New(),
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
		errOut: os.Stderr,
		prompt: terminalPrompt,
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "studio",
		Short: "Art studio client",
		Long: `studio signs you in to the art studio API and drives the editing workflow.

The session is kept in a token file so later commands stay signed in until you log out
or the refresh token is rejected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setupLogging(); err != nil {
				return err
			}
			if cmd.Annotations[standalone] != "" {
				return nil
			}
			return a.connect(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.surface != nil {
				a.surface.Unmount()
			}
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api-url", a.cfg.GetAPIURL(), "base URL of the studio API")
	flags.StringVar(&a.logLevel, "log-level", a.cfg.GetLogLevel(), "log level (debug, info, warn, error)")
	flags.StringVar(&a.dataDir, "data-dir", a.cfg.GetDataFolder(), "directory holding the token file")

	root.AddCommand(
		a.loginCommand(),
		a.verifyOtpCommand(),
		a.resendOtpCommand(),
		a.logoutCommand(),
		a.whoamiCommand(),
		a.signupCommand(),
		a.verifyEmailCommand(),
		a.forgotPasswordCommand(),
		a.resetPasswordCommand(),
		a.creditsCommand(),
		a.communityCommand(),
		a.serveCommand(),
		a.devAPICommand(),
	)
	return root
}

// ExecuteContext runs the command line with os.Args
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (a *app) setupLogging() error {
	closeLog, err := logging.Setup(logging.Options{
		Level: a.logLevel,
		Env:   a.cfg.GetEnv(),
		File:  a.cfg.GetLogFile(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	a.closeLog = closeLog
	return nil
}

// connect builds the client stack and restores the stored session
func (a *app) connect(ctx context.Context) error {
	if err := a.fs.MkdirAll(a.dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", a.dataDir, err)
	}

	a.registry = prometheus.NewRegistry()
	a.bus = notify.NewBroadcaster()
	a.surface = notify.NewSurface(a.bus,
		notify.WithDuration(a.cfg.GetNotificationDuration()),
		notify.WithMessage(a.cfg.GetRateLimitMessage()),
		notify.WithOnChange(notify.TerminalRenderer(a.errOut)),
	)
	a.surface.Mount()

	a.client = apiclient.New(a.apiURL, a.bus, apiclient.WithMetrics(apiclient.NewMetrics(a.registry)))
	a.repo = session.NewFileTokenRepo(a.fs, filepath.Join(a.dataDir, a.cfg.GetTokenFileName()))
	a.store = session.NewStore(a.client, a.repo)
	a.studio = studio.New(a.client, a.store, studio.WithRefresher(a.store))

	if ctx == nil {
		ctx = context.Background()
	}
	if err := a.store.Start(ctx); err != nil {
		// The store has already logged out; commands see an anonymous session
		log.Debug().Err(err).Msg("stored session not restored")
	}
	return nil
}
