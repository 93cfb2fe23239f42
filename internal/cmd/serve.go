package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-studio-client/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser gateway for the studio",
		Long: `serve renders the studio pages for a local browser. The gateway keeps one session,
the same one the other commands use, so logging in here logs in the command line too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			handler, err := server.New(a.cfg, server.Deps{
				Store:    a.store,
				Studio:   a.studio,
				Surface:  a.surface,
				Gatherer: a.registry,
			})
			if err != nil {
				return err
			}
			displayAppname(cmd, a.cfg.GetAppName())
			return runServer(cmd.Context(), &http.Server{
				Addr:              listenAddr(port),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", a.cfg.GetPort(), "address or port to listen on")
	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully
func runServer(ctx context.Context, srv *http.Server) error {
	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("server.ListenAndServe %w", err)
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func listenAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func displayAppname(cmd *cobra.Command, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(cmd.OutOrStdout(), myFigure.String())
}
