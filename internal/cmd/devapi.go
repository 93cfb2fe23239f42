package cmd

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-studio-client/internal/fakeapi"
	"github.com/jrsteele09/go-studio-client/users"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func (a *app) devAPICommand() *cobra.Command {
	var (
		port      string
		prefix    string
		member    string
		admin     string
		password  string
		perMinute int
		accessTTL time.Duration
	)
	cmd := &cobra.Command{
		Use:         "dev-api",
		Short:       "Run an in-memory studio API for local development",
		Long:        `dev-api serves the studio API from memory. Emails are written to the log instead of being sent.`,
		Example:     `  studio dev-api --port 5000 --admin admin@example.com --quota 30`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{standalone: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []fakeapi.Option{
				fakeapi.WithPrefix(prefix),
				fakeapi.WithAccessTTL(accessTTL),
			}
			if perMinute > 0 {
				opts = append(opts, fakeapi.WithQuota(rate.Every(time.Minute/time.Duration(perMinute)), perMinute))
			}
			api := fakeapi.New(opts...)

			seeds := []users.User{
				{Email: member, Name: "Studio Member", Role: users.RoleMember},
				{Email: admin, Name: "Studio Admin", Role: users.RoleAdmin},
			}
			for _, u := range seeds {
				if u.Email == "" {
					continue
				}
				if _, err := api.SeedUser(u, password); err != nil {
					return err
				}
				log.Info().Str("email", u.Email).Str("role", string(u.Role)).Msg("seeded account")
			}

			return runServer(cmd.Context(), &http.Server{
				Addr:              listenAddr(port),
				Handler:           api,
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "5000", "address or port to listen on")
	cmd.Flags().StringVar(&prefix, "prefix", "/api", "path the API routes are mounted under")
	cmd.Flags().StringVar(&member, "user", "", "seed a verified member account with this email")
	cmd.Flags().StringVar(&admin, "admin", "", "seed a verified admin account with this email")
	cmd.Flags().StringVar(&password, "password", "password", "password for seeded accounts")
	cmd.Flags().IntVar(&perMinute, "quota", 0, "requests allowed per minute before answering 429 (0 disables the limit)")
	cmd.Flags().DurationVar(&accessTTL, "access-ttl", fakeapi.DefaultAccessTTL, "lifetime of issued access tokens")
	return cmd
}
