package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/go-studio-client/studio"
	"github.com/spf13/cobra"
)

func (a *app) creditsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Show your credit balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			credits, err := a.studio.Credits(cmd.Context())
			if err != nil {
				return commandError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d credits (%d per edit)\n", credits, studio.EditCost)
			return nil
		},
	}
}

func (a *app) communityCommand() *cobra.Command {
	community := &cobra.Command{
		Use:   "community",
		Short: "Browse the community gallery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List shared edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := a.studio.ListCommunity(cmd.Context())
			if err != nil {
				return commandError(err)
			}
			if format != FormatText {
				return printValue(cmd.OutOrStdout(), format, posts)
			}
			if len(posts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No posts yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tIMAGE\tPROMPT")
			for _, p := range posts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.GeneratedImageURL, p.Prompt)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&format, "output", "o", FormatText, "output format: text, json or yaml")
	community.AddCommand(list)
	return community
}
