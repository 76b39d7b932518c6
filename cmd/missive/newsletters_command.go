package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"missive/internal/config"
	"missive/internal/newsletter"
	"missive/internal/store"
)

func newNewslettersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "newsletters",
		Short: "List registered newsletters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				newsletters, err := st.ListNewsletters(cmd.Context())
				if err != nil {
					return fmt.Errorf("list newsletters: %w", err)
				}
				if len(newsletters) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No newsletters registered; run `missive create` first.")
					return nil
				}

				rows := make([][]string, 0, len(newsletters))
				for _, n := range newsletters {
					issue, issueErr := newsletter.CurrentIssue(n.Folder)
					rows = append(rows, []string{
						strconv.FormatInt(n.ID, 10),
						n.Title,
						shortenFolder(n.Folder),
						issueLabel(issue, issueErr),
					})
				}

				headers := []string{"ID", "Title", "Folder", "Issue"}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}
