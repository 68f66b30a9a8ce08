package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pairkeep/internal/ipc"
)

func newGroupingsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "groupings",
		Short: "List the workspace's groupings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GroupingsList()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Groupings)
				}
				if len(resp.Groupings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Workspace has no groupings")
					return nil
				}
				rows := make([][]string, 0, len(resp.Groupings))
				for _, grouping := range resp.Groupings {
					createdBy := grouping.CreatedBy
					if createdBy == "" {
						createdBy = "member"
					}
					rows = append(rows, []string{grouping.ID, grouping.Name, createdBy})
				}
				table := renderTable(
					[]string{"ID", "Name", "Created By"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit groupings as JSON")
	return cmd
}
