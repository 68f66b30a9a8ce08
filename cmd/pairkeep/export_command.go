package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pairkeep/internal/ipc"
)

func newExportCalendarCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export-calendar",
		Short: "Export due-dated items to an ICS calendar file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ExportCalendar()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", resp.Events, resp.Path)
				return nil
			})
		},
	}
}
