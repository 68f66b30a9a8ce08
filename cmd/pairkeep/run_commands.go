package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pairkeep/internal/ipc"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and manage organization run history",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsRetryCommand(ctx))
	runsCmd.AddCommand(newRunsClearCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organization runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunsList(listStatuses)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Runs)
				}
				if len(resp.Runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No organization runs recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Status", "Items", "Organized", "Failed", "Review", "Created"},
					buildRunListRows(resp.Runs),
					[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by run status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit runs as JSON")
	return cmd
}

func buildRunListRows(runs []ipc.RunView) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			run.Status,
			strconv.Itoa(run.ItemCount),
			strconv.Itoa(run.SuccessCount),
			strconv.Itoa(run.FailureCount),
			yesNo(run.NeedsReview),
			run.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <runID>",
		Short: "Show one run with its plan and outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunDescribe(id)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Run)
				}
				printRunDetail(cmd, resp.Run)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the run as JSON")
	return cmd
}

func printRunDetail(cmd *cobra.Command, run ipc.RunDetailView) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %d (%s)\n", run.ID, run.Status)
	fmt.Fprintf(out, "  Trigger:    %s\n", run.Trigger)
	fmt.Fprintf(out, "  Items:      %d\n", run.ItemCount)
	fmt.Fprintf(out, "  Organized:  %d\n", run.SuccessCount)
	fmt.Fprintf(out, "  Failed:     %d\n", run.FailureCount)
	fmt.Fprintf(out, "  Review:     %s\n", yesNo(run.NeedsReview))
	if run.ReviewReason != "" {
		fmt.Fprintf(out, "  Reason:     %s\n", run.ReviewReason)
	}
	if run.Error != "" {
		fmt.Fprintf(out, "  Error:      %s\n", run.Error)
	}
	if len(run.NewGroupings) > 0 {
		fmt.Fprintf(out, "  New groupings: %s\n", strings.Join(run.NewGroupings, ", "))
	}
	if run.Relocations > 0 {
		fmt.Fprintf(out, "  Relocations:   %d\n", run.Relocations)
	}
	if len(run.CreatedGroupings) > 0 {
		fmt.Fprintln(out, "  Created groupings:")
		for name, id := range run.CreatedGroupings {
			fmt.Fprintf(out, "    %s (%s)\n", name, id)
		}
	}
	if len(run.Failures) > 0 {
		fmt.Fprintln(out, "  Failures:")
		for _, failure := range run.Failures {
			fmt.Fprintf(out, "    %s: %s\n", failure.ItemID, failure.Reason)
		}
	}
}

func newRunsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [runID...]",
		Short: "Retry failed organization runs",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid run id %q", arg)
				}
				ids = append(ids, id)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RunsRetry(ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Retried %d failed runs\n", resp.Updated)
				return nil
			})
		},
	}
}

func newRunsClearCommand(ctx *commandContext) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove applied runs from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				if clearAll {
					resp, err := client.RunsClearAll()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d runs\n", resp.Removed)
					return nil
				}
				resp, err := client.RunsClearCompleted()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d applied runs\n", resp.Removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every run, not just applied ones")
	return cmd
}
