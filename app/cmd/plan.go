package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lexcodex/srcmap/framework/scan"
)

func newPlanCmd() *cobra.Command {
	var asJSON bool
	var complete bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Discover and classify files and decide between a full or incremental pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			manager := scan.NewManager(store, scan.Config{
				Root:             workspace,
				Patterns:         globalCfg.Patterns,
				IncludeIgnored:   globalCfg.IncludeIgnored,
				ExtractorVersion: runningVersion(),
			})
			plan, err := manager.Plan(cmd.Context())
			if err != nil {
				return err
			}
			if complete {
				stamp, err := manager.Complete(cmd.Context())
				if err != nil {
					return err
				}
				plan.Meta.LastUpdatedAt = &stamp
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), plan)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, headerStyle.Render("Refresh plan"))
			fmt.Fprintln(out, row("root", plan.Root))
			fmt.Fprintln(out, row("files", strconv.Itoa(len(plan.Files))))
			fmt.Fprintln(out, row("symbols", strconv.Itoa(plan.Symbols)))
			fmt.Fprintln(out, row("structure", strconv.Itoa(plan.Structure)))
			fmt.Fprintln(out, row("skipped", strconv.Itoa(plan.Skipped)))
			fmt.Fprintln(out, row("mode", string(plan.Mode)))
			if plan.Stale {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("cache built by extractor %s, running %s",
					optional(plan.Meta.ExtractorVersion), runningVersion())))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&complete, "complete", false, "Record the refresh as completed")
	return cmd
}
