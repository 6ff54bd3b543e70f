package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexcodex/srcmap/framework/discovery"
)

func newDiscoverCmd() *cobra.Command {
	var patterns []string
	var includeIgnored []string
	var asJSON bool
	var verbose bool
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List in-scope files under the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(patterns) == 0 {
				patterns = globalCfg.Patterns
			}
			if !cmd.Flags().Changed("include-ignored") {
				includeIgnored = globalCfg.IncludeIgnored
			}
			result, err := discovery.Discoverer{}.Discover(cmd.Context(), discovery.Request{
				Root:           workspace,
				Patterns:       patterns,
				IncludeIgnored: includeIgnored,
			})
			if err != nil {
				return err
			}
			if asJSON {
				if verbose {
					return writeJSON(cmd.OutOrStdout(), result)
				}
				return writeJSON(cmd.OutOrStdout(), nonNil(result.Files))
			}
			out := cmd.OutOrStdout()
			for _, path := range result.Files {
				fmt.Fprintln(out, path)
			}
			if verbose {
				fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(fmt.Sprintf(
					"%d files, %d ignored, %d retained by override", len(result.Files), len(result.Ignored), len(result.Retained))))
			}
			return nil
		},
	}
	// StringArray keeps brace globs such as "{a,b}" intact.
	cmd.Flags().StringArrayVarP(&patterns, "pattern", "p", nil, "Glob relative to the workspace (repeatable)")
	cmd.Flags().StringArrayVar(&includeIgnored, "include-ignored", nil, "Glob retaining otherwise ignored files (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Report ignored and retained counts")
	return cmd
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
