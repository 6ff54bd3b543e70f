package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lexcodex/srcmap/framework/language"
)

func newClassifyCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "classify [path...]",
		Short: "Show the language tag and extraction capabilities of paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := language.ClassifyAll(args)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(dimStyle).
				Headers("PATH", "LANGUAGE", "CATEGORY", "SYMBOLS", "STRUCTURE")
			for _, info := range infos {
				t.Row(info.Path, string(info.Language), string(info.Category),
					strconv.FormatBool(info.CanExtractSymbols), strconv.FormatBool(info.CanExtractStructure))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}
