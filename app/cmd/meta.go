package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lexcodex/srcmap/persistence"
)

// newMetaCmd registers subcommands over the cache lifecycle store.
func newMetaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Inspect or update cache lifecycle metadata",
	}
	cmd.AddCommand(
		newMetaShowCmd(),
		newMetaEnsureCmd(),
		newMetaTouchCmd(),
		newMetaGetCmd(),
		newMetaSetCmd(),
	)
	return cmd
}

// withStore opens the workspace metadata store for the duration of fn.
func withStore(fn func(store *persistence.MetaStore) error) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newMetaShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print created, last updated and extractor version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.MetaStore) error {
				meta, err := store.ReadMeta(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), meta)
				}
				renderMeta(cmd.OutOrStdout(), store.Path(), meta, runningVersion())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newMetaEnsureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Initialize lifecycle metadata if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.MetaStore) error {
				meta, err := store.EnsureMeta(cmd.Context(), runningVersion())
				if err != nil {
					return err
				}
				renderMeta(cmd.OutOrStdout(), store.Path(), meta, runningVersion())
				return nil
			})
		},
	}
}

func newMetaTouchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "touch",
		Short: "Record a completed refresh cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.MetaStore) error {
				stamp, err := store.UpdateLastUpdated(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), stamp)
				return nil
			})
		},
	}
}

func newMetaGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Read a raw metadata key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.MetaStore) error {
				value, ok, err := store.GetMeta(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("key %s not found", args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), value)
				return nil
			})
		},
	}
}

func newMetaSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Write a raw metadata key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.MetaStore) error {
				if err := store.SetMeta(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
				return nil
			})
		},
	}
}

func renderMeta(w io.Writer, path string, meta persistence.CacheMeta, running string) {
	fmt.Fprintln(w, headerStyle.Render("Cache metadata"))
	fmt.Fprintln(w, row("store", path))
	fmt.Fprintln(w, row(persistence.KeyCreatedAt, optional(meta.CreatedAt)))
	fmt.Fprintln(w, row(persistence.KeyLastUpdatedAt, optional(meta.LastUpdatedAt)))
	fmt.Fprintln(w, row(persistence.KeyExtractorVersion, optional(meta.ExtractorVersion)))
	if meta.IsStale(running) {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("stale: running extractor %s", running)))
	} else {
		fmt.Fprintln(w, okStyle.Render("up to date"))
	}
}
