package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lexcodex/srcmap/app/config"
)

// rawConfigAnnotation marks commands that work on the raw YAML map and can
// run while the typed config fails to load.
const rawConfigAnnotation = "srcmap/raw-config"

// newConfigCmd registers subcommands that inspect or mutate config.yaml.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Inspect or modify config.yaml",
		Annotations: map[string]string{rawConfigAnnotation: "true"},
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd())
	return cmd
}

// newConfigGetCmd prints the value referenced by a dotted key.
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Read a config value by dotted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readConfigMap(cfgFile)
			if err != nil {
				return err
			}
			value, ok := getConfigValue(data, args[0])
			if !ok {
				return fmt.Errorf("key %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), prettyValue(value))
			return nil
		},
	}
}

// newConfigSetCmd updates a dotted key with the provided value. A single
// glob given for a list key is stored as a one-element list, and the write
// is refused when the result would not load.
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Update a config value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readConfigMap(cfgFile)
			if err != nil {
				return err
			}
			value := parseValue(args[1])
			if slices.Contains(config.ListKeys, args[0]) {
				if _, isList := value.([]interface{}); !isList {
					value = []interface{}{args[1]}
				}
			}
			if err := setConfigValue(data, args[0], value); err != nil {
				return err
			}
			if err := checkConfigMap(data); err != nil {
				return fmt.Errorf("refusing to set %s: %w", args[0], err)
			}
			if err := writeConfigMap(cfgFile, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	}
}

// checkConfigMap verifies that data decodes into the typed config.
func checkConfigMap(data map[string]interface{}) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	_, err = config.Parse(raw)
	return err
}

func usesRawConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[rawConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}
