package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dantiw/csreview/internal/config"
	"github.com/spf13/cobra"
)

var flagConfigProject bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage csreview configuration",
}

// configTarget is the file `config init` and `config set` write: the user
// config, or .csreview.yaml in the working directory with --project.
func configTarget() (string, error) {
	if flagConfigProject {
		return filepath.Abs(".csreview.yaml")
	}
	return config.ConfigPath()
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(os.Stderr, "Config file already exists at %s\n", path)
			return nil
		}

		if err := config.Save(path, config.Default()); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}

		cfg := config.Default()
		if _, err := os.Stat(path); err == nil {
			layer, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			layer.Apply(&cfg)
		}

		if err := config.SetField(&cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		if err := config.Save(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, src, err := config.Load(".", flagConfig, nil)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}

		if src.File != "" {
			fmt.Fprintf(os.Stderr, "Using %s config %s\n", src.Origin, src.File)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configShowCmd)
	configInitCmd.Flags().BoolVar(&flagConfigProject, "project", false, "Write .csreview.yaml in the current directory")
	configSetCmd.Flags().BoolVar(&flagConfigProject, "project", false, "Update .csreview.yaml in the current directory")
	configShowCmd.Flags().StringVar(&flagConfig, "config", "", "Config file path")
}
