package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/medtext/config"
)

func configCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage medtext configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the user config file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(flags.logLevel)
			path := config.UserConfigPath()
			if path == "" {
				return fmt.Errorf("cannot resolve home directory")
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Printf("User config already exists at %s\n", path)
				return nil
			}
			if err := config.DefaultConfig().SaveToFile(path); err != nil {
				return fmt.Errorf("create user config: %w", err)
			}
			fmt.Printf("Created user config at %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(flags.logLevel)
			cfg, err := loadConfig(flags, logger)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	})

	return cmd
}
