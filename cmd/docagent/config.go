package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/config"
	"github.com/officemind/docagent/internal/validate"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to ~/.docagent/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir := filepath.Join(home, ".docagent")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		path := filepath.Join(dir, "config.yaml")
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		return api.Output(map[string]string{"config": path})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return api.Output(cfgMgr.Get())
	},
}

var validateCmd = func() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a file against the upload rules without contacting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			res := validate.ValidateWithMax(validate.File{
				Name: filepath.Base(args[0]),
				Size: info.Size(),
			}, validate.FileKind(kind), cfgMgr.Get().MaxUploadSize)
			return api.Output(res)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(validate.KindDocument), "Expected kind: document, pdf, or image")
	return cmd
}()

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(validateCmd)
}
