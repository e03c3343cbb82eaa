package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/backend"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Manage a locally run backend container",
	Long: `Backend commands run the document agent backend in Docker for local
development. In production the backend is an external service and these
commands are not needed.`,
}

func newBackendManager() (*backend.Manager, error) {
	return backend.NewManager(cfgMgr.Get().Backend)
}

var backendStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the backend container and wait until it is healthy",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newBackendManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Start(cmd.Context()); err != nil {
			return err
		}
		logger.Info("backend ready", "url", m.URL())
		return api.Output(map[string]string{"status": "running", "url": m.URL()})
	},
}

var backendStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the backend container",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newBackendManager()
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.Stop(cmd.Context()); err != nil {
			return err
		}
		return api.Output(map[string]string{"status": "stopped"})
	},
}

var backendStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backend container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newBackendManager()
		if err != nil {
			return err
		}
		defer m.Close()

		status, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		return api.Output(map[string]string{"status": string(status), "url": m.URL()})
	},
}

var backendLogsCmd = func() *cobra.Command {
	var tail string
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print backend container logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newBackendManager()
			if err != nil {
				return err
			}
			defer m.Close()

			logs, err := m.Logs(cmd.Context(), tail)
			if err != nil {
				return err
			}
			fmt.Print(logs)
			return nil
		},
	}
	cmd.Flags().StringVar(&tail, "tail", "100", "Number of log lines to show")
	return cmd
}()

func init() {
	backendCmd.AddCommand(backendStartCmd)
	backendCmd.AddCommand(backendStopCmd)
	backendCmd.AddCommand(backendStatusCmd)
	backendCmd.AddCommand(backendLogsCmd)
	rootCmd.AddCommand(backendCmd)
}
