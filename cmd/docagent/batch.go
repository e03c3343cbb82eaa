package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/officemind/docagent/internal/api"
	"github.com/officemind/docagent/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch processing commands",
}

func newBatchService() *batch.Service {
	return batch.NewService(newClient(), store, logger)
}

var batchRunCmd = func() *cobra.Command {
	var (
		name        string
		operation   string
		parallelism int
		outputDir   string
		overwrite   bool
		showBytes   bool
	)
	cmd := &cobra.Command{
		Use:   "run <file> [file...]",
		Short: "Upload files, create a job, and start it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			var onProgress api.ProgressFunc
			if showBytes {
				onProgress = func(id string, sent, total int64) {
					logger.Info("upload progress", "upload_id", id,
						"percent", fmt.Sprintf("%.0f", float64(sent)/float64(total)*100))
				}
			}

			jobID, err := newBatchService().Run(cmd.Context(), name, args, batch.ProcessingConfig{
				Operation:      operation,
				Parallelism:    parallelism,
				OutputDir:      outputDir,
				OverwriteFiles: overwrite,
			}, onProgress)
			if err != nil {
				return err
			}
			return api.Output(map[string]string{"job_id": jobID, "status": "started"})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Job name (required)")
	cmd.Flags().StringVar(&operation, "op", "format-alignment", "Processing operation")
	cmd.Flags().IntVar(&parallelism, "parallelism", 2, "Parallel workers on the server")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Server-side output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing output files")
	cmd.Flags().BoolVar(&showBytes, "progress", false, "Log upload progress")
	return cmd
}()

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List batch jobs once",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := newBatchService().List(cmd.Context())
		if err != nil {
			return err
		}
		return api.Output(jobs)
	},
}

var batchStartCmd = &cobra.Command{
	Use:   "start <job-id>",
	Short: "Start a created job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newBatchService().Start(cmd.Context(), args[0]); err != nil {
			return err
		}
		return api.Output(map[string]string{"job_id": args[0], "status": "started"})
	},
}

var batchWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the job list until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		interval := cfgMgr.Get().JobPollInterval
		watcher := batch.NewWatcher(newBatchService(), logger, interval)

		handle := watcher.Start(ctx)
		defer handle.Stop()

		// Render the snapshot on the same cadence the watcher refreshes it.
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-handle.Done():
				return handle.Err()
			case <-ticker.C:
				if err := api.Output(watcher.Jobs()); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	batchCmd.AddCommand(batchRunCmd)
	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchStartCmd)
	batchCmd.AddCommand(batchWatchCmd)
	rootCmd.AddCommand(batchCmd)
}
