package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-data-sentinel/internal/audit"
	"go-data-sentinel/internal/config"
	"go-data-sentinel/internal/store"
)

func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recorded pipeline and offline validation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.Audit.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open audit database: %w", err)
			}
			defer st.Close()

			recorder := audit.NewRecorder(st, logger, audit.DefaultRetryPolicy())
			runs, err := recorder.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}

			fmt.Printf("%-36s %-12s %-22s %-8s %s\n", "RUN ID", "PIPELINE", "STARTED", "OFFLINE", "STATUS")
			for _, run := range runs {
				offline := ""
				if run.Offline {
					offline = "yes"
				}
				fmt.Printf("%-36s %-12s %-22s %-8s %s\n",
					run.RunID, run.PipelineName,
					run.StartedAt.Format("2006-01-02 15:04:05"),
					offline, run.Status)
			}
			return nil
		},
	}
}
