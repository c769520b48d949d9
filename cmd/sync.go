package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hfujimori/agenda-sync/internal/id/uuid"
	"github.com/hfujimori/agenda-sync/internal/schedule"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Runs one scrape-render-publish pass and exits",
		Long: `Scrapes every workshop source, rewrites the agenda artifacts and,
when they changed, commits and pushes them. Exits non-zero when the run
fails, so it can back a CI job or a systemd timer.`,
		RunE: runSyncCommand,
	}
}

func runSyncCommand(cmd *cobra.Command, _ []string) error {
	svc, err := buildServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.close()

	runID, err := uuid.New().NewID()
	if err != nil {
		return fmt.Errorf("mint run id: %w", err)
	}
	now := time.Now().UTC()
	ev := schedule.TriggerEvent{
		RunID:       runID,
		Reason:      schedule.ReasonManual,
		ScheduledAt: now,
		FiredAt:     now,
	}
	return svc.runner.Run(cmd.Context(), ev)
}
