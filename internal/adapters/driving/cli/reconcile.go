package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nuri-labs/docrag/internal/core/ports/driving"
)

var reconcileRepair bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare the registry against the vector index",
	Long: `Reports documents registered without index records and index
records whose document is no longer registered. With --repair, orphan
records are deleted and missing documents are re-indexed.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileRepair, "repair", false, "repair the reported drift")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("catalog service not configured")
	}

	ctx := context.Background()

	var report *driving.ReconcileReport
	var err error
	if reconcileRepair {
		report, err = catalogService.Repair(ctx)
	} else {
		report, err = catalogService.Check(ctx)
	}
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	if len(report.MissingRecords) == 0 && len(report.OrphanRecords) == 0 {
		cmd.Println("Registry and index are consistent.")
		return nil
	}

	if len(report.MissingRecords) > 0 {
		cmd.Printf("Registered without index records (%d):\n", len(report.MissingRecords))
		for _, id := range report.MissingRecords {
			cmd.Printf("  %s\n", id)
		}
	}
	if len(report.OrphanRecords) > 0 {
		cmd.Printf("Index records without registration (%d):\n", len(report.OrphanRecords))
		for _, id := range report.OrphanRecords {
			cmd.Printf("  %s\n", id)
		}
	}

	if !reconcileRepair {
		cmd.Println()
		cmd.Println("Run with --repair to fix.")
	}
	return nil
}
