package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var doctypeCmd = &cobra.Command{
	Use:   "doctype",
	Short: "Manage parsed document types",
}

var doctypeCorrectCmd = &cobra.Command{
	Use:   "correct [old] [corrected]",
	Short: "Rewrite a misparsed document type everywhere",
	Long: `Replaces a document-type value in the registry and in the index
metadata of every affected chunk. Use this when a filename was parsed
into the wrong type.`,
	Args: cobra.ExactArgs(2),
	RunE: runDoctypeCorrect,
}

func init() {
	doctypeCmd.AddCommand(doctypeCorrectCmd)
	rootCmd.AddCommand(doctypeCmd)
}

func runDoctypeCorrect(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	changed, err := ingestService.CorrectDocType(context.Background(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to correct doc type: %w", err)
	}

	cmd.Printf("Updated %q to %q (%d records)\n", args[0], args[1], changed)
	return nil
}
