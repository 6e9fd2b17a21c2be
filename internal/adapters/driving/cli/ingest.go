package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Index documents into the knowledge base",
	Long: `Reads each file, decomposes it into text and table units, and
indexes the chunks. Filenames in "YYMMDD_doctype_title" form have
their date and document type extracted for filtered retrieval.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()
	var failed int

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("✗ %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := ingestService.Upload(ctx, filepath.Base(path), content)
		if err != nil {
			var dup *domain.DuplicateError
			if errors.As(err, &dup) {
				cmd.PrintErrf("✗ %s: already indexed as %s\n", path, dup.ExistingID)
			} else {
				cmd.PrintErrf("✗ %s: %v\n", path, err)
			}
			failed++
			continue
		}

		cmd.Printf("✓ %s (%d chunks, id %s)\n", result.Filename, result.ChunkCount, result.DocumentID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
