package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listDocType string
	listDate    string
	listJSON    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id-or-filename]",
	Short: "Remove a document and its index records",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	listCmd.Flags().StringVar(&listDocType, "doc-type", "", "only show documents of this type")
	listCmd.Flags().StringVar(&listDate, "date", "", "only show documents with this date (YYMMDD)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	files, stats, err := ingestService.List(context.Background(), listDocType, listDate)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(map[string]any{
			"files":      files,
			"statistics": stats,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal listing: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(files) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	for i := range files {
		f := &files[i]
		cmd.Printf("  %s\n", f.ID)
		cmd.Printf("    File: %s (%d bytes)\n", f.Filename, f.Size)
		if f.DocType != "" {
			cmd.Printf("    Type: %s\n", f.DocType)
		}
		if f.Date != "" {
			cmd.Printf("    Date: %s\n", f.Date)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", stats.TotalCount)
	for docType, count := range stats.ByDocType {
		cmd.Printf("  %s: %d\n", docType, count)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	removed, err := ingestService.Delete(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted %s (%d index records removed)\n", args[0], removed)
	return nil
}
