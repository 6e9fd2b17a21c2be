package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nuri-labs/docrag/internal/core/domain"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question grounded in the indexed documents",
	Long: `Classifies the question, retrieves matching chunks, and generates
an answer that cites its source documents. Questions the knowledge
base cannot answer are refused rather than guessed.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	answer, err := queryService.Ask(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputAnswer(cmd, answer)
}

func outputAnswer(cmd *cobra.Command, answer *domain.Answer) error {
	cmd.Println(answer.Text)

	if len(answer.Sources) == 0 {
		return nil
	}

	cmd.Println()
	cmd.Println("참고 문서:")
	for i := range answer.Sources {
		s := &answer.Sources[i]
		cmd.Printf("  [%d] %s (p.%d", i+1, s.Filename, s.Page)
		for _, p := range s.ExtraPages {
			cmd.Printf(", p.%d", p)
		}
		cmd.Println(")")
	}
	return nil
}
