// Package cli provides the cobra command tree. Commands render service
// results for humans; all behaviour lives in the core services.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/nuri-labs/docrag/internal/core/ports/driving"
	"github.com/nuri-labs/docrag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services consumed by the commands. Wired once from main before
// Execute; commands fail gracefully when a service is missing.
var (
	ingestService  driving.IngestService
	queryService   driving.QueryService
	catalogService driving.CatalogService

	// serveFunc starts the HTTP server on the given address. Injected so
	// the CLI package does not depend on the HTTP adapter.
	serveFunc func(addr string) error

	// watchFunc watches a directory and ingests files dropped into it.
	watchFunc func(dir string) error
)

// Services bundles everything the command tree needs.
type Services struct {
	Ingest  driving.IngestService
	Query   driving.QueryService
	Catalog driving.CatalogService
	Serve   func(addr string) error
	Watch   func(dir string) error
	Version string
}

// Configure wires the services into the command tree.
func Configure(s Services) {
	ingestService = s.Ingest
	queryService = s.Query
	catalogService = s.Catalog
	serveFunc = s.Serve
	watchFunc = s.Watch
	if s.Version != "" {
		version = s.Version
	}
}

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Document knowledge base with layout-aware retrieval",
	Long: `docrag indexes office documents (PDF, DOCX, XLSX, images, text)
into a local knowledge base and answers questions grounded in them.
Tables are extracted with their layout preserved so numeric answers
keep their units and context.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

var verboseFlag bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print pipeline stages to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
