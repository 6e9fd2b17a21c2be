// Command docrag is the document knowledge base CLI and server.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nuri-labs/docrag/internal/adapters/driven/config/file"
	embeddingollama "github.com/nuri-labs/docrag/internal/adapters/driven/embedding/ollama"
	llmollama "github.com/nuri-labs/docrag/internal/adapters/driven/llm/ollama"
	"github.com/nuri-labs/docrag/internal/adapters/driven/ocr/tesseract"
	"github.com/nuri-labs/docrag/internal/adapters/driven/registry/sqlite"
	"github.com/nuri-labs/docrag/internal/adapters/driven/storage/files"
	"github.com/nuri-labs/docrag/internal/adapters/driven/vector/qdrant"
	"github.com/nuri-labs/docrag/internal/adapters/driving/cli"
	"github.com/nuri-labs/docrag/internal/adapters/driving/httpapi"
	"github.com/nuri-labs/docrag/internal/chunker"
	"github.com/nuri-labs/docrag/internal/core/services"
	"github.com/nuri-labs/docrag/internal/extract"
	"github.com/nuri-labs/docrag/internal/extract/docx"
	"github.com/nuri-labs/docrag/internal/extract/image"
	"github.com/nuri-labs/docrag/internal/extract/pdf"
	"github.com/nuri-labs/docrag/internal/extract/sheet"
	"github.com/nuri-labs/docrag/internal/extract/text"
	"github.com/nuri-labs/docrag/internal/watcher"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := file.NewConfigStore(os.Getenv("DOCRAG_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	prompts, err := file.NewPromptStore(cfg.GetString("prompts.dir"))
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}

	registry, err := sqlite.NewRegistry(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}
	defer registry.Close()

	uploadDir := cfg.GetString("storage.upload_dir")
	if uploadDir == "" {
		uploadDir = filepath.Join(filepath.Dir(registry.Path()), "uploads")
	}
	fileStore, err := files.New(uploadDir)
	if err != nil {
		return fmt.Errorf("opening file store: %w", err)
	}

	embedder := embeddingollama.NewEmbeddingService(embeddingollama.Config{
		BaseURL:    cfg.GetString("ollama.base_url"),
		Model:      cfg.GetString("ollama.embedding_model"),
		Dimensions: cfg.GetInt("ollama.embedding_dimensions"),
	})
	llm := llmollama.NewLLMService(llmollama.Config{
		BaseURL: cfg.GetString("ollama.base_url"),
		Model:   cfg.GetString("ollama.model"),
	})

	store := qdrant.New(qdrant.Config{
		BaseURL:    cfg.GetString("qdrant.base_url"),
		Collection: cfg.GetString("qdrant.collection"),
		Dimensions: embedder.Dimensions(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.EnsureCollection(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("preparing vector collection: %w", err)
	}

	runner := tesseract.ExecRunner{}
	ocr := tesseract.NewEngine(runner)
	raster := tesseract.NewRasterizer(runner)

	extractors := extract.NewRegistry()
	extractors.Register(text.New())
	extractors.Register(docx.New())
	extractors.Register(sheet.New())
	extractors.Register(image.New(ocr))
	extractors.Register(pdf.New(ocr, raster))

	chunkerOpts := []chunker.Option{}
	if size := cfg.GetInt("chunk.size"); size > 0 {
		chunkerOpts = append(chunkerOpts, chunker.WithChunkSize(size))
	}
	if overlap := cfg.GetInt("chunk.overlap"); overlap > 0 {
		chunkerOpts = append(chunkerOpts, chunker.WithOverlap(overlap))
	}
	ch := chunker.New(chunkerOpts...)

	ingest := services.NewIngestService(registry, fileStore, extractors, ch, embedder, store)
	query := services.NewQueryService(registry, store, embedder, llm, prompts)
	catalog := services.NewCatalogService(registry, store, ingest)

	server := httpapi.NewServer(httpapi.Config{
		Ingest:  ingest,
		Query:   query,
		Catalog: catalog,
		Probes: map[string]httpapi.Pinger{
			"ollama": llm,
			"qdrant": qdrantProbe{store},
		},
	})

	watch := watcher.New(ingest, extractors.SupportedExtensions())

	cli.Configure(cli.Services{
		Ingest:  ingest,
		Query:   query,
		Catalog: catalog,
		Serve:   server.Run,
		Watch: func(dir string) error {
			return watch.Watch(context.Background(), dir)
		},
		Version: version,
	})

	return cli.Execute()
}

// qdrantProbe adapts the vector store's Count to the health Pinger.
type qdrantProbe struct {
	store *qdrant.Store
}

func (p qdrantProbe) Ping(ctx context.Context) error {
	_, err := p.store.Count(ctx)
	return err
}
