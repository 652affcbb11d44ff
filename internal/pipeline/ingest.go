// Package pipeline drives document ingestion: parse, chunk, embed with
// cache, and upload to the index, one file at a time.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhayv/azure-rag-app/internal/chunker"
	"github.com/dhayv/azure-rag-app/internal/parser"
	"github.com/dhayv/azure-rag-app/internal/search"
)

// Uploader is the slice of the index client the driver needs.
type Uploader interface {
	Upload(ctx context.Context, docs []search.Document) error
}

// Ingestor walks a corpus directory and ingests each markdown file. Failure
// isolation is per document: a bad file is logged and skipped, never
// aborting the run.
type Ingestor struct {
	embedder *Embedder
	uploader Uploader
	splitter *chunker.Splitter
	docType  string
	pause    time.Duration
	log      *slog.Logger
}

func NewIngestor(embedder *Embedder, uploader Uploader, splitter *chunker.Splitter, docType string, pause time.Duration, log *slog.Logger) *Ingestor {
	return &Ingestor{
		embedder: embedder,
		uploader: uploader,
		splitter: splitter,
		docType:  docType,
		pause:    pause,
		log:      log,
	}
}

// Summary aggregates one ingestion run.
type Summary struct {
	Files    int
	Uploaded int
	Failed   []string
}

// Run ingests every .md file under root in sorted order. The returned error
// covers only directory access; per-document failures land in the summary.
func (in *Ingestor) Run(ctx context.Context, root string) (Summary, error) {
	log := in.log.With("run_id", uuid.NewString())

	paths, err := listMarkdown(root)
	if err != nil {
		return Summary{}, fmt.Errorf("scan %s: %w", root, err)
	}
	log.Info("starting ingestion", "root", root, "files", len(paths))

	summary := Summary{Files: len(paths)}
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		docs, err := in.processFile(ctx, path)
		if err != nil {
			log.Error("skipping document", "path", path, "error", err)
			summary.Failed = append(summary.Failed, path)
			continue
		}
		if err := in.uploader.Upload(ctx, docs); err != nil {
			log.Error("upload failed", "path", path, "error", err)
			summary.Failed = append(summary.Failed, path)
			continue
		}
		summary.Uploaded += len(docs)
		log.Info("ingested document", "path", path, "chunks", len(docs))

		// Courtesy pause between files.
		if i < len(paths)-1 && in.pause > 0 {
			time.Sleep(in.pause)
		}
	}

	log.Info("ingestion complete", "files", summary.Files, "uploaded", summary.Uploaded, "failed", len(summary.Failed))
	return summary, nil
}

// processFile turns one file into index records: parse front matter, chunk
// the body, and embed each chunk through the cache.
func (in *Ingestor) processFile(ctx context.Context, path string) ([]search.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	doc, err := parser.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	chunks := in.splitter.Split(doc.Body)
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := in.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	slug := slugFromPath(path)
	topics := doc.Topics
	if topics == nil {
		topics = []string{}
	}

	records := make([]search.Document, len(chunks))
	for i, text := range chunks {
		records[i] = search.Document{
			ID:            fmt.Sprintf("%s-chunk%d", slug, i),
			Content:       text,
			ContentVector: vectors[i],
			Source:        doc.Source,
			Title:         doc.Title,
			Topics:        topics,
			CapturedAt:    doc.CapturedAt,
			License:       doc.License,
			Attribution:   doc.Attribution,
			ChunkIndex:    i,
			DocType:       in.docType,
		}
	}
	return records, nil
}

func listMarkdown(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func slugFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
