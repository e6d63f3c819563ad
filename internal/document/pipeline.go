package document

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/google/uuid"
	"github.com/newthinker/finrag/internal/chunker"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Document outcomes recorded in metrics.
const (
	StatusProcessed = "processed"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// Pipeline extracts and chunks documents.
type Pipeline struct {
	extractor *Extractor
	splitter  *chunker.Splitter
	workers   int
	logger    *zap.Logger
	metrics   *metrics.Registry
}

// NewPipeline creates a pipeline. workers bounds the number of files
// processed at once; values below 1 use GOMAXPROCS.
func NewPipeline(extractor *Extractor, splitter *chunker.Splitter, workers int, logger *zap.Logger, reg *metrics.Registry) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = NewExtractor()
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{
		extractor: extractor,
		splitter:  splitter,
		workers:   workers,
		logger:    logger,
		metrics:   reg,
	}
}

// ChunkID returns the stable identifier of the index-th chunk of path.
func ChunkID(path string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path+"#"+strconv.Itoa(index))).String()
}

// ProcessDocument extracts and chunks a single file. Extraction failures are
// logged and yield no chunks.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) []core.Chunk {
	if err := ctx.Err(); err != nil {
		p.logger.Debug("skipping document", zap.String("path", path), zap.Error(err))
		return []core.Chunk{}
	}

	text, err := p.extractor.Extract(path)
	if err != nil {
		p.logger.Warn("extracting document", zap.String("path", path), zap.Error(err))
		p.metrics.RecordDocument(StatusFailed, 0)
		return []core.Chunk{}
	}

	pieces, err := p.splitter.Split(text)
	if err != nil {
		p.logger.Warn("chunking document", zap.String("path", path), zap.Error(err))
		p.metrics.RecordDocument(StatusFailed, 0)
		return []core.Chunk{}
	}
	if len(pieces) == 0 {
		p.logger.Debug("no text in document", zap.String("path", path))
		p.metrics.RecordDocument(StatusEmpty, 0)
		return []core.Chunk{}
	}

	source := filepath.Base(path)
	chunks := make([]core.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = core.Chunk{
			ID:      ChunkID(path, i),
			Content: content,
			Metadata: core.ChunkMetadata{
				Source:      source,
				ChunkID:     i,
				TotalChunks: len(pieces),
				FilePath:    path,
			},
		}
	}

	p.logger.Info("processed document",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)))
	p.metrics.RecordDocument(StatusProcessed, len(chunks))
	return chunks
}

// ProcessDirectory chunks every supported file under dir. Files are visited in
// lexical order and their chunks are concatenated in that order, even though
// files are processed concurrently. Per-file failures are logged and skipped.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string) ([]core.Chunk, error) {
	if _, err := os.ReadDir(dir); err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			p.logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && Supported(path) {
			files = append(files, path)
		}
		return ctx.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	results := make([][]core.Chunk, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.ProcessDocument(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, r := range results {
		total += len(r)
	}
	all := make([]core.Chunk, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}

	p.logger.Info("processed directory",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("chunks", len(all)))
	return all, nil
}
