// internal/export/exporter.go
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/finrag/internal/core"
	"go.uber.org/zap"
)

// KeyPrefix is the directory chunk batches are written under.
const KeyPrefix = "chunks/"

// Exporter writes chunk batches as JSON Lines, one chunk per line.
type Exporter struct {
	storage Storage
	logger  *zap.Logger
	now     func() time.Time
	newID   func() uuid.UUID
}

// NewExporter creates an exporter over storage.
func NewExporter(storage Storage, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		storage: storage,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.New,
	}
}

// BatchKey returns the key for a batch exported at t. Keys sort by export
// time; the id suffix keeps batches written in the same millisecond apart.
func BatchKey(t time.Time, id uuid.UUID) string {
	return fmt.Sprintf("%s%s-%s.jsonl", KeyPrefix, t.UTC().Format("20060102T150405.000Z"), id.String()[:8])
}

// Export writes chunks as a new batch and returns its key.
func (e *Exporter) Export(ctx context.Context, chunks []core.Chunk) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, c := range chunks {
		if err := enc.Encode(c); err != nil {
			return "", core.WrapError(core.ErrExportFailed, fmt.Errorf("encoding chunk %s: %w", c.ID, err))
		}
	}

	key := BatchKey(e.now(), e.newID())
	if err := e.storage.Write(ctx, key, buf.Bytes()); err != nil {
		return "", core.WrapError(core.ErrExportFailed, fmt.Errorf("writing %s: %w", key, err))
	}

	e.logger.Info("exported chunks",
		zap.String("key", key),
		zap.Int("chunks", len(chunks)))
	return key, nil
}

// Load reads a batch written by Export. A missing batch is ErrNoData.
func (e *Exporter) Load(ctx context.Context, key string) ([]core.Chunk, error) {
	ok, err := e.storage.Exists(ctx, key)
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("checking %s: %w", key, err))
	}
	if !ok {
		return nil, core.Errorf(core.ErrNoData, "batch not found: %s", key)
	}

	data, err := e.storage.Read(ctx, key)
	if err != nil {
		return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("reading %s: %w", key, err))
	}

	chunks := []core.Chunk{}
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var c core.Chunk
		err := dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrExportFailed, fmt.Errorf("decoding %s: %w", key, err))
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// Batches lists the exported batch keys, oldest first.
func (e *Exporter) Batches(ctx context.Context) ([]string, error) {
	return e.storage.List(ctx, KeyPrefix)
}
