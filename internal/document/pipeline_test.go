package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newthinker/finrag/internal/chunker"
	"github.com/newthinker/finrag/internal/core"
	"github.com/newthinker/finrag/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longText(words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	return b.String()
}

func newTestPipeline(t *testing.T, size, overlap, workers int) *Pipeline {
	t.Helper()
	s, err := chunker.New(size, overlap)
	require.NoError(t, err)
	return NewPipeline(nil, s, workers, nil, metrics.NewRegistry())
}

func assertContiguous(t *testing.T, chunks []core.Chunk) {
	t.Helper()
	for i, c := range chunks {
		assert.Equal(t, i, c.Metadata.ChunkID)
		assert.Equal(t, len(chunks), c.Metadata.TotalChunks)
	}
}

func TestPipeline_ProcessDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "annual.txt"), longText(300))

	p := newTestPipeline(t, 200, 40, 2)
	chunks := p.ProcessDocument(context.Background(), path)

	require.Greater(t, len(chunks), 1)
	assertContiguous(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, "annual.txt", c.Metadata.Source)
		assert.Equal(t, path, c.Metadata.FilePath)
		assert.LessOrEqual(t, len([]rune(c.Content)), 200)
		assert.Equal(t, ChunkID(path, c.Metadata.ChunkID), c.ID)
	}
}

func TestPipeline_ProcessDocument_DeterministicIDs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "annual.txt"), longText(100))

	p := newTestPipeline(t, 200, 40, 1)
	first := p.ProcessDocument(context.Background(), path)
	second := p.ProcessDocument(context.Background(), path)
	assert.Equal(t, first, second)

	assert.NotEqual(t, ChunkID(path, 0), ChunkID(path, 1))
	assert.NotEqual(t, ChunkID("a.txt", 0), ChunkID("b.txt", 0))
}

func TestPipeline_ProcessDocument_EmptyAndUnsupported(t *testing.T) {
	dir := t.TempDir()
	p := newTestPipeline(t, 100, 10, 1)

	empty := writeFile(t, filepath.Join(dir, "empty.txt"), "   \n\n  ")
	assert.Empty(t, p.ProcessDocument(context.Background(), empty))

	csv := writeFile(t, filepath.Join(dir, "data.csv"), longText(50))
	assert.Empty(t, p.ProcessDocument(context.Background(), csv))

	broken := writeFile(t, filepath.Join(dir, "broken.pdf"), "garbage")
	chunks := p.ProcessDocument(context.Background(), broken)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestPipeline_ProcessDocument_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "annual.txt"), longText(300))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chunks := newTestPipeline(t, 200, 40, 1).ProcessDocument(ctx, path)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks, "a cancelled context must not extract the document")
}

func TestPipeline_ProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), longText(120))
	writeFile(t, filepath.Join(dir, "a.txt"), longText(60))
	writeFile(t, filepath.Join(dir, "sub", "c.txt"), longText(80))
	writeFile(t, filepath.Join(dir, "broken.pdf"), "not a pdf")
	writeFile(t, filepath.Join(dir, "ignored.md"), longText(80))

	p := newTestPipeline(t, 150, 30, 4)
	chunks, err := p.ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var order []string
	perFile := map[string][]core.Chunk{}
	for _, c := range chunks {
		if n := len(order); n == 0 || order[n-1] != c.Metadata.Source {
			order = append(order, c.Metadata.Source)
		}
		perFile[c.Metadata.Source] = append(perFile[c.Metadata.Source], c)
	}

	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, order, "lexical traversal order")
	for name, fileChunks := range perFile {
		t.Run(name, func(t *testing.T) {
			assertContiguous(t, fileChunks)
		})
	}
	assert.Equal(t, filepath.Join(dir, "sub", "c.txt"), perFile["c.txt"][0].Metadata.FilePath)
}

func TestPipeline_ProcessDirectory_MatchesSerial(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		writeFile(t, filepath.Join(dir, fmt.Sprintf("doc%02d.txt", i)), longText(40+i*10))
	}

	serial, err := newTestPipeline(t, 120, 20, 1).ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)
	parallel, err := newTestPipeline(t, 120, 20, 8).ProcessDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestPipeline_ProcessDirectory_Empty(t *testing.T) {
	chunks, err := newTestPipeline(t, 100, 10, 1).ProcessDirectory(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPipeline_ProcessDirectory_MissingRoot(t *testing.T) {
	_, err := newTestPipeline(t, 100, 10, 1).ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestPipeline_ProcessDirectory_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), longText(50))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(t, 100, 10, 1).ProcessDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
