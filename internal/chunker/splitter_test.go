package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentences(minLen int) string {
	var b strings.Builder
	for i := 0; b.Len() < minLen; i++ {
		fmt.Fprintf(&b, "Sentence number %03d is here. ", i)
	}
	return b.String()
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"defaults", 1000, 200, false},
		{"no overlap", 10, 0, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 10, -1, true},
		{"overlap equals size", 10, 10, true},
		{"overlap exceeds size", 10, 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.size, tt.overlap)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func split(t *testing.T, s *Splitter, text string) []string {
	t.Helper()
	chunks, err := s.Split(text)
	require.NoError(t, err)
	return chunks
}

func TestSplit_Empty(t *testing.T) {
	s, err := New(100, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{}, split(t, s, ""))
	assert.Empty(t, split(t, s, "  \n\n \n  "))
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s, err := New(100, 10)
	require.NoError(t, err)

	chunks := split(t, s, "  First paragraph.\n\nSecond paragraph.  ")
	assert.Equal(t, []string{"First paragraph.\n\nSecond paragraph."}, chunks)
}

func TestSplit_LongTextWithOverlap(t *testing.T) {
	text := sentences(2500)
	require.GreaterOrEqual(t, len(text), 2500)

	s, err := New(1000, 200)
	require.NoError(t, err)

	chunks := split(t, s, text)
	require.GreaterOrEqual(t, len(chunks), 3)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 1000, "chunk %d too long", i)
		assert.NotEmpty(t, c)
	}
	for i := 1; i < len(chunks); i++ {
		head := chunks[i][:150]
		assert.Contains(t, chunks[i-1], head, "chunk %d should start with text carried over from chunk %d", i, i-1)
	}

	assert.True(t, strings.HasPrefix(chunks[0], "Sentence number 000"))
	assert.Contains(t, chunks[len(chunks)-1], strings.TrimSpace(text[len(text)-40:]))
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	s, err := New(300, 50)
	require.NoError(t, err)

	// The ". " separator stays at the start of the piece that follows it.
	for i, c := range split(t, s, sentences(3000)) {
		body := strings.TrimSuffix(strings.TrimPrefix(c, ". "), ".")
		assert.True(t, strings.HasPrefix(body, "Sentence number"), "chunk %d starts mid-sentence: %q", i, c[:20])
		assert.True(t, strings.HasSuffix(body, "is here"), "chunk %d ends mid-sentence: %q", i, c[len(c)-20:])
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := sentences(5000)
	s, err := New(300, 50)
	require.NoError(t, err)

	assert.Equal(t, split(t, s, text), split(t, s, text))
}

func TestSplit_WordLevel(t *testing.T) {
	s, err := New(20, 5)
	require.NoError(t, err)

	words := []string{"aaaa", "bbbb", "cccc", "dddd", "eeee", "ffff"}
	chunks := split(t, s, strings.Join(words, " "))
	require.GreaterOrEqual(t, len(chunks), 2)

	var seen []string
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 20, "chunk %d too long", i)
		for _, w := range strings.Fields(c) {
			assert.Contains(t, words, w, "chunk %d split a word", i)
			if len(seen) == 0 || w > seen[len(seen)-1] {
				seen = append(seen, w)
			}
		}
	}
	assert.Equal(t, words, seen, "every word must appear in order")
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		assert.Equal(t, prev[len(prev)-1], strings.Fields(chunks[i])[0], "chunk %d should repeat the last word of chunk %d", i, i-1)
	}
}

func TestSplit_CharacterFallback(t *testing.T) {
	s, err := New(4, 1)
	require.NoError(t, err)

	chunks := split(t, s, "abcdefghij")
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len(c), 4, "chunk %d too long", i)
	}
	assert.True(t, strings.HasPrefix(chunks[0], "abc"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "ij"))
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		assert.Equal(t, prev[len(prev)-1], chunks[i][0], "chunk %d should overlap chunk %d by one character", i, i-1)
	}
}

func TestSplit_CountsRunes(t *testing.T) {
	s, err := New(4, 0)
	require.NoError(t, err)

	text := "日本語のテキスト"
	chunks := split(t, s, text)
	require.Len(t, chunks, 2, "eight runes fit in two chunks of four")
	for _, c := range chunks {
		assert.Equal(t, 4, utf8.RuneCountInString(c))
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_ParagraphsPreferred(t *testing.T) {
	para := strings.Repeat("word ", 15)
	text := strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para) + "\n\n" + strings.TrimSpace(para)

	s, err := New(100, 0)
	require.NoError(t, err)

	chunks := split(t, s, text)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, strings.TrimSpace(para), c)
	}
}
