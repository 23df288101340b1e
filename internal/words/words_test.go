package words

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeList(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestNextReturnsListedWord(t *testing.T) {
	path := writeList(t, "otter\nwalrus\ngecko\n")
	p := NewProvider(path)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		word, err := p.Next()
		require.NoError(t, err)
		assert.Contains(t, []string{"otter", "walrus", "gecko"}, word)
		seen[word] = true
	}
	// 50 uniform draws from 3 words should hit more than one
	assert.Greater(t, len(seen), 1)
}

func TestBlankLinesAndWhitespaceSkipped(t *testing.T) {
	path := writeList(t, "\n  otter  \r\n\n\n")
	p := NewProvider(path)

	word, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "otter", word)
}

func TestMissingFile(t *testing.T) {
	p := NewProvider(filepath.Join(t.TempDir(), "nope.txt"))
	_, err := p.Next()
	assert.Error(t, err)
}

func TestEmptyFile(t *testing.T) {
	p := NewProvider(writeList(t, "\n\n"))
	_, err := p.Next()
	assert.ErrorContains(t, err, "no words")
}

func TestFailedLoadRetries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.txt")
	p := NewProvider(path)

	_, err := p.Next()
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("walrus\n"), 0644))
	word, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "walrus", word)
}
