// Package words provides the round word source: a newline-delimited
// word list read lazily from disk, returning one uniformly random
// entry per call.
package words

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Provider loads its file on first use and caches the parsed list. A
// failed load is retried on the next call, so a fixed word file heals
// the session without a restart.
type Provider struct {
	path string

	mu    sync.Mutex
	words []string
}

func NewProvider(path string) *Provider {
	return &Provider{path: path}
}

// Next returns one random word. Words may repeat across calls.
func (p *Provider) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.words == nil {
		words, err := load(p.path)
		if err != nil {
			return "", err
		}
		p.words = words
		log.Info().Str("file", p.path).Int("count", len(words)).Msg("word list loaded")
	}
	return p.words[rand.Intn(len(p.words))], nil
}

func load(path string) ([]string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read word list: %w", err)
	}
	var words []string
	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			words = append(words, line)
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list %s contains no words", path)
	}
	return words, nil
}
