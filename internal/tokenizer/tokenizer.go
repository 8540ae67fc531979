// Package tokenizer counts tokens the way the embedding and completion
// models see them. BPE ranks are read from files embedded in the binary, so
// counts do not depend on network access. An unknown encoding falls back to
// a character heuristic.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/kanak8278/IBC-RAG/internal/logger"
)

const (
	// DefaultEncoding is the BPE encoding used by current OpenAI models
	DefaultEncoding = "cl100k_base"

	// charsPerToken approximates English text under cl100k_base
	charsPerToken = 4
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter counts tokens in text
type Counter interface {
	Count(text string) int
}

// Tiktoken counts tokens with a BPE encoding.
type Tiktoken struct {
	mu       sync.Mutex
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTiktoken loads the named encoding.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc, encoding: encoding}, nil
}

// Encoding returns the encoding name
func (t *Tiktoken) Encoding() string {
	return t.encoding
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// Heuristic estimates tokens as one per four characters, rounding up.
type Heuristic struct{}

// Count returns the estimated token count.
func (Heuristic) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + charsPerToken - 1) / charsPerToken
}

// Words counts whitespace-separated words. Useful where a stable,
// encoding-independent count is wanted.
type Words struct{}

// Count returns the number of words in text.
func (Words) Count(text string) int {
	return len(strings.Fields(text))
}

var (
	defaultOnce    sync.Once
	defaultCounter Counter
)

// New returns a BPE counter for encoding, falling back to the heuristic
// when the encoding cannot be loaded.
func New(encoding string) Counter {
	t, err := NewTiktoken(encoding)
	if err != nil {
		logger.Warn("tokenizer: %v; using character estimate", err)
		return Heuristic{}
	}
	return t
}

// Default returns a process-wide counter for DefaultEncoding.
func Default() Counter {
	defaultOnce.Do(func() {
		defaultCounter = New(DefaultEncoding)
	})
	return defaultCounter
}
