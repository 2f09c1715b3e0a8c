package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptClassifySlide: `You classify one slide of a startup pitch deck.

Choose exactly one category from:
COVER, PROBLEM, SOLUTION, PRODUCT, MARKET, BUSINESS_MODEL, TRACTION, COMPETITION, TEAM, FINANCE, ASK, OTHER

Return a JSON object with these fields:
- "category": one of the categories above
- "confidence": a number between 0 and 1
- "short_summary": one sentence, at most 200 characters, using only facts on the slide
- "key_claims": up to 5 short claims quoted or closely paraphrased from the slide

Slide:
%s`,

	driven.PromptReviewCoverage: `You check whether pitch deck slides satisfy one rubric item.

Judge only from the evidence given. Do not assume facts that are not written on the slides.
A slide that mentions the topic in passing without substance is not relevant.

Return a JSON object with these fields:
- "is_relevant": true if the evidence satisfies the item
- "confidence": a number between 0 and 1

Input:
%s`,

	driven.PromptGroupFeedback: `You give feedback on one section of a startup pitch deck.

The input lists the rubric items of the section with their coverage status and
the summary of the best matching slide, plus the items that were not found.
Write two or three sentences for the founder. Mention what is present, then what
to add or strengthen. Refer only to the evidence provided.

Return a JSON object with these fields:
- "feedback": the feedback text
- "confidence": a number between 0 and 1

Input:
%s`,

	driven.PromptStructureSummary: `You summarise the structure of a startup pitch deck.

The input lists every scored section with its coverage status and score.
Write three or four sentences: the overall shape of the deck, its strongest
sections, and the most important gaps for this kind of pitch.

Return a JSON object with one field:
- "summary": the summary text

Input:
%s`,
}

// DefaultPromptNames returns the names of the built-in prompts in sorted order.
func DefaultPromptNames() []string {
	names := make([]string, 0, len(defaultPrompts))
	for name := range defaultPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.deckscore/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, defaultDirName, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Falls back to the embedded default if the file is missing or unreadable.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// No lock is held during file I/O.
	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		if err == nil {
			err = os.ErrNotExist
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	var files strings.Builder
	for _, name := range DefaultPromptNames() {
		files.WriteString("- `" + name + ".txt`\n")
	}

	content := `# deckscore prompts

This directory contains the prompts used when an LLM provider is configured.

## Files

` + files.String() + `
## Customisation

Edit any file to change how slides are classified, how borderline evidence is
reviewed, and how feedback is written. Changes take effect on the next run.
Delete a file to restore its default.

Every prompt must keep exactly one ` + "`%s`" + ` placeholder, which receives the
slide text or a JSON payload. The model must answer with a JSON object using
the field names listed in the default prompt.
`
	return os.WriteFile(path, []byte(content), 0600)
}
