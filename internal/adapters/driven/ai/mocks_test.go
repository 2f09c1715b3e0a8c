package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/deckscore/internal/core/ports/driven"
)

// stubLLM returns queued responses in order; the last one repeats.
type stubLLM struct {
	mu        sync.Mutex
	model     string
	responses []string
	errs      []error
	prompts   []string
	opts      []driven.GenerateOptions
	closed    bool
}

func (s *stubLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	var err error
	if len(s.errs) > 0 {
		err = s.errs[min(i, len(s.errs)-1)]
	}
	if err != nil {
		return "", err
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	return s.responses[min(i, len(s.responses)-1)], nil
}

func (s *stubLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("no messages")
	}
	return s.Generate(ctx, messages[len(messages)-1].Content, driven.GenerateOptions{
		MaxTokens: opts.MaxTokens, Temperature: opts.Temperature, JSON: opts.JSON,
	})
}

func (s *stubLLM) ModelName() string { return s.model }

func (s *stubLLM) Ping(_ context.Context) error { return nil }

func (s *stubLLM) Close() error {
	s.closed = true
	return nil
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *stubLLM) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[len(s.prompts)-1]
}

func (s *stubLLM) lastOpts() driven.GenerateOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts[len(s.opts)-1]
}

// stubPrompts serves templates by name, or "<name>: %s" when unset.
type stubPrompts struct {
	templates map[string]string
	err       error
}

func (p *stubPrompts) Load(name string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if t, ok := p.templates[name]; ok {
		return t, nil
	}
	return fmt.Sprintf("%s: %%s", name), nil
}

func (p *stubPrompts) Reload() {}

type stubEmbedding struct {
	mu      sync.Mutex
	vectors [][]float32
	errs    []error
	calls   int
	closed  bool
}

func (e *stubEmbedding) next() ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.calls
	e.calls++
	if len(e.errs) > 0 {
		if err := e.errs[min(i, len(e.errs)-1)]; err != nil {
			return nil, err
		}
	}
	if len(e.vectors) == 0 {
		return nil, nil
	}
	return e.vectors[min(i, len(e.vectors)-1)], nil
}

func (e *stubEmbedding) Embed(_ context.Context, _ string) ([]float32, error) {
	return e.next()
}

func (e *stubEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	v, err := e.next()
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (e *stubEmbedding) Dimensions() int { return 3 }

func (e *stubEmbedding) ModelName() string { return "stub-embed" }

func (e *stubEmbedding) Ping(_ context.Context) error { return nil }

func (e *stubEmbedding) Close() error {
	e.closed = true
	return nil
}

// recordingObserver collects call observations.
type recordingObserver struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (o *recordingObserver) ObserveCall(op string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
	o.errs = append(o.errs, err)
}
