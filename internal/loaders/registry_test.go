package loaders

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/deckscore/internal/core/domain"
)

// stubLoader records the paths it was asked to load.
type stubLoader struct {
	exts  []string
	name  string
	paths []string
}

func (s *stubLoader) SupportedExtensions() []string { return s.exts }

func (s *stubLoader) Load(_ context.Context, path string) (*domain.Deck, error) {
	s.paths = append(s.paths, path)
	return &domain.Deck{Metadata: domain.DeckMetadata{Filename: s.name}}, nil
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	assert.Empty(t, r.SupportedExtensions())
}

func TestRegistry_Load(t *testing.T) {
	md := &stubLoader{exts: []string{".md"}, name: "md"}
	r := NewRegistry()
	r.Register(md)

	tests := []struct {
		name     string
		path     string
		wantPath string
		errIs    error
	}{
		{"registered extension", "/decks/a.md", "/decks/a.md", nil},
		{"case insensitive", "/decks/B.MD", "/decks/B.MD", nil},
		{"file uri", "file:///decks/c.md", "/decks/c.md", nil},
		{"unknown extension", "/decks/a.pptx", "", domain.ErrUnsupportedType},
		{"no extension", "/decks/README", "", domain.ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md.paths = nil
			deck, err := r.Load(context.Background(), tt.path)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
				assert.Empty(t, md.paths)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "md", deck.Metadata.Filename)
			assert.Equal(t, []string{tt.wantPath}, md.paths)
		})
	}
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	first := &stubLoader{exts: []string{".txt"}, name: "first"}
	second := &stubLoader{exts: []string{".TXT"}, name: "second"}
	r := NewRegistry()
	r.Register(first)
	r.Register(second)
	r.Register(nil)

	deck, err := r.Load(context.Background(), "deck.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", deck.Metadata.Filename)
	assert.Empty(t, first.paths)
}

func TestRegistry_IsSupported(t *testing.T) {
	r := Default()

	assert.True(t, r.IsSupported("deck.json"))
	assert.True(t, r.IsSupported("file:///tmp/deck.Markdown"))
	assert.False(t, r.IsSupported("deck.pdf"))
}

func TestDefault_SupportedExtensions(t *testing.T) {
	assert.Equal(t,
		[]string{".htm", ".html", ".json", ".markdown", ".md", ".text", ".txt"},
		Default().SupportedExtensions())
}

func TestDefault_LoadsEveryFormat(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.json": `{"pages":[{"text":"Problem"},{"text":"Team"}]}`,
		"b.md":   "# Problem\n---\n# Team",
		"c.txt":  "Problem\fTeam",
		"d.html": "<section>Problem</section><section>Team</section>",
	}
	r := Default()

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

			deck, err := r.Load(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, name, deck.Metadata.Filename)
			require.Len(t, deck.Pages, 2)
			assert.Equal(t, "Problem", deck.Pages[0].Text)
			assert.Equal(t, "Team", deck.Pages[1].Text)
		})
	}
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "/tmp/deck.md", ResolvePath("file:///tmp/deck.md"))
	assert.Equal(t, "deck.md", ResolvePath("deck.md"))
}
