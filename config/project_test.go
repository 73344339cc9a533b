package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaguanLabs/locsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `
source = "locales/en.json"
source_lang = "en"
baseline = "git"
revision = "main"
output = "locales/{lang}.json"
languages = ["fr", "de", "es-ES"]
prune = true
parallel = 4
context = "Settings screen of a photo app"
style = "casual"
exclude = ["PhotoBox"]

[glossary]
"Album" = "Album"

[[target]]
lang = "pt-BR"
path = "brazil/strings.json"
`

func TestParseProject(t *testing.T) {
	p, err := ParseProject(sampleProject)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, "locales/en.json", p.Source)
	assert.Equal(t, "en", p.SourceLang)
	assert.Equal(t, "git", p.Baseline)
	assert.Equal(t, "main", p.Revision)
	assert.True(t, p.Prune)
	assert.False(t, p.KeepGoing)
	assert.Equal(t, 4, p.Parallel)
	assert.Equal(t, "casual", p.Style)
	assert.Equal(t, []string{"PhotoBox"}, p.Exclude)
	assert.Equal(t, map[string]string{"Album": "Album"}, p.Glossary)

	targets, err := p.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []Target{
		{Lang: "pt_BR", Path: "brazil/strings.json"},
		{Lang: "fr", Path: "locales/fr.json"},
		{Lang: "de", Path: "locales/de.json"},
		{Lang: "es_ES", Path: "locales/es_ES.json"},
	}, targets)
	assert.Equal(t, []string{"pt_BR", "fr", "de", "es_ES"}, Langs(targets))
}

func TestParseProject_UnknownKey(t *testing.T) {
	_, err := ParseProject("source = \"en.json\"\nlanguage = [\"fr\"]\n")
	require.Error(t, err)
	assert.True(t, locsync.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "language")
}

func TestParseProject_Syntax(t *testing.T) {
	_, err := ParseProject("source = ")
	assert.True(t, locsync.IsConfigurationError(err))
}

func TestProject_Validate(t *testing.T) {
	tests := []struct {
		name    string
		project Project
	}{
		{"no source", Project{}},
		{"bad baseline", Project{Source: "en.json", Baseline: "svn"}},
		{"bad style", Project{Source: "en.json", Style: "poetic"}},
		{"negative parallel", Project{Source: "en.json", Parallel: -1}},
		{"bad source lang", Project{Source: "en.json", SourceLang: "not a language"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			assert.True(t, locsync.IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestProject_ValidateCanonicalisesSourceLang(t *testing.T) {
	p := Project{Source: "en.json", SourceLang: "en-gb"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "en_GB", p.SourceLang)
}

func TestProject_Resolve(t *testing.T) {
	t.Run("languages without output", func(t *testing.T) {
		p := Project{Languages: []string{"fr"}}
		_, err := p.Resolve()
		assert.True(t, locsync.IsConfigurationError(err))
	})

	t.Run("output without placeholder", func(t *testing.T) {
		p := Project{Languages: []string{"fr"}, Output: "out.json"}
		_, err := p.Resolve()
		assert.True(t, locsync.IsConfigurationError(err))
	})

	t.Run("no targets", func(t *testing.T) {
		_, err := (&Project{}).Resolve()
		assert.True(t, locsync.IsConfigurationError(err))
	})

	t.Run("invalid language", func(t *testing.T) {
		p := Project{Languages: []string{"fr", "??"}, Output: "{lang}.json"}
		_, err := p.Resolve()
		assert.True(t, locsync.IsConfigurationError(err))
	})

	t.Run("target without path", func(t *testing.T) {
		p := Project{Targets: []Target{{Lang: "fr"}}}
		_, err := p.Resolve()
		assert.True(t, locsync.IsConfigurationError(err))
	})

	t.Run("conflicting paths", func(t *testing.T) {
		p := Project{Targets: []Target{{Lang: "fr", Path: "a.json"}, {Lang: "fr", Path: "b.json"}}}
		_, err := p.Resolve()
		assert.True(t, locsync.IsConfigurationError(err))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		p := Project{
			Targets:   []Target{{Lang: "fr", Path: "custom/fr.json"}},
			Languages: []string{"fr", "FR", "de", "de"},
			Output:    "{lang}.json",
		}
		targets, err := p.Resolve()
		require.NoError(t, err)
		assert.Equal(t, []Target{
			{Lang: "fr", Path: "custom/fr.json"},
			{Lang: "de", Path: "de.json"},
		}, targets)
	})
}

func TestLoadProject_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(sampleProject), 0o644))

	p, err := LoadProject(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "locales", "en.json"), p.SourcePath())

	targets, err := p.Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "brazil", "strings.json"), targets[0].Path)
	assert.Equal(t, filepath.Join(dir, "locales", "fr.json"), targets[1].Path)
}

func TestLoadProject_Missing(t *testing.T) {
	_, err := LoadProject(filepath.Join(t.TempDir(), DefaultFile))
	require.Error(t, err)
	assert.True(t, locsync.IsConfigurationError(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
