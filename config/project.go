package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ZaguanLabs/locsync"
)

// DefaultFile is the project file looked up in the working directory.
const DefaultFile = "locsync.toml"

// LangPlaceholder is replaced by the language id in Project.Output.
const LangPlaceholder = "{lang}"

// Project is the content of a locsync.toml file.
//
//	source = "locales/en.json"
//	source_lang = "en"
//	output = "locales/{lang}.json"
//	languages = ["fr", "de"]
//
//	[glossary]
//	"Dashboard" = "Tableau de bord"
//
//	[[target]]
//	lang = "pt-BR"
//	path = "locales/brazil.json"
type Project struct {
	Source         string            `toml:"source"`
	SourceLang     string            `toml:"source_lang"`
	Baseline       string            `toml:"baseline"`
	Revision       string            `toml:"revision"`
	SnapshotSuffix string            `toml:"snapshot_suffix"`
	Output         string            `toml:"output"`
	Languages      []string          `toml:"languages"`
	Targets        []Target          `toml:"target"`
	Prune          bool              `toml:"prune"`
	KeepGoing      bool              `toml:"keep_going"`
	Parallel       int               `toml:"parallel"`
	Context        string            `toml:"context"`
	Style          string            `toml:"style"`
	Exclude        []string          `toml:"exclude"`
	Glossary       map[string]string `toml:"glossary"`

	dir string
}

// Target is one translated document.
type Target struct {
	Lang string `toml:"lang"`
	Path string `toml:"path"`
}

// LoadProject decodes the project file at path. Relative paths inside it are
// resolved against the file's directory. A missing file is reported as a
// ConfigurationError wrapping fs.ErrNotExist.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &locsync.ConfigurationError{Message: "project file " + path + " not found", Cause: err}
	}
	if err != nil {
		return nil, &locsync.ConfigurationError{Message: "reading project file " + path, Cause: err}
	}

	p, err := ParseProject(string(data))
	if err != nil {
		return nil, err
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// ParseProject decodes a project file. Unknown keys are rejected.
func ParseProject(data string) (*Project, error) {
	var p Project
	md, err := toml.Decode(data, &p)
	if err != nil {
		return nil, &locsync.ConfigurationError{Message: "parsing project file", Cause: err}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &locsync.ConfigurationError{Message: "unknown keys in project file: " + strings.Join(keys, ", ")}
	}
	return &p, nil
}

// Validate checks the settings that do not depend on the target list.
func (p *Project) Validate() error {
	if p.Source == "" {
		return &locsync.ConfigurationError{Message: "no source document"}
	}
	switch p.Baseline {
	case "", "sibling", "git":
	default:
		return &locsync.ConfigurationError{Message: fmt.Sprintf("unknown baseline %q", p.Baseline)}
	}
	if _, ok := locsync.ParseStyle(p.Style); !ok {
		return &locsync.ConfigurationError{Message: fmt.Sprintf("unknown style %q", p.Style)}
	}
	if p.Parallel < 0 {
		return &locsync.ConfigurationError{Message: "parallel must not be negative"}
	}
	if p.SourceLang != "" {
		lang, err := locsync.CanonicalLanguage(p.SourceLang)
		if err != nil {
			return err
		}
		p.SourceLang = lang
	}
	return nil
}

// SourcePath returns the source document path resolved against the project directory.
func (p *Project) SourcePath() string {
	return p.resolve(p.Source)
}

// Resolve returns the translated documents to maintain: the explicit
// [[target]] entries followed by Languages expanded through Output. Language
// ids are canonicalised and each language appears once.
func (p *Project) Resolve() ([]Target, error) {
	if len(p.Languages) > 0 && p.Output == "" {
		return nil, &locsync.ConfigurationError{Message: "languages need an output pattern"}
	}
	if p.Output != "" && !strings.Contains(p.Output, LangPlaceholder) {
		return nil, &locsync.ConfigurationError{Message: "output pattern " + p.Output + " has no " + LangPlaceholder}
	}

	byLang := make(map[string]string)
	var out []Target
	add := func(lang, path string) error {
		id, err := locsync.CanonicalLanguage(lang)
		if err != nil {
			return err
		}
		if path == "" {
			return &locsync.ConfigurationError{Message: "target " + id + " has no path"}
		}
		path = p.resolve(path)
		if prev, ok := byLang[id]; ok {
			if prev != path {
				return &locsync.ConfigurationError{Message: fmt.Sprintf("target %s has two paths: %s and %s", id, prev, path)}
			}
			return nil
		}
		byLang[id] = path
		out = append(out, Target{Lang: id, Path: path})
		return nil
	}

	for _, t := range p.Targets {
		if err := add(t.Lang, t.Path); err != nil {
			return nil, err
		}
	}
	for _, lang := range p.Languages {
		id, err := locsync.CanonicalLanguage(lang)
		if err != nil {
			return nil, err
		}
		if _, ok := byLang[id]; ok {
			continue
		}
		if err := add(id, strings.ReplaceAll(p.Output, LangPlaceholder, id)); err != nil {
			return nil, err
		}
	}

	if len(out) == 0 {
		return nil, &locsync.ConfigurationError{Message: "no target languages"}
	}
	return out, nil
}

// Langs returns the language ids of targets.
func Langs(targets []Target) []string {
	langs := make([]string, len(targets))
	for i, t := range targets {
		langs[i] = t.Lang
	}
	return langs
}

func (p *Project) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || p.dir == "" {
		return path
	}
	return filepath.Join(p.dir, path)
}
