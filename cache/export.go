package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FormatVersion is written into every export.
const FormatVersion = "1"

// ExportFormat is the JSON document written by Exporter.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry is a single cache entry.
type ExportEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Exporter writes the live entries of a cache as JSON.
type Exporter struct {
	cache ExportableCache
	now   func() time.Time
}

// NewExporter creates a new cache exporter.
func NewExporter(cache ExportableCache) *Exporter {
	return &Exporter{cache: cache, now: time.Now}
}

// Export writes the cache contents to w. Entries are sorted by key so that
// exports of the same cache compare equal.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) (int, error) {
	data, err := e.cache.Entries()
	if err != nil {
		return 0, fmt.Errorf("listing cache entries: %w", err)
	}

	entries := make([]ExportEntry, 0, len(data))
	for k, v := range data {
		entries = append(entries, ExportEntry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	err = enc.Encode(ExportFormat{
		Version:    FormatVersion,
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	})
	if err != nil {
		return 0, fmt.Errorf("encoding cache export: %w", err)
	}
	return len(entries), nil
}

// ExportToFile writes the export next to path and renames it into place.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) (int, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".locsync-cache-*")
	if err != nil {
		return 0, fmt.Errorf("creating cache file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	n, err := e.Export(f, metadata)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("replacing cache file: %w", err)
	}
	return n, nil
}

// Importer loads exported entries into a cache.
type Importer struct {
	cache TranslationCache
}

// NewImporter creates a new cache importer.
func NewImporter(cache TranslationCache) *Importer {
	return &Importer{cache: cache}
}

// ImportResult contains statistics about the import operation.
type ImportResult struct {
	Version  string
	Metadata map[string]string
	Imported int
	Failed   int
}

// Import reads an export from r. Entries the cache refuses are counted in
// Failed and do not stop the import.
func (i *Importer) Import(r io.Reader) (*ImportResult, error) {
	var doc ExportFormat
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding cache export: %w", err)
	}

	res := &ImportResult{Version: doc.Version, Metadata: doc.Metadata}
	for _, entry := range doc.Entries {
		if err := i.cache.Set(entry.Key, entry.Value); err != nil {
			res.Failed++
			continue
		}
		res.Imported++
	}
	return res, nil
}

// ImportFromFile imports path. A missing file is not an error and imports nothing.
func (i *Importer) ImportFromFile(path string) (*ImportResult, error) {
	f, err := os.Open(path) // #nosec G304 - path is user-provided
	if errors.Is(err, fs.ErrNotExist) {
		return &ImportResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	return i.Import(f)
}
