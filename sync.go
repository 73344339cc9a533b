package locsync

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Synchronizer coordinates the Differ and the Merger across target languages.
type Synchronizer struct {
	translator Translator
	merger     *Merger
	prune      bool
	logger     *slog.Logger
	mergeOpts  []MergerOption
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithPruneStale removes keys from translated documents that no longer exist
// in the source. Stale keys are retained by default.
func WithPruneStale() SyncOption {
	return func(s *Synchronizer) {
		s.prune = true
	}
}

// WithKeepGoing skips leaves that fail to translate instead of aborting the language.
func WithKeepGoing() SyncOption {
	return func(s *Synchronizer) {
		s.mergeOpts = append(s.mergeOpts, WithContinueOnError())
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SyncOption {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// NewSynchronizer creates a Synchronizer translating through t.
func NewSynchronizer(t Translator, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		translator: t,
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.merger = NewMerger(t, append(s.mergeOpts, WithMergerLogger(s.logger))...)
	return s
}

// SyncRequest holds the inputs of one synchronization pass.
type SyncRequest struct {
	Current   *Node            // current source document
	Previous  *Node            // source document at the last synchronization
	Existing  map[string]*Node // translated documents by language, entries may be missing
	Languages []string         // target languages
}

// SyncResult is the outcome of a synchronization pass.
type SyncResult struct {
	// Performed is false when nothing changed; Translations is then the
	// request's Existing map and Baseline is nil.
	Performed    bool
	Translations map[string]*Node
	Baseline     *Node // new previous-state snapshot, to be persisted by the caller
	Changes      *ChangeSet
	Languages    map[string]*LanguageResult
}

// LanguageResult describes the work done for one target language.
type LanguageResult struct {
	Lang       string
	Tree       *Node
	Translated int
	Copied     int
	Pruned     int
	Failed     []*TranslationError
	Elapsed    time.Duration
}

// Partial reports whether err only carries the leaves skipped under
// WithKeepGoing. Tree then holds every other translated leaf and can be saved.
func (r *LanguageResult) Partial(err error) bool {
	if r == nil || err == nil || len(r.Failed) == 0 {
		return false
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return false
	}
	errs := joined.Unwrap()
	if len(errs) != len(r.Failed) {
		return false
	}
	for i, e := range errs {
		if e != error(r.Failed[i]) {
			return false
		}
	}
	return true
}

// Synchronize diffs the source documents once and merges the change set into
// the translation of every target language in turn. Languages are validated
// before any translation happens. The first failing language aborts the pass,
// except that under WithKeepGoing a language whose only failures are skipped
// leaves is kept and the pass moves on.
func (s *Synchronizer) Synchronize(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	langs, err := s.ValidateLanguages(req.Languages)
	if err != nil {
		return nil, err
	}

	plan := s.Plan(req.Current, req.Previous)
	if !plan.HasWork() {
		s.logger.InfoContext(ctx, "translations up to date", "languages", len(langs))
		return &SyncResult{
			Translations: req.Existing,
			Changes:      plan.Changes,
		}, nil
	}

	res := &SyncResult{
		Performed:    true,
		Translations: make(map[string]*Node, len(req.Existing)+len(langs)),
		Baseline:     req.Current,
		Changes:      plan.Changes,
		Languages:    make(map[string]*LanguageResult, len(langs)),
	}
	for lang, tree := range req.Existing {
		res.Translations[lang] = tree
	}

	var skipped []error
	for _, lang := range langs {
		lr, err := plan.Apply(ctx, lang, req.Existing[lang])
		if lr != nil {
			res.Languages[lang] = lr
			res.Translations[lang] = lr.Tree
		}
		if err != nil {
			if !lr.Partial(err) {
				return res, errors.Join(append(skipped, err)...)
			}
			skipped = append(skipped, err)
		}
	}
	return res, errors.Join(skipped...)
}

// ValidateLanguages rejects empty language ids and languages the translator
// does not support, and drops duplicates while keeping order. Ids naming the
// same BCP 47 tag ("es-ES", "es_es") are duplicates; the first spelling wins.
func (s *Synchronizer) ValidateLanguages(langs []string) ([]string, error) {
	if len(langs) == 0 {
		return nil, &ConfigurationError{Message: "no target languages"}
	}

	checker, _ := s.translator.(LanguageChecker)
	seen := make(map[string]bool, len(langs))
	out := make([]string, 0, len(langs))
	for _, lang := range langs {
		if lang == "" {
			return nil, &ConfigurationError{Message: "empty target language"}
		}
		if checker != nil && !checker.SupportsLanguage(lang) {
			return nil, &ConfigurationError{Message: "unsupported target language " + lang}
		}
		key := lang
		if canonical, err := CanonicalLanguage(lang); err == nil {
			key = canonical
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, lang)
	}
	return out, nil
}

// Plan computes the change set between current and previous. The plan is
// read-only and can be applied to several languages concurrently.
func (s *Synchronizer) Plan(current, previous *Node) *Plan {
	if current == nil {
		current = NewNode()
	}
	changes := Diff(current, previous)
	stats := changes.Stats()
	s.logger.Debug("computed change set",
		"added", stats.Added,
		"modified", stats.Modified,
		"removed", stats.Removed,
	)
	return &Plan{
		Current: current,
		Changes: changes,
		merger:  s.merger,
		prune:   s.prune,
		logger:  s.logger,
	}
}

// Plan is a change set ready to be merged into translated documents.
type Plan struct {
	Current *Node
	Changes *ChangeSet

	merger *Merger
	prune  bool
	logger *slog.Logger
}

// HasWork reports whether applying the plan can change a translation.
// Removed keys count as work only when pruning is enabled; a shorter array
// always does.
func (p *Plan) HasWork() bool {
	return !p.Changes.Empty() || p.Changes.HasListRemovals() || (p.prune && p.Changes.HasRemovals())
}

// Apply merges the plan into the translated document of one language.
// existing is modified in place; nil starts a new document. Calls for
// different languages share no mutable state.
func (p *Plan) Apply(ctx context.Context, lang string, existing *Node) (*LanguageResult, error) {
	start := time.Now()
	p.logger.InfoContext(ctx, "merging translation", "lang", lang, "leaves", p.Changes.Len())

	mr, err := p.merger.Merge(ctx, p.Current, p.Changes.Root(), existing, lang)
	lr := &LanguageResult{
		Lang:       lang,
		Tree:       mr.Tree,
		Translated: mr.Translated,
		Copied:     mr.Copied,
		Failed:     mr.Failed,
	}
	if err == nil || lr.Partial(err) {
		if p.prune {
			lr.Pruned = Prune(lr.Tree, p.Current)
		} else {
			lr.Pruned = TrimLists(lr.Tree, p.Current)
		}
	}
	lr.Elapsed = time.Since(start)

	if err != nil {
		p.logger.ErrorContext(ctx, "merge failed", "lang", lang, "translated", lr.Translated, "error", err)
		return lr, err
	}
	p.logger.InfoContext(ctx, "merged translation",
		"lang", lang,
		"translated", lr.Translated,
		"copied", lr.Copied,
		"pruned", lr.Pruned,
		"elapsed", lr.Elapsed.Round(time.Millisecond),
	)
	return lr, nil
}
