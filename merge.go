package locsync

import (
	"context"
	"errors"
	"log/slog"
)

// Merger applies a ChangeSet to a translated document, translating only the
// leaves named by the change set and leaving every other key untouched.
type Merger struct {
	translator Translator
	keepGoing  bool
	logger     *slog.Logger
}

// MergerOption configures a Merger.
type MergerOption func(*Merger)

// WithContinueOnError makes the merge skip leaves whose translation fails
// instead of aborting. Failures are reported in MergeResult.Failed and as a
// joined error once the walk completes.
func WithContinueOnError() MergerOption {
	return func(m *Merger) {
		m.keepGoing = true
	}
}

// WithMergerLogger sets the logger.
func WithMergerLogger(logger *slog.Logger) MergerOption {
	return func(m *Merger) {
		m.logger = logger
	}
}

// NewMerger creates a Merger that translates through t.
func NewMerger(t Translator, opts ...MergerOption) *Merger {
	m := &Merger{
		translator: t,
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MergeResult is the outcome of merging one target language.
type MergeResult struct {
	Tree       *Node               // the translated document
	Translated int                 // leaves translated
	Copied     int                 // scalars copied verbatim
	Failed     []*TranslationError // leaves skipped with WithContinueOnError
}

// Merge walks changes alongside current and writes translated leaves into
// existing, which is modified in place. A nil existing starts a new document.
//
// A failed translation stops the walk and returns the error together with the
// partially updated result; leaves translated before the failure are kept.
func (m *Merger) Merge(ctx context.Context, current, changes, existing *Node, lang string) (*MergeResult, error) {
	if existing == nil {
		existing = emptyLike(current)
	}
	res := &MergeResult{Tree: existing}

	if err := m.mergeNode(ctx, nil, current, changes, existing, lang, res); err != nil {
		return res, err
	}
	if len(res.Failed) > 0 {
		errs := make([]error, len(res.Failed))
		for i, f := range res.Failed {
			errs[i] = f
		}
		return res, errors.Join(errs...)
	}
	return res, nil
}

func (m *Merger) mergeNode(ctx context.Context, prefix Path, current, changes, target *Node, lang string, res *MergeResult) error {
	for _, key := range changes.Keys() {
		changed, _ := changes.Get(key)
		path := prefix.Child(key)

		switch v := changed.(type) {
		case *Node:
			child, ok := target.Child(key)
			if !ok || child.IsList() != v.IsList() {
				child = emptyLike(v)
				target.Set(key, child)
			}
			curChild, _ := current.Child(key)
			if err := m.mergeNode(ctx, path, curChild, v, child, lang, res); err != nil {
				return err
			}

		case Leaf:
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := m.translator.Translate(WithKeyPath(ctx, path), string(v), lang)
			if err != nil {
				terr := asTranslationError(err, path, lang)
				if !m.keepGoing {
					return terr
				}
				m.logger.WarnContext(ctx, "skipping leaf", "lang", lang, "key", path.String(), "error", err)
				res.Failed = append(res.Failed, terr)
				continue
			}
			target.Set(key, Leaf(out))
			res.Translated++

		case Scalar:
			target.Set(key, v)
			res.Copied++
		}
	}
	return nil
}

func asTranslationError(err error, path Path, lang string) *TranslationError {
	var terr *TranslationError
	if errors.As(err, &terr) && len(terr.Path) > 0 {
		return terr
	}
	return &TranslationError{
		Message: "translation failed",
		Path:    path,
		Lang:    lang,
		Cause:   err,
	}
}
