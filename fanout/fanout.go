// Package fanout applies one synchronization plan to several target
// languages concurrently.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ZaguanLabs/locsync"
	"github.com/panjf2000/ants/v2"
)

// Result collects the outcome of every language.
type Result struct {
	// Languages holds the result of each language that ran, including the
	// partial tree of a language that failed.
	Languages map[string]*locsync.LanguageResult
	// Errors holds the failure of each language that did not complete.
	Errors map[string]error
}

// Succeeded returns the languages that completed without error, sorted.
func (r *Result) Succeeded() []string {
	var langs []string
	for lang := range r.Languages {
		if _, failed := r.Errors[lang]; !failed {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// Err joins the language errors in language order, or returns nil.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	langs := make([]string, 0, len(r.Errors))
	for lang := range r.Errors {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	errs := make([]error, len(langs))
	for i, lang := range langs {
		errs[i] = r.Errors[lang]
	}
	return errors.Join(errs...)
}

// Option configures Apply.
type Option func(*options)

type options struct {
	failFast bool
}

// WithFailFast cancels the languages that have not finished once one fails.
func WithFailFast() Option {
	return func(o *options) {
		o.failFast = true
	}
}

// Apply runs plan.Apply for every language on a pool of at most workers
// goroutines. existing[lang] is handed to exactly one task and is modified in
// place. The returned error is Result.Err.
func Apply(ctx context.Context, plan *locsync.Plan, existing map[string]*locsync.Node, langs []string, workers int, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := &Result{
		Languages: make(map[string]*locsync.LanguageResult, len(langs)),
		Errors:    make(map[string]error),
	}
	if len(langs) == 0 {
		return res, nil
	}

	if workers <= 0 {
		workers = 1
	}
	if workers > len(langs) {
		workers = len(langs)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(lang string, lr *locsync.LanguageResult, err error) {
		mu.Lock()
		defer mu.Unlock()
		if lr != nil {
			res.Languages[lang] = lr
		}
		if err != nil {
			res.Errors[lang] = err
			if o.failFast {
				cancel()
			}
		}
	}

	for _, lang := range langs {
		tree := existing[lang]
		if err := ctx.Err(); err != nil {
			record(lang, nil, err)
			continue
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					record(lang, nil, fmt.Errorf("synchronizing %s: panic: %v", lang, r))
				}
			}()
			if err := ctx.Err(); err != nil {
				record(lang, nil, err)
				return
			}
			lr, err := plan.Apply(ctx, lang, tree)
			record(lang, lr, err)
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			record(lang, nil, fmt.Errorf("scheduling %s: %w", lang, err))
		}
	}
	wg.Wait()

	return res, res.Err()
}
