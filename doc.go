// Package locsync keeps translated localization files in step with a source
// language file.
//
// A localization file is a tree of string leaves under nested keys. On each
// run the current source tree is compared with the tree from the previous run
// (see [Diff]); only added or modified leaves are sent to a [Translator], and
// the results are merged into each language's existing translations (see
// [Merger]). Translations for keys that did not change are left untouched,
// including any manual edits.
//
// [Synchronizer] ties the steps together for a set of target languages:
//
//	sync := locsync.NewSynchronizer(translator, locsync.WithPruneStale())
//	res, err := sync.Synchronize(ctx, locsync.SyncRequest{
//		Current:   current,
//		Previous:  previous,
//		Existing:  existing,
//		Languages: []string{"fr", "de"},
//	})
//
// Loading and saving trees lives in package store, finding the previous
// source tree in package baseline, and the command line tool in cmd/locsync.
package locsync
