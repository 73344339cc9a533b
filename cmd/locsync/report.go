package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ZaguanLabs/locsync"
	"github.com/ZaguanLabs/locsync/config"
	"github.com/ZaguanLabs/locsync/internal/logging"
	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// report is the outcome of a run, printed as text or JSON.
type report struct {
	Source          string            `json:"source"`
	DryRun          bool              `json:"dry_run"`
	Performed       bool              `json:"performed"`
	BaselineUpdated bool              `json:"baseline_updated"`
	Stats           statsReport       `json:"stats"`
	Changes         []changeReport    `json:"changes,omitempty"`
	Removed         []string          `json:"removed,omitempty"`
	Pending         []pendingLanguage `json:"pending,omitempty"`
	Languages       []languageReport  `json:"languages,omitempty"`
	ProviderCalls   int64             `json:"provider_calls"`
	CacheHits       int64             `json:"cache_hits"`
	ElapsedMs       int64             `json:"elapsed_ms"`
}

type statsReport struct {
	Added    int `json:"added"`
	Modified int `json:"modified"`
	Removed  int `json:"removed"`
}

type changeReport struct {
	Key      string `json:"key"`
	Kind     string `json:"kind"`
	Value    any    `json:"value"`
	Previous any    `json:"previous,omitempty"`
}

// pendingLanguage is the work a dry run predicts for one language.
type pendingLanguage struct {
	Lang      string `json:"lang"`
	Path      string `json:"path"`
	Translate int    `json:"translate"`
	Copy      int    `json:"copy"`
	Prune     int    `json:"prune"`
}

type languageReport struct {
	Lang       string   `json:"lang"`
	Path       string   `json:"path"`
	Translated int      `json:"translated"`
	Copied     int      `json:"copied"`
	Pruned     int      `json:"pruned"`
	Skipped    []string `json:"skipped,omitempty"`
	Error      string   `json:"error,omitempty"`
	ElapsedMs  int64    `json:"elapsed_ms"`
}

func (r *languageReport) fill(lr *locsync.LanguageResult) {
	r.Translated = lr.Translated
	r.Copied = lr.Copied
	r.Pruned = lr.Pruned
	r.ElapsedMs = lr.Elapsed.Milliseconds()
	for _, f := range lr.Failed {
		r.Skipped = append(r.Skipped, f.Path.String())
	}
}

func newReport(source string, plan *locsync.Plan) *report {
	stats := plan.Changes.Stats()
	rep := &report{
		Source: source,
		Stats:  statsReport{Added: stats.Added, Modified: stats.Modified, Removed: stats.Removed},
	}
	for _, ch := range plan.Changes.Changes() {
		rep.Changes = append(rep.Changes, changeReport{
			Key:      ch.Path.String(),
			Kind:     ch.Kind.String(),
			Value:    locsync.Plain(ch.Value),
			Previous: locsync.Plain(ch.Previous),
		})
	}
	for _, p := range plan.Changes.Removed() {
		rep.Removed = append(rep.Removed, p.String())
	}
	return rep
}

// pendingWork predicts, without translating, what applying plan would do to
// each target.
func pendingWork(plan *locsync.Plan, prune bool, langs []string, existing map[string]*locsync.Node, targets []config.Target) []pendingLanguage {
	var translate, copied int
	_ = locsync.Walk(plan.Changes.Root(), func(_ locsync.Path, v locsync.Tree) error {
		if _, ok := v.(locsync.Leaf); ok {
			translate++
		} else {
			copied++
		}
		return nil
	})

	paths := make(map[string]string, len(targets))
	for _, t := range targets {
		paths[t.Lang] = t.Path
	}

	out := make([]pendingLanguage, 0, len(langs))
	for _, lang := range langs {
		p := pendingLanguage{Lang: lang, Path: paths[lang], Translate: translate, Copy: copied}
		if prune {
			p.Prune = locsync.Prune(existing[lang].Clone(), plan.Current)
		} else {
			p.Prune = locsync.TrimLists(existing[lang].Clone(), plan.Current)
		}
		out = append(out, p)
	}
	return out
}

func (r *report) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

type printer struct {
	w      io.Writer
	bold   *color.Color
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	faint  *color.Color
}

func newPrinter(w io.Writer) *printer {
	p := &printer{
		w:      w,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		faint:  color.New(color.Faint),
	}
	if !logging.IsTerminal(w) {
		for _, c := range []*color.Color{p.bold, p.green, p.red, p.yellow, p.faint} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) write(r *report, plan *locsync.Plan) {
	if r.DryRun {
		p.writeDryRun(r, plan)
		return
	}

	if !r.Performed {
		fmt.Fprintf(p.w, "%s: all translations are up to date.\n", r.Source)
		return
	}

	fmt.Fprintf(p.w, "%s %s (%d added, %d modified, %d removed) in %v\n",
		p.bold.Sprint("Synchronized"), r.Source,
		r.Stats.Added, r.Stats.Modified, r.Stats.Removed,
		(time.Duration(r.ElapsedMs) * time.Millisecond).Round(time.Millisecond))

	for _, l := range r.Languages {
		if l.Error != "" {
			fmt.Fprintf(p.w, "  %-6s %s  %s %s\n", l.Lang, l.Path, p.red.Sprint("FAILED:"), l.Error)
			continue
		}
		fmt.Fprintf(p.w, "  %-6s %s  translated %d, copied %d, pruned %d\n",
			l.Lang, l.Path, l.Translated, l.Copied, l.Pruned)
		for _, key := range l.Skipped {
			fmt.Fprintf(p.w, "         %s %s\n", p.yellow.Sprint("skipped"), key)
		}
	}

	if r.BaselineUpdated {
		fmt.Fprintln(p.w, p.green.Sprint("Baseline updated."))
	}
	fmt.Fprintf(p.w, "%s\n", p.faint.Sprintf("Provider calls: %d, cache hits: %d", r.ProviderCalls, r.CacheHits))
}

func (p *printer) writeDryRun(r *report, plan *locsync.Plan) {
	fmt.Fprintf(p.w, "Dry run: %s\n", r.Source)
	fmt.Fprintf(p.w, "Changes: %d added, %d modified, %d removed\n\n", r.Stats.Added, r.Stats.Modified, r.Stats.Removed)

	if plan.Changes.Empty() && !plan.Changes.HasRemovals() {
		fmt.Fprintln(p.w, "No changes detected. All translations are up to date.")
		return
	}

	for _, ch := range plan.Changes.Changes() {
		key := ch.Path.String()
		switch ch.Kind {
		case locsync.ChangeAdded:
			fmt.Fprintf(p.w, "  %s %s  %s\n", p.green.Sprint("+"), key, truncate(display(ch.Value), 60))
		case locsync.ChangeModified:
			fmt.Fprintf(p.w, "  %s %s  %s\n", p.yellow.Sprint("~"), key, p.inlineDiff(ch.Previous, ch.Value))
		}
	}
	for _, path := range plan.Changes.Removed() {
		fmt.Fprintf(p.w, "  %s %s\n", p.red.Sprint("-"), path)
	}

	fmt.Fprintln(p.w)
	for _, l := range r.Pending {
		fmt.Fprintf(p.w, "  %-6s %s  %d to translate, %d to copy, %d to prune\n",
			l.Lang, l.Path, l.Translate, l.Copy, l.Prune)
	}
}

// inlineDiff renders a character diff between two leaves. Other changes are
// shown as before → after.
func (p *printer) inlineDiff(before, after locsync.Tree) string {
	oldLeaf, ok1 := before.(locsync.Leaf)
	newLeaf, ok2 := after.(locsync.Leaf)
	if !ok1 || !ok2 {
		return truncate(display(before), 30) + " → " + truncate(display(after), 30)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(string(oldLeaf), string(newLeaf), false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString(p.green.Sprint("{+" + d.Text + "+}"))
		case diffmatchpatch.DiffDelete:
			b.WriteString(p.red.Sprint("[-" + d.Text + "-]"))
		default:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

func display(v locsync.Tree) string {
	switch t := v.(type) {
	case locsync.Leaf:
		return fmt.Sprintf("%q", string(t))
	case *locsync.Node:
		return fmt.Sprintf("{%d entries}", locsync.CountLeaves(t))
	default:
		return fmt.Sprint(locsync.Plain(v))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
