// Command locsync keeps translated copies of a structured document in step
// with its source, translating only the entries that changed since the last run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ZaguanLabs/locsync"
	"github.com/ZaguanLabs/locsync/baseline"
	"github.com/ZaguanLabs/locsync/cache"
	"github.com/ZaguanLabs/locsync/config"
	"github.com/ZaguanLabs/locsync/fanout"
	"github.com/ZaguanLabs/locsync/internal/logging"
	"github.com/ZaguanLabs/locsync/processor"
	"github.com/ZaguanLabs/locsync/provider"
	"github.com/ZaguanLabs/locsync/store"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = locsync.Version
	commit    = locsync.GitCommit
	buildDate = locsync.BuildDate
)

// newProvider builds the translation backend. Tests replace it.
var newProvider = func(cfg provider.OpenAIConfig) (locsync.AIProvider, error) {
	p, err := provider.NewOpenAIProvider(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	config      string
	source      string
	sourceLang  string
	langs       string
	output      string
	baseline    string
	rev         string
	suffix      string
	dryRun      bool
	jsonOutput  bool
	prune       bool
	keepGoing   bool
	parallel    int
	model       string
	apiKey      string
	cacheTTL    time.Duration
	cacheFile   string
	redisURL    string
	context     string
	style       string
	exclude     string
	logLevel    string
	quiet       bool
	showVersion bool

	set map[string]bool
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("locsync", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.config, "config", "", "Project file (default: "+config.DefaultFile+" when present)")
	fs.StringVar(&o.source, "source", "", "Source document (.json, .yaml)")
	fs.StringVar(&o.sourceLang, "source-lang", "", "Source language code (default: en)")
	fs.StringVar(&o.langs, "lang", "", "Comma-separated target languages (e.g., fr,de,es_ES)")
	fs.StringVar(&o.output, "output", "", "Target path pattern containing {lang} (e.g., locales/{lang}.json)")
	fs.StringVar(&o.baseline, "baseline", "", "Where the previous source comes from: sibling or git")
	fs.StringVar(&o.rev, "rev", "", "Git revision for -baseline git (default: HEAD)")
	fs.StringVar(&o.suffix, "snapshot-suffix", "", "Snapshot suffix for -baseline sibling (default: .prev)")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Show what would be translated without calling the API")
	fs.BoolVar(&o.jsonOutput, "json", false, "Print the report as JSON")
	fs.BoolVar(&o.prune, "prune", false, "Remove keys that no longer exist in the source")
	fs.BoolVar(&o.keepGoing, "keep-going", false, "Skip entries that fail to translate")
	fs.IntVar(&o.parallel, "parallel", 0, "Languages translated at once (default: 1)")
	fs.StringVar(&o.model, "model", "", "OpenAI model (default: LOCSYNC_MODEL or gpt-4o-mini)")
	fs.StringVar(&o.apiKey, "api-key", "", "OpenAI API key (default: OPENAI_API_KEY env)")
	fs.DurationVar(&o.cacheTTL, "cache-ttl", 0, "Cache entry lifetime, 0 disables the cache (default: LOCSYNC_CACHE_TTL or 1h)")
	fs.StringVar(&o.cacheFile, "cache-file", "", "Load the cache from this file and save it back after the run")
	fs.StringVar(&o.redisURL, "redis-url", "", "Redis cache URL (default: LOCSYNC_REDIS_URL env)")
	fs.StringVar(&o.context, "context", "", "Translation context (e.g., 'Settings screen of a photo app')")
	fs.StringVar(&o.style, "style", "", "Translation style: formal, neutral, casual, marketing, technical")
	fs.StringVar(&o.exclude, "exclude", "", "Comma-separated terms to never translate")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level (default: LOG_LEVEL env or info)")
	fs.BoolVar(&o.quiet, "quiet", false, "Only log warnings and errors")
	fs.BoolVar(&o.showVersion, "version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if o.showVersion {
		fmt.Fprintf(stdout, "%s %s\n", locsync.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	level := env.LogLevel
	if o.quiet {
		level = "warn"
	}
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := logging.New(logging.Options{Level: level, Format: env.LogFormat, Writer: stderr})
	if err != nil {
		return err
	}

	project, err := loadProject(&o)
	if err != nil {
		return err
	}
	targets, err := project.Resolve()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{
		opts:    &o,
		env:     env,
		project: project,
		targets: targets,
		store:   store.NewOS(store.WithLogger(logger)),
		logger:  logger,
		stdout:  stdout,
	}
	return a.run(ctx)
}

// loadProject reads the project file, if any, and applies the flags on top of it.
func loadProject(o *options) (*config.Project, error) {
	path := o.config
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	p := &config.Project{}
	if path != "" {
		var err error
		if p, err = config.LoadProject(path); err != nil {
			return nil, err
		}
	}

	if o.set["source"] {
		p.Source = o.source
	}
	if o.set["source-lang"] {
		p.SourceLang = o.sourceLang
	}
	if o.set["output"] {
		p.Output = o.output
	}
	if o.set["baseline"] {
		p.Baseline = o.baseline
	}
	if o.set["rev"] {
		p.Revision = o.rev
	}
	if o.set["snapshot-suffix"] {
		p.SnapshotSuffix = o.suffix
	}
	if o.set["prune"] {
		p.Prune = o.prune
	}
	if o.set["keep-going"] {
		p.KeepGoing = o.keepGoing
	}
	if o.set["parallel"] {
		p.Parallel = o.parallel
	}
	if o.set["context"] {
		p.Context = o.context
	}
	if o.set["style"] {
		p.Style = o.style
	}
	if o.set["exclude"] {
		p.Exclude = splitList(o.exclude)
	}
	if o.set["lang"] {
		restrictLanguages(p, splitList(o.langs))
	}

	if p.SourceLang == "" {
		p.SourceLang = "en"
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// restrictLanguages makes langs the target list. Project targets for those
// languages keep their configured paths.
func restrictLanguages(p *config.Project, langs []string) {
	want := make(map[string]bool, len(langs))
	for _, lang := range langs {
		if id, err := locsync.CanonicalLanguage(lang); err == nil {
			want[id] = true
		}
	}

	var kept []config.Target
	covered := make(map[string]bool)
	for _, t := range p.Targets {
		if id, err := locsync.CanonicalLanguage(t.Lang); err == nil && want[id] {
			kept = append(kept, t)
			covered[id] = true
		}
	}

	var rest []string
	for _, lang := range langs {
		if id, err := locsync.CanonicalLanguage(lang); err == nil && covered[id] {
			continue
		}
		rest = append(rest, lang)
	}
	p.Targets = kept
	p.Languages = rest
}

type app struct {
	opts    *options
	env     config.Env
	project *config.Project
	targets []config.Target
	store   *store.Store
	logger  *slog.Logger
	stdout  io.Writer
}

func (a *app) run(ctx context.Context) error {
	start := time.Now()
	source := a.project.SourcePath()

	ok, err := a.store.Exists(source)
	if err != nil {
		return err
	}
	if !ok {
		return &locsync.ConfigurationError{Message: "source document " + source + " not found"}
	}
	current, err := a.store.Load(source)
	if err != nil {
		return err
	}

	base, err := baseline.New(a.store, baseline.Options{
		Kind:     a.project.Baseline,
		Suffix:   a.project.SnapshotSuffix,
		Revision: a.project.Revision,
	})
	if err != nil {
		return err
	}
	previous, err := base.Previous(ctx, source)
	if err != nil {
		return fmt.Errorf("reading previous source: %w", err)
	}

	existing := make(map[string]*locsync.Node, len(a.targets))
	for _, t := range a.targets {
		tree, err := a.store.Load(t.Path)
		if err != nil {
			return err
		}
		existing[t.Lang] = tree
	}

	if a.opts.dryRun {
		tr := a.translator(nil, nil)
		plan, langs, err := a.plan(tr, current, previous)
		if err != nil {
			return err
		}
		rep := newReport(source, plan)
		rep.DryRun = true
		rep.Pending = pendingWork(plan, a.project.Prune, langs, existing, a.targets)
		rep.ElapsedMs = time.Since(start).Milliseconds()
		return a.print(rep, plan)
	}

	c, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	if closer, ok := c.(io.Closer); ok {
		defer closer.Close()
	}
	p, err := a.provider()
	if err != nil {
		return err
	}
	tr := a.translator(p, c)

	plan, langs, err := a.plan(tr, current, previous)
	if err != nil {
		return err
	}
	rep := newReport(source, plan)

	if !plan.HasWork() {
		a.logger.InfoContext(ctx, "translations up to date", "source", source, "languages", len(langs))
		rep.ElapsedMs = time.Since(start).Milliseconds()
		return a.print(rep, plan)
	}

	var fanOpts []fanout.Option
	if !a.project.KeepGoing {
		fanOpts = append(fanOpts, fanout.WithFailFast())
	}
	res, syncErr := fanout.Apply(ctx, plan, existing, langs, a.project.Parallel, fanOpts...)
	if res == nil {
		return syncErr
	}
	rep.Performed = true

	var saveErrs []error
	for _, t := range a.targets {
		lr := res.Languages[t.Lang]
		entry := languageReport{Lang: t.Lang, Path: t.Path}
		if lr != nil {
			entry.fill(lr)
		}
		save := lr != nil
		if err, failed := res.Errors[t.Lang]; failed {
			entry.Error = err.Error()
			save = a.project.KeepGoing && lr.Partial(err)
			if save {
				a.logger.WarnContext(ctx, "saving partial translation", "lang", t.Lang, "skipped", len(lr.Failed))
			}
		}
		if save {
			if err := a.store.Save(t.Path, lr.Tree); err != nil {
				if entry.Error != "" {
					entry.Error += "; "
				}
				entry.Error += err.Error()
				saveErrs = append(saveErrs, err)
			}
		}
		rep.Languages = append(rep.Languages, entry)
	}

	err = errors.Join(append([]error{syncErr}, saveErrs...)...)
	if err == nil {
		if rec, ok := base.(baseline.Recorder); ok {
			if err = rec.Record(ctx, source, plan.Current); err == nil {
				rep.BaselineUpdated = true
			}
		}
	} else {
		a.logger.WarnContext(ctx, "baseline not updated because some languages failed")
	}

	stats := tr.Stats()
	rep.ProviderCalls = stats.ProviderCalls
	rep.CacheHits = stats.CacheHits

	if exportErr := a.exportCache(c); exportErr != nil {
		err = errors.Join(err, exportErr)
	}

	rep.ElapsedMs = time.Since(start).Milliseconds()
	if printErr := a.print(rep, plan); printErr != nil {
		return errors.Join(err, printErr)
	}
	return err
}

// plan validates the target languages and diffs the source documents.
func (a *app) plan(tr *locsync.ProviderTranslator, current, previous *locsync.Node) (*locsync.Plan, []string, error) {
	var opts []locsync.SyncOption
	opts = append(opts, locsync.WithLogger(a.logger))
	if a.project.Prune {
		opts = append(opts, locsync.WithPruneStale())
	}
	if a.project.KeepGoing {
		opts = append(opts, locsync.WithKeepGoing())
	}
	sync := locsync.NewSynchronizer(tr, opts...)

	langs, err := sync.ValidateLanguages(config.Langs(a.targets))
	if err != nil {
		return nil, nil, err
	}
	return sync.Plan(current, previous), langs, nil
}

func (a *app) translator(p locsync.AIProvider, c locsync.TranslationCache) *locsync.ProviderTranslator {
	opts := []locsync.TranslatorOption{
		locsync.WithSourceLang(a.project.SourceLang),
		locsync.WithProcessor(processor.NewHTMLProcessor()),
		locsync.WithTranslatorLogger(a.logger),
	}
	if c != nil {
		opts = append(opts, locsync.WithCache(c))
	}
	if a.project.Context != "" {
		opts = append(opts, locsync.WithContext(a.project.Context))
	}
	if len(a.project.Exclude) > 0 {
		opts = append(opts, locsync.WithExcludedTerms(a.project.Exclude))
	}
	if len(a.project.Glossary) > 0 {
		opts = append(opts, locsync.WithGlossary(a.project.Glossary))
	}
	if style, ok := locsync.ParseStyle(a.project.Style); ok {
		opts = append(opts, locsync.WithStyle(style))
	}
	return locsync.NewProviderTranslator(p, opts...)
}

// provider builds the OpenAI provider wrapped with rate limiting and retries.
func (a *app) provider() (locsync.AIProvider, error) {
	key := a.opts.apiKey
	if key == "" {
		key = a.env.OpenAIAPIKey
	}
	model := a.opts.model
	if model == "" {
		model = a.env.Model
	}

	p, err := newProvider(provider.OpenAIConfig{
		APIKey:  key,
		Model:   model,
		BaseURL: a.env.OpenAIBaseURL,
		Logger:  a.logger,
	})
	if err != nil {
		return nil, err
	}

	if a.env.RPM > 0 {
		p = locsync.NewRateLimitedProvider(p, locsync.RateLimitConfig{RequestsPerMinute: a.env.RPM})
	}
	retry := locsync.DefaultRetryConfig()
	retry.MaxRetries = a.env.MaxRetries
	retry.Logger = a.logger
	return locsync.NewRetryableProvider(p, retry), nil
}

// openCache returns nil when caching is disabled by -cache-ttl 0.
func (a *app) openCache(ctx context.Context) (cache.ExportableCache, error) {
	ttl := a.env.CacheTTL
	if a.opts.set["cache-ttl"] {
		ttl = a.opts.cacheTTL
	}
	if ttl <= 0 {
		return nil, nil
	}

	redisURL := a.opts.redisURL
	if redisURL == "" {
		redisURL = a.env.RedisURL
	}
	c, err := cache.Open(ctx, cache.Options{RedisURL: redisURL, TTL: ttl, Logger: a.logger})
	if err != nil {
		return nil, err
	}

	if a.opts.cacheFile != "" {
		res, err := cache.NewImporter(c).ImportFromFile(a.opts.cacheFile)
		if err != nil {
			return nil, &locsync.CacheError{Message: "importing " + a.opts.cacheFile, Cause: err}
		}
		a.logger.Debug("imported cache", "file", a.opts.cacheFile, "entries", res.Imported, "rejected", res.Failed)
	}
	return c, nil
}

func (a *app) exportCache(c cache.ExportableCache) error {
	if c == nil || a.opts.cacheFile == "" {
		return nil
	}
	n, err := cache.NewExporter(c).ExportToFile(a.opts.cacheFile, map[string]string{
		"source_lang": a.project.SourceLang,
		"generator":   locsync.UserAgent(),
	})
	if err != nil {
		return &locsync.CacheError{Message: "exporting " + a.opts.cacheFile, Cause: err}
	}
	a.logger.Debug("exported cache", "file", a.opts.cacheFile, "entries", n)
	return nil
}

func (a *app) print(rep *report, plan *locsync.Plan) error {
	if a.opts.jsonOutput {
		return rep.writeJSON(a.stdout)
	}
	if a.opts.quiet && !rep.DryRun {
		return nil
	}
	newPrinter(a.stdout).write(rep, plan)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
