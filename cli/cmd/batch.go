package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"text/tabwriter"

	"github.com/ardnew/mung"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/ytsub/archive"
	"github.com/ardnew/ytsub/config"
	"github.com/ardnew/ytsub/entry"
	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/pkg"
)

// Batch renders the output paths of every subscription for every entry.
type Batch struct {
	Subscriptions string   `help:"Subscription file."                                                             placeholder:"FILE" required:"" short:"s" type:"existingfile"`
	Presets       []string `help:"Preset file or directory. Earlier files take precedence."                       placeholder:"FILE" short:"p"`
	PresetPath    string   `env:"YTSUB_PRESET_PATH" help:"Preset directories searched after --presets (${presetPath} is always searched first)." placeholder:"DIRS"`
	Names         []string `help:"Only render the named subscriptions."                                           name:"subscription" placeholder:"NAME" short:"n"`
	Match         string   `help:"Only render entries for which this expression is true."                         placeholder:"EXPR" short:"m"`
	Jobs          int      `default:"0"                                                                          help:"Number of entries rendered concurrently (0: one per CPU)." short:"j"`
	FailFast      bool     `help:"Stop at the first entry that fails to render."`
	Format        string   `default:"text"                                                                       enum:"text,json,yaml" help:"Output format (${enum})." short:"f"`
	Archive       string   `help:"Download archive recording every rendered entry."                               placeholder:"FILE" type:"path"`
	Force         bool     `help:"Render entries already recorded in the archive."`
	Entries       []string `arg:""                                                                               help:"Entry metadata files, or '-' for stdin." placeholder:"ENTRY"`
}

// pair is one (subscription, entry) unit of work.
type pair struct {
	sub   *config.Subscription
	entry *entry.Entry
}

// result is the outcome of one pair. out is nil when the pair was skipped or
// failed.
type result struct {
	out *config.Output
	err error
}

// Run renders every pair and writes the outputs in subscription order, then
// entry order.
func (b *Batch) Run(ctx context.Context, out io.Writer) error {
	runID := uuid.New()
	logger := log.Default().With(slog.String("run", runID.String()))

	m, err := compileMatch(b.Match)
	if err != nil {
		return err
	}

	subs, err := b.subscriptions(ctx)
	if err != nil {
		return err
	}

	entries := make([]*entry.Entry, 0, len(b.Entries))

	for _, path := range uniqueFiles(b.Entries) {
		e, err := loadEntry(path)
		if err != nil {
			return err
		}

		entries = append(entries, e)
	}

	var arc *archive.Archive

	if b.Archive != "" {
		arc, err = archive.Open(ctx, b.Archive, archive.WithLogger(logger))
		if err != nil {
			return err
		}
		defer arc.Close()
	}

	pairs := make([]pair, 0, len(subs)*len(entries))

	for _, sub := range subs {
		for _, e := range entries {
			pairs = append(pairs, pair{sub: sub, entry: e})
		}
	}

	logger.InfoContext(ctx, "batch started",
		slog.Int("subscriptions", len(subs)),
		slog.Int("entries", len(entries)),
		slog.Int("jobs", b.jobs()))

	results := make([]result, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.jobs())

	for i, p := range pairs {
		g.Go(func() error {
			out, err := b.render(gctx, logger, m, arc, p)
			results[i] = result{out: out, err: err}

			if err != nil && b.FailFast {
				return err
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ErrBatch.Wrap(err).With(slog.String("run", runID.String()))
	}

	outputs := make([]*config.Output, 0, len(results))
	records := make([]archive.Record, 0, len(results))
	failed := 0

	for i, r := range results {
		switch {
		case r.err != nil:
			failed++

			logger.ErrorContext(ctx, "render failed", log.Err(r.err))

		case r.out != nil:
			outputs = append(outputs, r.out)
			records = append(records, archiveRecord(runID, pairs[i].entry, r.out))
		}
	}

	if err := b.write(out, outputs); err != nil {
		return err
	}

	if arc != nil {
		if err := arc.Record(ctx, records...); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "batch finished",
		slog.Int("rendered", len(outputs)),
		slog.Int("failed", failed))

	if failed > 0 {
		return ErrBatch.With(
			slog.String("run", runID.String()),
			slog.Int("failed", failed),
			slog.Int("total", len(pairs)))
	}

	return nil
}

// render produces the output of one pair. It returns a nil output without
// error when the entry is filtered out or already archived. The archive is
// only read here.
func (b *Batch) render(
	ctx context.Context,
	logger log.Logger,
	m *matcher,
	arc *archive.Archive,
	p pair,
) (*config.Output, error) {
	attrs := []slog.Attr{
		slog.String("subscription", p.sub.Name),
		slog.String("entry", p.entry.ID()),
	}

	ok, err := m.match(p.entry, p.sub.Name)
	if err != nil {
		// A field missing from the metadata fails the filter.
		logger.DebugContext(ctx, "match failed", append(attrs, log.Err(err))...)

		return nil, nil
	}

	if !ok {
		logger.DebugContext(ctx, "entry filtered", attrs...)

		return nil, nil
	}

	if arc != nil && !b.Force {
		done, err := arc.Has(ctx, p.sub.Name, p.entry.ID())
		if err != nil {
			return nil, err
		}

		if done {
			logger.InfoContext(ctx, "entry archived", attrs...)

			return nil, nil
		}
	}

	o, err := p.sub.Render(ctx, p.entry)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "entry rendered", append(attrs, slog.String("path", o.Path))...)

	return o, nil
}

// archiveRecord describes a written output. Outputs are recorded only after
// the whole batch is written, so a failed run leaves the archive unchanged.
func archiveRecord(runID uuid.UUID, e *entry.Entry, o *config.Output) archive.Record {
	extractor, _ := e.String("extractor")
	uploadDate, _ := e.String("upload_date")

	return archive.Record{
		RunID:        runID,
		Subscription: o.Subscription,
		UID:          o.UID,
		Extractor:    extractor,
		OutputPath:   o.Path,
		UploadDate:   uploadDate,
	}
}

func (b *Batch) jobs() int {
	if b.Jobs < 1 {
		return runtime.GOMAXPROCS(0)
	}

	return b.Jobs
}

// subscriptions loads the presets and the subscription file and keeps the
// subscriptions selected with --subscription.
func (b *Batch) subscriptions(ctx context.Context) ([]*config.Subscription, error) {
	files, err := b.presetFiles()
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "preset files", slog.Any("files", files))

	opts := []config.Option{
		config.WithLogger(log.Default()),
		config.WithCache(cacheFrom(ctx)),
	}

	presets, err := config.LoadPresets(ctx, files, opts...)
	if err != nil {
		return nil, err
	}

	subs, err := config.LoadSubscriptions(ctx, b.Subscriptions, presets, opts...)
	if err != nil {
		return nil, err
	}

	if len(b.Names) == 0 {
		return subs, nil
	}

	for _, name := range b.Names {
		if !slices.ContainsFunc(subs, func(s *config.Subscription) bool { return s.Name == name }) {
			return nil, ErrUnknownSubscription.With(
				slog.String("subscription", name),
				slog.String("file", b.Subscriptions))
		}
	}

	return slices.DeleteFunc(subs, func(s *config.Subscription) bool {
		return !slices.Contains(b.Names, s.Name)
	}), nil
}

// presetFiles lists the preset files in precedence order: each --presets
// argument, then the preset directories. A file listed more than once keeps
// its first position. An explicit directory must hold at least one preset
// file.
func (b *Batch) presetFiles() ([]string, error) {
	var files []string

	for _, path := range b.Presets {
		info, err := os.Stat(path)
		if err != nil {
			return nil, config.ErrInvalidConfig.Wrap(err).With(slog.String("path", path))
		}

		if !info.IsDir() {
			files = append(files, path)

			continue
		}

		found := yamlFiles(path)
		if len(found) == 0 {
			return nil, ErrNoPresetFiles.With(slog.String("dir", path))
		}

		files = append(files, found...)
	}

	for _, dir := range presetDirs(b.PresetPath) {
		files = append(files, yamlFiles(dir)...)
	}

	return uniqueFiles(files), nil
}

// presetDirs returns the existing directories of a PATH-like list, with the
// preset directory of the user configuration prepended.
func presetDirs(list string) []string {
	munged := mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(pkg.ConfigPath(PresetDir)),
		mung.WithFilter(isDir),
	).String()

	return slices.DeleteFunc(filepath.SplitList(munged), func(dir string) bool {
		return dir == ""
	})
}

// PresetDir is the directory under the user configuration directory that is
// always searched for preset files.
const PresetDir = "presets"

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

// yamlFiles returns the YAML files in dir in lexical order.
func yamlFiles(dir string) []string {
	var files []string

	for _, pattern := range []string{"*.yaml", "*.yml"} {
		match, _ := filepath.Glob(filepath.Join(dir, pattern))
		files = append(files, match...)
	}

	slices.Sort(files)

	return files
}

func (b *Batch) write(out io.Writer, outputs []*config.Output) error {
	if b.Format != formatText {
		return encode(out, b.Format, outputs)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	for _, o := range outputs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Subscription, o.UID, o.Path)

		for _, sub := range o.Subtitles {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Subscription, o.UID, sub.Path)
		}
	}

	if err := tw.Flush(); err != nil {
		return ErrBatch.Wrap(err)
	}

	return nil
}
