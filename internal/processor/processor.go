package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/wutianlong220/keywords-tools/internal"
	"github.com/wutianlong220/keywords-tools/internal/archive"
	"github.com/wutianlong220/keywords-tools/internal/batch"
	"github.com/wutianlong220/keywords-tools/internal/cli"
	"github.com/wutianlong220/keywords-tools/internal/distribute"
	"github.com/wutianlong220/keywords-tools/internal/history"
	"github.com/wutianlong220/keywords-tools/internal/scheduler"
	"github.com/wutianlong220/keywords-tools/internal/stop"
	"github.com/wutianlong220/keywords-tools/internal/table"
	"github.com/wutianlong220/keywords-tools/internal/translation"
	"github.com/wutianlong220/keywords-tools/internal/workbook"
)

// ErrNoInput is returned when a run is started without input files
var ErrNoInput = errors.New("no input files")

// Summary describes a finished run
type Summary struct {
	RunID        string
	Outcome      string
	Files        []*batch.FileRecord
	Succeeded    int
	Failed       int
	Keywords     int
	Batches      int
	Stats        scheduler.Stats
	Output       string
	SplitOutputs []string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration returns how long the run took
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Processor handles the main processing logic
type Processor struct {
	flags      *cli.Flags
	logger     *log.Logger
	translator scheduler.BatchTranslator
	out        io.Writer
	now        func() time.Time
}

// NewProcessor creates a processor translating through the configured endpoint
func NewProcessor(flags *cli.Flags, logger *log.Logger) (*Processor, error) {
	provider, err := translation.NewProvider(context.Background(), flags.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create translation provider: %w", err)
	}
	return NewWithTranslator(flags, translation.NewTranslator(provider, flags.TranslatorConfig(), logger), logger), nil
}

// NewWithTranslator creates a processor around an existing translator
func NewWithTranslator(flags *cli.Flags, translator scheduler.BatchTranslator, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		flags:      flags,
		logger:     logger,
		translator: translator,
		out:        os.Stdout,
		now:        time.Now,
	}
}

// SetOutput redirects progress and summary output
func (p *Processor) SetOutput(w io.Writer) {
	p.out = w
}

// CollectInputs merges the command line paths with the file list. A
// directory contributes its .xlsx and .csv files in name order.
func CollectInputs(args []string, fileList string) ([]string, error) {
	paths := append([]string(nil), args...)
	if fileList != "" {
		listed, err := batch.ReadFileList(fileList)
		if err != nil {
			return nil, err
		}
		paths = append(paths, listed...)
	}

	var inputs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			// Missing files are reported per file during the scan
			inputs = append(inputs, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && workbook.Supported(e.Name()) && !strings.HasPrefix(e.Name(), "~$") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			inputs = append(inputs, filepath.Join(path, name))
		}
	}
	return inputs, nil
}

// Run processes every input file into one merged workbook. A stopped run
// is reported through Summary.Outcome; the error is set only when the run
// failed.
func (p *Processor) Run(ctx context.Context, stop *stop.Token, paths []string) (*Summary, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}

	summary := &Summary{
		RunID:     history.NewRunID(),
		StartedAt: p.now(),
	}
	logger := p.logger.With("run", summary.RunID[:8])

	records := p.scan(logger, paths)
	summary.Files = records

	stream := batch.BuildStream(records)
	batches := batch.Make(stream, p.flags.BatchSize)
	summary.Keywords = len(stream)
	summary.Batches = len(batches)

	readable := 0
	for _, rec := range records {
		if rec.Err == nil {
			readable++
		}
	}
	fmt.Fprintf(p.out, "Found %d keywords in %d of %d files (%d batches)\n", len(stream), readable, len(records), len(batches))

	sched := scheduler.New(p.translator, p.flags.Concurrency, logger)
	bar := p.newProgressBar(len(stream))
	sched.OnWave = func(r scheduler.WaveReport) {
		logger.Debug("wave finished", "wave", r.Wave, "waves", r.Waves, "keywords", r.KeywordsDone)
		if bar != nil {
			_ = bar.Set(r.KeywordsDone)
		}
	}

	translations, err := sched.RunAll(ctx, stop, batches, len(stream))
	if bar != nil {
		fmt.Fprintln(p.out)
	}
	summary.Stats = sched.Stats()

	switch {
	case errors.Is(err, scheduler.ErrStopped), errors.Is(err, context.Canceled), stop.Stopped():
		return p.stopped(ctx, logger, summary)
	case err != nil:
		return p.fail(ctx, logger, summary, fmt.Errorf("translation failed: %w", err))
	}

	if err := distribute.Distribute(translations, stream, records); err != nil {
		return p.fail(ctx, logger, summary, err)
	}
	if stop.Stopped() {
		return p.stopped(ctx, logger, summary)
	}

	for _, rec := range records {
		if rec.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	if summary.Succeeded == 0 {
		logger.Warn("no file could be processed, no workbook written")
	} else {
		output := OutputPath(p.flags.OutputDir, summary.StartedAt)
		archived, err := archive.ArchiveFile(output, p.now())
		if err != nil {
			return p.fail(ctx, logger, summary, err)
		}
		if archived != "" {
			logger.Info("previous workbook archived", "path", archived)
		}
		if err := workbook.SaveMerged(output, workbook.Overview(records, p.now()), records); err != nil {
			return p.fail(ctx, logger, summary, err)
		}
		summary.Output = output
		logger.Info("merged workbook written", "path", output, "sheets", summary.Succeeded+1)

		if p.flags.Split {
			splits, err := p.writeSplit(filepath.Dir(output), records)
			summary.SplitOutputs = splits
			if err != nil {
				return p.fail(ctx, logger, summary, err)
			}
		}
	}

	summary.Outcome = history.OutcomeCompleted
	p.finish(ctx, logger, summary)
	return summary, nil
}

// scan reads every input file and locates its columns. Failures are kept
// on the record.
func (p *Processor) scan(logger *log.Logger, paths []string) []*batch.FileRecord {
	records := make([]*batch.FileRecord, len(paths))
	for i, path := range paths {
		rec := &batch.FileRecord{FileIndex: i, FileName: path}
		records[i] = rec

		t, err := workbook.ReadFile(path)
		if err != nil {
			rec.Err = err
			logger.Error("failed to read file", "file", filepath.Base(path), "error", err)
			continue
		}

		cols, _, err := table.ExtractKeywords(t)
		if err != nil {
			rec.Err = err
			logger.Error("failed to locate columns", "file", filepath.Base(path), "error", err)
			continue
		}
		rec.Columns = cols
		rec.OriginalTable = t
		logger.Debug("file scanned", "file", filepath.Base(path), "rows", len(t.DataRows()))
	}
	return records
}

// OutputPath returns the merged workbook path. output is either the file
// to write or the directory to put the dated default name in.
func OutputPath(output string, at time.Time) string {
	if strings.EqualFold(filepath.Ext(output), ".xlsx") {
		return output
	}
	if output == "" {
		output = "."
	}
	return filepath.Join(output, internal.MergedFileName(at))
}

func (p *Processor) writeSplit(dir string, records []*batch.FileRecord) ([]string, error) {
	var paths []string
	taken := make(map[string]bool)
	for _, rec := range records {
		if !rec.OK() {
			continue
		}

		base := internal.SanitizeFilename(internal.StripExtension(filepath.Base(rec.FileName))) + "_translated"
		name := base
		for n := 2; taken[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		taken[name] = true

		path := filepath.Join(dir, name+".xlsx")
		if err := workbook.SaveTable(path, internal.SanitizeSheetName(rec.FileName), rec.ProcessedTable); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// stopped ends a run whose stop token was raised. Nothing is written.
func (p *Processor) stopped(ctx context.Context, logger *log.Logger, summary *Summary) (*Summary, error) {
	logger.Warn("run stopped, no workbook written", "dispatched", summary.Stats.Dispatched, "batches", summary.Batches)
	summary.Outcome = history.OutcomeStopped
	summary.Succeeded, summary.Failed = 0, 0
	p.finish(ctx, logger, summary)
	return summary, nil
}

func (p *Processor) fail(ctx context.Context, logger *log.Logger, summary *Summary, err error) (*Summary, error) {
	logger.Error("run failed", "error", err)
	summary.Outcome = history.OutcomeFailed
	p.finish(ctx, logger, summary)
	return summary, err
}

// finish records the run and prints the summary
func (p *Processor) finish(ctx context.Context, logger *log.Logger, summary *Summary) {
	summary.FinishedAt = p.now()

	if !p.flags.NoHistory {
		// The run is recorded even when ctx was cancelled
		if err := p.record(context.WithoutCancel(ctx), summary); err != nil {
			logger.Warn("failed to record run history", "error", err)
		}
	}

	PrintSummary(p.out, summary)
}

func (p *Processor) record(ctx context.Context, summary *Summary) error {
	store, err := history.Open(p.flags.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := &history.Run{
		ID:              summary.RunID,
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
		Outcome:         summary.Outcome,
		FileCount:       len(summary.Files),
		Keywords:        summary.Keywords,
		Batches:         summary.Batches,
		DegradedBatches: summary.Stats.Degraded,
		Attempts:        summary.Stats.Attempts,
		BatchSize:       p.flags.BatchSize,
		Concurrency:     p.flags.Concurrency,
		Output:          summary.Output,
	}
	for _, rec := range summary.Files {
		status := workbook.StatusSuccess
		switch {
		case rec.Err != nil:
			status = fmt.Sprintf("%s: %v", workbook.StatusFailed, rec.Err)
			run.FailedFiles++
		case !rec.OK():
			status = "not processed"
		}
		run.Files = append(run.Files, history.FileResult{
			FileName:     filepath.Base(rec.FileName),
			KeywordCount: rec.KeywordCount,
			RowCount:     rec.RowCount(),
			Status:       status,
		})
	}
	return store.Record(ctx, run)
}

func (p *Processor) newProgressBar(keywords int) *progressbar.ProgressBar {
	if keywords == 0 {
		return nil
	}
	return progressbar.NewOptions(keywords,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Translating keywords[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// PrintSummary prints the run summary
func PrintSummary(w io.Writer, s *Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	outcome := s.Outcome
	switch s.Outcome {
	case history.OutcomeCompleted:
		outcome = green(s.Outcome)
	case history.OutcomeStopped:
		outcome = yellow(s.Outcome)
	case history.OutcomeFailed:
		outcome = red(s.Outcome)
	}

	fmt.Fprintln(w, "\n=== Keyword Ocean Summary ===")
	fmt.Fprintf(w, "Run:       %s\n", s.RunID)
	fmt.Fprintf(w, "Outcome:   %s\n", outcome)
	fmt.Fprintf(w, "Duration:  %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(w, "Keywords:  %d in %d batches\n", s.Keywords, s.Batches)
	fmt.Fprintf(w, "Requests:  %d (%d batches translated, %d kept original)\n", s.Stats.Attempts, s.Stats.Succeeded, s.Stats.Degraded)
	if len(s.Stats.DegradedBatch) > 0 {
		fmt.Fprintf(w, "           untranslated batches: %v\n", s.Stats.DegradedBatch)
	}

	fmt.Fprintf(w, "Files:     %d\n", len(s.Files))
	for _, rec := range s.Files {
		name := filepath.Base(rec.FileName)
		switch {
		case rec.OK():
			fmt.Fprintf(w, "  %s %s (%d keywords)\n", green("ok"), name, rec.KeywordCount)
		case rec.Err != nil:
			fmt.Fprintf(w, "  %s %s: %v\n", red("failed"), name, rec.Err)
		default:
			fmt.Fprintf(w, "  %s %s\n", yellow("skipped"), name)
		}
	}

	if s.Output != "" {
		fmt.Fprintf(w, "Output:    %s\n", s.Output)
	}
	for _, path := range s.SplitOutputs {
		fmt.Fprintf(w, "           %s\n", path)
	}
}
