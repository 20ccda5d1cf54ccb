// Package ingest drives the accounting pipeline: discover log files, skip
// already-ingested content via the checksum ledger, parse and normalize
// records, attribute them to wallets, and persist results with at-most-once
// accounting per (filename, checksum).
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"saber/client/store"
	"saber/internal/pkg/mapping"
	"saber/internal/pkg/model"
	"saber/internal/pkg/parse"
	"saber/internal/pkg/quota"
)

// Options configures one Orchestrator.
type Options struct {
	Dir             string
	Pattern         string // filename glob, e.g. "*.out"
	Workers         int
	FallbackWallet  string
	MaxMappingDepth int
}

// Report summarizes one ingestion run per error category, so operators can
// reconcile without reading logs.
type Report struct {
	RunID            string         `json:"run_id"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       time.Time      `json:"finished_at"`
	FilesScanned     int            `json:"files_scanned"`
	FilesSkipped     int            `json:"files_skipped"`
	FilesProcessed   int            `json:"files_processed"`
	FilesFailed      int            `json:"files_failed"`
	DuplicateFiles   int            `json:"duplicate_files"`
	RecordsIngested  int            `json:"records_ingested"`
	MalformedRecords int            `json:"malformed_records"`
	AttributionGaps  int            `json:"attribution_gaps"`
	GapsByReason     map[string]int `json:"gaps_by_reason"`
}

// Orchestrator runs the end-to-end ingestion pipeline. A run is a complete,
// restartable unit of work: files are independent, and a file only enters the
// ledger after all of its records are durably persisted in the same
// transaction.
type Orchestrator struct {
	store  *store.Client
	schema *parse.Schema
	opts   Options
	logger *slog.Logger
}

func New(st *store.Client, schema *parse.Schema, opts Options, logger *slog.Logger) *Orchestrator {
	if opts.Pattern == "" {
		opts.Pattern = "*.out"
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.FallbackWallet == "" {
		opts.FallbackWallet = "unassigned"
	}
	return &Orchestrator{store: st, schema: schema, opts: opts, logger: logger}
}

// Ingest scans the log directory once. Re-running over an unchanged
// directory is a no-op: zero new records, zero side effects beyond a run
// summary row.
func (o *Orchestrator) Ingest(ctx context.Context) (*Report, error) {
	files, err := o.discover()
	if err != nil {
		return nil, err
	}
	return o.run(ctx, files)
}

// IngestFile ingests a single named file from the log directory, subject to
// the same ledger checks as a full scan.
func (o *Orchestrator) IngestFile(ctx context.Context, name string) (*Report, error) {
	if _, err := os.Stat(filepath.Join(o.opts.Dir, name)); err != nil {
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return o.run(ctx, []string{name})
}

func (o *Orchestrator) run(ctx context.Context, files []string) (*Report, error) {
	report := &Report{
		RunID:        uuid.NewString(),
		StartedAt:    time.Now().UTC(),
		GapsByReason: make(map[string]int),
	}

	// The mapping graph is one immutable snapshot for the whole run;
	// administrative edits take effect on the next run.
	edges, err := o.store.GetMappingEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mapping graph: %w", err)
	}
	snap := mapping.NewSnapshot(edges, o.opts.MaxMappingDepth)

	if _, err := o.store.EnsureWallet(ctx, o.opts.FallbackWallet); err != nil {
		return nil, fmt.Errorf("ensure fallback wallet: %w", err)
	}

	report.FilesScanned = len(files)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for _, name := range files {
		name := name
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res := o.ingestFile(gctx, snap, name)
			mu.Lock()
			res.mergeInto(report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.AttributionGaps = lo.Sum(lo.Values(report.GapsByReason))
	report.FinishedAt = time.Now().UTC()

	if err := o.store.SaveIngestionRun(ctx, report.toModel()); err != nil {
		o.logger.Error("failed to persist ingestion run", "run_id", report.RunID, "err", err)
	}
	o.logger.Info("ingestion run finished",
		"run_id", report.RunID,
		"scanned", report.FilesScanned,
		"skipped", report.FilesSkipped,
		"processed", report.FilesProcessed,
		"failed", report.FilesFailed,
		"records", report.RecordsIngested,
		"malformed", report.MalformedRecords,
		"gaps", report.AttributionGaps,
	)
	return report, nil
}

// discover lists candidate files in the log directory, sorted by name.
func (o *Orchestrator) discover() ([]string, error) {
	entries, err := os.ReadDir(o.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory %s: %w", o.opts.Dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(o.opts.Pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", o.opts.Pattern, err)
		}
		if ok {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// fileResult is the outcome of one file's unit of work.
type fileResult struct {
	skipped   bool
	processed bool
	failed    bool
	duplicate bool
	records   int
	malformed int
	gaps      map[string]int
}

func (r fileResult) mergeInto(rep *Report) {
	switch {
	case r.skipped:
		rep.FilesSkipped++
	case r.processed:
		rep.FilesProcessed++
	case r.duplicate:
		rep.DuplicateFiles++
	case r.failed:
		rep.FilesFailed++
	}
	rep.RecordsIngested += r.records
	rep.MalformedRecords += r.malformed
	for reason, n := range r.gaps {
		rep.GapsByReason[reason] += n
	}
}

// ingestFile runs the per-file state machine: checksum, ledger lookup,
// parse, attribute, persist, mark processed. Any I/O or storage failure
// leaves the file out of the ledger so the next run retries it.
func (o *Orchestrator) ingestFile(ctx context.Context, snap *mapping.Snapshot, name string) fileResult {
	path := filepath.Join(o.opts.Dir, name)

	sum, err := FileChecksum(path)
	if err != nil {
		o.logger.Error("checksum failed, file will be retried", "file", name, "err", err)
		return fileResult{failed: true}
	}

	done, err := o.store.IsFileProcessed(ctx, name, sum)
	if err != nil {
		o.logger.Error("ledger lookup failed", "file", name, "err", err)
		return fileResult{failed: true}
	}
	if done {
		return fileResult{skipped: true}
	}

	f, err := os.Open(path)
	if err != nil {
		o.logger.Error("open failed, file will be retried", "file", name, "err", err)
		return fileResult{failed: true}
	}
	records := make([]parse.Record, 0, 256)
	r := parse.NewReader(f, o.schema)
	for r.Next() {
		records = append(records, r.Record())
	}
	readErr := r.Err()
	malformed := r.Malformed()
	f.Close()
	if readErr != nil {
		o.logger.Error("read failed, file will be retried", "file", name, "err", readErr)
		return fileResult{failed: true}
	}
	for _, m := range malformed {
		o.logger.Warn("skipping malformed record", "file", name, "err", m)
	}

	jobs, gaps := o.attribute(snap, records, name, sum)

	// One transaction per file: job rows, quota increments and the ledger
	// entry land together or not at all.
	err = o.store.Transaction(func(tx *store.Client) error {
		for _, w := range walletNames(jobs) {
			if _, err := tx.EnsureWallet(ctx, w); err != nil {
				return err
			}
		}
		if err := tx.AppendJobs(ctx, jobs); err != nil {
			return err
		}
		tracker := quota.NewTracker(tx)
		for key, hours := range usageByKey(jobs) {
			if err := tracker.ApplyUsage(ctx, key.wallet, key.class, key.period, hours); err != nil {
				return err
			}
		}
		return tx.RecordProcessedFile(ctx, name, sum, len(jobs))
	})
	if errors.Is(err, store.ErrDuplicateEntry) {
		// A concurrent run won the compare-and-set; our work was rolled
		// back, nothing was double-counted.
		o.logger.Info("file ingested concurrently elsewhere, discarding", "file", name, "checksum", sum)
		return fileResult{duplicate: true}
	}
	if err != nil {
		o.logger.Error("persist failed, file will be retried", "file", name, "err", err)
		return fileResult{failed: true}
	}

	return fileResult{
		processed: true,
		records:   len(jobs),
		malformed: len(malformed),
		gaps:      gaps,
	}
}

// attribute resolves every record to a wallet, routing resolution failures
// to the fallback wallet and tallying attribution gaps by reason.
func (o *Orchestrator) attribute(snap *mapping.Snapshot, records []parse.Record, file, checksum string) (model.Jobs, map[string]int) {
	jobs := make(model.Jobs, 0, len(records))
	gaps := make(map[string]int)
	for _, rec := range records {
		wallet, err := snap.Resolve(rec.UserName, rec.UserGroup)
		if err != nil {
			wallet = o.opts.FallbackWallet
			reason := mapping.GapReason(err)
			gaps[reason]++
			o.logger.Warn("attribution gap, routed to fallback wallet",
				"file", file, "job_id", rec.JobID,
				"user", rec.UserName, "group", rec.UserGroup,
				"reason", reason, "err", err)
		}
		jobs = append(jobs, model.Job{
			JobID:              rec.JobID,
			JobName:            rec.JobName,
			UserName:           rec.UserName,
			UserGroup:          rec.UserGroup,
			Queue:              rec.Queue,
			JobStatus:          rec.JobStatus,
			Nodes:              rec.Nodes,
			Cores:              rec.Cores,
			Memory:             rec.Memory,
			RunTimeSeconds:     rec.RunTimeSeconds,
			QueueTime:          rec.QueueTime,
			StartTime:          rec.StartTime,
			EndTime:            rec.EndTime,
			ElapseLimitSeconds: rec.ElapseLimitSeconds,
			ResourceType:       rec.ResourceType,
			BilledHours:        rec.BilledHours,
			WalletName:         wallet,
			Period:             quota.Period(rec.StartTime),
			SourceFile:         file,
			SourceChecksum:     checksum,
		})
	}
	return jobs, gaps
}

type usageKey struct {
	wallet string
	class  string
	period string
}

// usageByKey pre-aggregates billed hours per quota key so each file issues
// one increment per key instead of one per record.
func usageByKey(jobs model.Jobs) map[usageKey]float64 {
	agg := make(map[usageKey]float64)
	for _, j := range jobs {
		agg[usageKey{j.WalletName, j.ResourceType, j.Period}] += j.BilledHours
	}
	return agg
}

func walletNames(jobs model.Jobs) []string {
	return lo.Uniq(lo.Map(jobs, func(j model.Job, _ int) string { return j.WalletName }))
}

func (r *Report) toModel() *model.IngestionRun {
	return &model.IngestionRun{
		RunID:            r.RunID,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		FilesScanned:     r.FilesScanned,
		FilesSkipped:     r.FilesSkipped,
		FilesProcessed:   r.FilesProcessed,
		FilesFailed:      r.FilesFailed,
		DuplicateFiles:   r.DuplicateFiles,
		RecordsIngested:  r.RecordsIngested,
		MalformedRecords: r.MalformedRecords,
		AttributionGaps:  r.AttributionGaps,
		GapsUnmapped:     r.GapsByReason["unmapped"],
		GapsCycle:        r.GapsByReason["cycle"],
		GapsDepth:        r.GapsByReason["depth"],
		GapsAmbiguous:    r.GapsByReason["ambiguous"],
	}
}
