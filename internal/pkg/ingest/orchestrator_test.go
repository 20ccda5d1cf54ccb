package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"saber/client/store"
	"saber/config"
	"saber/internal/pkg/model"
	"saber/internal/pkg/parse"
)

var testColumns = []string{
	"JobID", "JobName", "UserName", "UserGroup", "Queue", "JobStatus",
	"Nodes", "Cores", "Memory", "RunTimeSeconds", "ElapseLimiteSecond",
	"QueDateYear", "QueDateMonth", "QueDateDay",
	"QueDateHour", "QueDateMinute", "QueDateSecond",
	"StartDateYear", "StartDateMonth", "StartDateDay",
	"StartDateHour", "StartDateMinute", "StartDateSecond",
}

// logLine renders one well-formed accounting record starting 2025-07-14 09:30 UTC.
func logLine(jobID, user, group, queue string, nodes, cores, runtime int) string {
	return fmt.Sprintf("%s batch %s %s %s EXT %d %d 64gb (%d) (86400) 2025 7 14 8 0 0 2025 7 14 9 30 0\n",
		jobID, user, group, queue, nodes, cores, runtime)
}

type testEnv struct {
	store *store.Client
	orch  *Orchestrator
	dir   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tmp := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(config.Store{
		Driver:       "sqlite",
		Path:         filepath.Join(tmp, "accounting.db"),
		MaxOpenConns: 1,
	}, logger)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	schema, err := parse.NewSchema(config.LogSchema{Columns: testColumns})
	if err != nil {
		t.Fatalf("build schema: %v", err)
	}

	logDir := filepath.Join(tmp, "logs")
	if err := os.Mkdir(logDir, 0o755); err != nil {
		t.Fatal(err)
	}

	orch := New(st, schema, Options{
		Dir:             logDir,
		Pattern:         "*.out",
		Workers:         1,
		FallbackWallet:  "unassigned",
		MaxMappingDepth: 16,
	}, logger)
	return &testEnv{store: st, orch: orch, dir: logDir}
}

func (e *testEnv) writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (e *testEnv) addEdge(t *testing.T, sk, src, tk, tgt string, prio int) {
	t.Helper()
	err := e.store.CreateMappingEdge(context.Background(), &model.MappingEdge{
		SourceKind: sk, Source: src, TargetKind: tk, Target: tgt, Priority: prio,
	})
	if err != nil {
		t.Fatalf("create edge %s:%s -> %s:%s: %v", sk, src, tk, tgt, err)
	}
}

func (e *testEnv) quotaConsumed(t *testing.T, wallet, class string) float64 {
	t.Helper()
	q, err := e.store.GetQuota(context.Background(), wallet, class, "2025-07")
	if err != nil {
		t.Fatalf("GetQuota %s/%s: %v", wallet, class, err)
	}
	if q == nil {
		return 0
	}
	return q.ConsumedHours
}

func TestIngest_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addEdge(t, model.KindUser, "bob", model.KindWallet, "ai_lab", 0)
	env.addEdge(t, model.KindGroup, "fluid", model.KindWallet, "cfd", 0)

	env.writeFile(t, "250714.out",
		logLine("1001", "alice", "fluid", "cpu-batch", 4, 16, 7200)+ // 4 nodes * 2h = 8 node-hours -> cfd
			logLine("1002", "bob", "mllab", "gpu-a100", 1, 10, 5400)+ // 10 cores * 1.5h = 15 core-hours -> ai_lab
			logLine("1003", "carol", "unknown", "cpu-batch", 2, 8, 3600)+ // unmapped -> fallback
			"this line is garbage\n")

	rep, err := env.orch.Ingest(ctx)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rep.FilesScanned != 1 || rep.FilesProcessed != 1 || rep.FilesFailed != 0 {
		t.Fatalf("unexpected file counts: %+v", rep)
	}
	if rep.RecordsIngested != 3 || rep.MalformedRecords != 1 {
		t.Errorf("expected 3 records and 1 malformed, got %+v", rep)
	}
	if rep.AttributionGaps != 1 || rep.GapsByReason["unmapped"] != 1 {
		t.Errorf("expected one unmapped attribution gap, got %+v", rep)
	}

	// Persisted rows carry the resolved wallet and normalized billing.
	_, total, err := env.store.GetJobsPaged(ctx, store.JobFilter{}, 0, 0)
	if err != nil || total != 3 {
		t.Fatalf("expected 3 job rows, got %d err=%v", total, err)
	}
	gpuJobs, _, err := env.store.GetJobsPaged(ctx, store.JobFilter{WalletName: "ai_lab"}, 0, 0)
	if err != nil || len(gpuJobs) != 1 {
		t.Fatalf("expected 1 ai_lab job, got %d err=%v", len(gpuJobs), err)
	}
	if gpuJobs[0].ResourceType != model.ResourceGPU || gpuJobs[0].BilledHours != 15 {
		t.Errorf("gpu job billing wrong: %+v", gpuJobs[0])
	}
	if gpuJobs[0].Period != "2025-07" {
		t.Errorf("expected period 2025-07, got %s", gpuJobs[0].Period)
	}

	// Wallets were auto-created, including the fallback.
	for _, name := range []string{"cfd", "ai_lab", "unassigned"} {
		w, err := env.store.GetWalletByName(ctx, name)
		if err != nil || w == nil {
			t.Errorf("wallet %q should exist, got %v err=%v", name, w, err)
		}
	}

	// Quota consumption per (wallet, resource class, period).
	if got := env.quotaConsumed(t, "cfd", model.ResourceCPU); got != 8 {
		t.Errorf("cfd CPU consumed expected 8, got %v", got)
	}
	if got := env.quotaConsumed(t, "ai_lab", model.ResourceGPU); got != 15 {
		t.Errorf("ai_lab GPU consumed expected 15, got %v", got)
	}
	if got := env.quotaConsumed(t, "unassigned", model.ResourceCPU); got != 2 {
		t.Errorf("unassigned CPU consumed expected 2, got %v", got)
	}
}

func TestIngest_RerunIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addEdge(t, model.KindGroup, "fluid", model.KindWallet, "cfd", 0)
	env.writeFile(t, "250714.out", logLine("1001", "alice", "fluid", "cpu-batch", 4, 16, 7200))

	if _, err := env.orch.Ingest(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	rep, err := env.orch.Ingest(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.FilesSkipped != 1 || rep.FilesProcessed != 0 || rep.RecordsIngested != 0 {
		t.Fatalf("second run over unchanged directory must be a no-op, got %+v", rep)
	}

	_, total, err := env.store.GetJobsPaged(ctx, store.JobFilter{}, 0, 0)
	if err != nil || total != 1 {
		t.Errorf("job count changed on rerun: %d err=%v", total, err)
	}
	if got := env.quotaConsumed(t, "cfd", model.ResourceCPU); got != 8 {
		t.Errorf("quota double-counted on rerun: %v", got)
	}
}

func TestIngest_ChangedContentIsNewLedgerEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addEdge(t, model.KindGroup, "fluid", model.KindWallet, "cfd", 0)

	env.writeFile(t, "250714.out", logLine("1001", "alice", "fluid", "cpu-batch", 4, 16, 7200))
	if _, err := env.orch.Ingest(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A rewritten file has a new checksum and is ingested in full again;
	// earlier records stay attributed under the old checksum.
	env.writeFile(t, "250714.out",
		logLine("1001", "alice", "fluid", "cpu-batch", 4, 16, 7200)+
			logLine("1004", "dave", "fluid", "cpu-batch", 1, 4, 3600))
	rep, err := env.orch.Ingest(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.FilesProcessed != 1 || rep.RecordsIngested != 2 {
		t.Fatalf("changed file must be reprocessed, got %+v", rep)
	}

	_, total, err := env.store.GetJobsPaged(ctx, store.JobFilter{}, 0, 0)
	if err != nil || total != 3 {
		t.Errorf("expected 1 + 2 job rows across both checksums, got %d err=%v", total, err)
	}
	if got := env.quotaConsumed(t, "cfd", model.ResourceCPU); got != 17 {
		t.Errorf("cfd CPU consumed expected 8+8+1=17, got %v", got)
	}

	entries, err := env.store.GetProcessedFiles(ctx)
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d err=%v", len(entries), err)
	}
	if entries[0].Checksum == entries[1].Checksum {
		t.Error("ledger entries should differ by checksum")
	}
}

func TestIngest_MalformedFileStillEntersLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addEdge(t, model.KindGroup, "fluid", model.KindWallet, "cfd", 0)

	env.writeFile(t, "250714.out",
		logLine("1001", "alice", "fluid", "cpu-batch", 4, 16, 7200)+
			"short line\n"+
			logLine("1002", "alice", "fluid", "cpu-batch", 1, 4, 0)) // zero elapsed is malformed

	rep, err := env.orch.Ingest(ctx)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rep.FilesProcessed != 1 || rep.RecordsIngested != 1 || rep.MalformedRecords != 2 {
		t.Fatalf("expected 1 record, 2 malformed, file processed, got %+v", rep)
	}

	done, err := env.store.IsFileProcessed(ctx, "250714.out", mustChecksum(t, filepath.Join(env.dir, "250714.out")))
	if err != nil || !done {
		t.Errorf("file with malformed lines must still enter the ledger, got %v err=%v", done, err)
	}
}

func TestIngestFile_SingleFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.writeFile(t, "250714.out", logLine("1001", "alice", "fluid", "cpu-batch", 4, 16, 7200))
	env.writeFile(t, "250715.out", logLine("2001", "bob", "fluid", "cpu-batch", 1, 4, 3600))

	rep, err := env.orch.IngestFile(ctx, "250715.out")
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if rep.FilesScanned != 1 || rep.FilesProcessed != 1 || rep.RecordsIngested != 1 {
		t.Fatalf("expected only the named file ingested, got %+v", rep)
	}
	_, total, err := env.store.GetJobsPaged(ctx, store.JobFilter{}, 0, 0)
	if err != nil || total != 1 {
		t.Errorf("expected 1 job row, got %d err=%v", total, err)
	}

	if _, err := env.orch.IngestFile(ctx, "missing.out"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileChecksum_ContentAddressed(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.out")
	b := filepath.Join(dir, "b.out")
	if err := os.WriteFile(a, []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}

	sa := mustChecksum(t, a)
	sb := mustChecksum(t, b)
	if sa != sb {
		t.Error("identical content must hash identically regardless of name")
	}
	if len(sa) != 64 {
		t.Errorf("expected hex sha256, got %q", sa)
	}

	if err := os.WriteFile(b, []byte("same content "), 0o644); err != nil {
		t.Fatal(err)
	}
	if mustChecksum(t, b) == sa {
		t.Error("changed content must change the checksum")
	}
}

func mustChecksum(t *testing.T, path string) string {
	t.Helper()
	sum, err := FileChecksum(path)
	if err != nil {
		t.Fatalf("FileChecksum(%s): %v", path, err)
	}
	return sum
}
