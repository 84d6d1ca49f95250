package pipeline

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"rfpdash/internal"
	"rfpdash/internal/storage"
	"rfpdash/internal/store"
)

type sourceFunc func(ctx context.Context) (internal.RfpResult, error)

func (f sourceFunc) RunPipeline(ctx context.Context) (internal.RfpResult, error) {
	return f(ctx)
}

func testResult() internal.RfpResult {
	return internal.RfpResult{
		RfpID:   "RFP-7",
		Summary: internal.Summary{GrandTotal: 300},
		PricingAnalysis: internal.PricingAnalysis{PricingSummary: []internal.PricingLine{
			{ItemNo: "1", TotalCost: 100},
			{ItemNo: "2", TotalCost: 200},
		}},
		TechnicalAnalysis: internal.TechnicalAnalysis{Items: []internal.TechnicalItem{{ItemIndex: 1}}},
	}
}

func TestRunWritesStoreAndJournal(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	s := store.Open(db, nil)
	runner := NewRunner(sourceFunc(func(context.Context) (internal.RfpResult, error) {
		return testResult(), nil
	}), s, db, nil)

	res, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := uuid.Parse(res.TraceID); err != nil {
		t.Fatalf("trace id is not a uuid: %q", res.TraceID)
	}
	if _, ok := res.Timings["totalMs"]; !ok {
		t.Fatalf("missing totalMs timing: %v", res.Timings)
	}

	held, ok := s.Read()
	if !ok || held.RfpID != "RFP-7" {
		t.Fatalf("expected store to hold RFP-7, got %+v (ok=%v)", held, ok)
	}

	restored, ok := store.Open(db, nil).Read()
	if !ok || restored.RfpID != "RFP-7" {
		t.Fatalf("expected result to be persisted, got %+v", restored)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].TraceID != res.TraceID || runs[0].Items != 1 || runs[0].Priced != 2 || runs[0].RfpID != "RFP-7" {
		t.Fatalf("unexpected run row %+v", runs[0])
	}
}

func TestRunFailureLeavesStoreUntouched(t *testing.T) {
	s := store.Open(nil, nil)
	s.Write(testResult())

	boom := errors.New("backend down")
	runner := NewRunner(sourceFunc(func(context.Context) (internal.RfpResult, error) {
		return internal.RfpResult{}, boom
	}), s, nil, nil)

	notified := 0
	s.Subscribe(func(internal.RfpResult) { notified++ })

	if _, err := runner.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	held, ok := s.Read()
	if !ok || held.RfpID != "RFP-7" {
		t.Fatalf("store changed after failed run: %+v", held)
	}
	if notified != 0 {
		t.Fatalf("expected no notifications, got %d", notified)
	}
}

type journalFunc func(internal.PipelineRun) (int64, error)

func (f journalFunc) InsertRun(run internal.PipelineRun) (int64, error) {
	return f(run)
}

func TestRunRejectsInvalidResult(t *testing.T) {
	s := store.Open(nil, nil)
	if err := s.Write(testResult()); err != nil {
		t.Fatalf("write: %v", err)
	}

	bad := testResult()
	bad.RfpID = "RFP-BAD"
	bad.Summary.GrandTotal = math.Inf(1)
	journaled := 0
	runner := NewRunner(sourceFunc(func(context.Context) (internal.RfpResult, error) {
		return bad, nil
	}), s, journalFunc(func(internal.PipelineRun) (int64, error) {
		journaled++
		return 1, nil
	}), nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected invalid result to be rejected")
	}
	held, _ := s.Read()
	if held.RfpID != "RFP-7" {
		t.Fatalf("store changed after rejected run: %+v", held)
	}
	if journaled != 0 {
		t.Fatalf("rejected run was journaled")
	}
}
