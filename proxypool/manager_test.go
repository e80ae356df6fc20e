package proxypool

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"proxylist_generator/internal/shared/types"
	"proxylist_generator/proxypool/model"
	"proxylist_generator/proxypool/scraper"
)

// mockScraper returns a canned SourceResult.
type mockScraper struct {
	name       string
	status     model.SourceStatus
	candidates []model.Candidate
	delay      time.Duration
	panics     bool
	calls      int32
}

func (m *mockScraper) Name() string { return m.name }

func (m *mockScraper) Scrape(ctx context.Context, policy scraper.RetryPolicy) model.SourceResult {
	atomic.AddInt32(&m.calls, 1)
	if m.panics {
		panic("mock scraper panic")
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	res := model.SourceResult{Source: m.name, Status: m.status, Candidates: m.candidates, Attempts: 1}
	if m.status.Failed() {
		res.Err = errors.New("mock failure")
	}
	return res
}

func ok(name string, candidates ...model.Candidate) *mockScraper {
	return &mockScraper{name: name, status: model.StatusOK, candidates: candidates}
}

func failed(name string, status model.SourceStatus) *mockScraper {
	return &mockScraper{name: name, status: status}
}

func parallel() Options   { return Options{Mode: types.Parallel} }
func sequential() Options { return Options{Mode: types.Sequential} }

func TestRun_ExampleMerge(t *testing.T) {
	for _, opts := range []Options{sequential(), parallel()} {
		m := NewManager(opts, nil,
			ok("A", model.Candidate{Host: "10.0.0.1", Port: "8080", Protocol: "http"}),
			ok("B",
				model.Candidate{Host: "10.0.0.1", Port: "8080", Protocol: "https"},
				model.Candidate{Host: "10.0.0.2", Port: "3128", Protocol: ""},
			),
		)

		report, err := m.Run(context.Background())
		if err != nil {
			t.Fatalf("Run() returned an error in %s mode: %v", opts.Mode, err)
		}
		if len(report.Records) != 2 {
			t.Fatalf("Expected 2 records in %s mode, but got %d", opts.Mode, len(report.Records))
		}
		first, second := report.Records[0], report.Records[1]
		if first.Address() != "10.0.0.1:8080" || first.Protocol != model.ProtocolHTTP || !reflect.DeepEqual(first.Sources, []string{"A", "B"}) {
			t.Errorf("Unexpected first record: %+v", first)
		}
		if second.Address() != "10.0.0.2:3128" || second.Protocol != model.ProtocolUnknown || !reflect.DeepEqual(second.Sources, []string{"B"}) {
			t.Errorf("Unexpected second record: %+v", second)
		}
		if report.Status != model.RunOK {
			t.Errorf("Expected run status ok, but got %s", report.Status)
		}
		if report.RunID == "" {
			t.Error("Expected a run ID, but got an empty string")
		}
	}
}

func TestRun_PartialFailure(t *testing.T) {
	m := NewManager(parallel(), nil,
		failed("down", model.StatusFetchFailed),
		ok("B", model.Candidate{Host: "10.0.0.1", Port: "80"}),
		ok("C", model.Candidate{Host: "10.0.0.2", Port: "80"}),
	)

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned an error: %v", err)
	}
	if report.Status != model.RunPartial {
		t.Errorf("Expected run status partial, but got %s", report.Status)
	}
	if len(report.Records) != 2 {
		t.Errorf("Expected the union of 2 records, but got %d", len(report.Records))
	}
	if len(report.Results) != 3 {
		t.Fatalf("Expected 3 source results, but got %d", len(report.Results))
	}
	if len(report.Failed()) != 1 || report.Failed()[0].Source != "down" {
		t.Errorf("Expected exactly one failed source 'down', but got %+v", report.Failed())
	}
	for i, name := range []string{"down", "B", "C"} {
		if report.Results[i].Source != name {
			t.Errorf("Expected result %d to be %q, but got %q", i, name, report.Results[i].Source)
		}
	}
}

func TestRun_AllFailed(t *testing.T) {
	m := NewManager(parallel(), nil,
		failed("a", model.StatusFetchFailed),
		failed("b", model.StatusParseFailed),
	)

	report, err := m.Run(context.Background())
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Fatalf("Expected ErrAllSourcesFailed, but got %v", err)
	}
	if report == nil {
		t.Fatal("Expected a terminal report, but got nil")
	}
	if report.Status != model.RunAllFailed {
		t.Errorf("Expected run status all_failed, but got %s", report.Status)
	}
	if report.Records == nil || len(report.Records) != 0 {
		t.Errorf("Expected an empty final list, but got %v", report.Records)
	}
}

func TestRun_EmptySourceIsNotAFailure(t *testing.T) {
	m := NewManager(sequential(), nil,
		failed("a", model.StatusFetchFailed),
		&mockScraper{name: "b", status: model.StatusEmpty},
	)

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error when a source is merely empty, but got %v", err)
	}
	if report.Status != model.RunPartial {
		t.Errorf("Expected run status partial, but got %s", report.Status)
	}
}

func TestRun_RejectedAreCounted(t *testing.T) {
	m := NewManager(sequential(), nil, ok("A",
		model.Candidate{Host: "999.999.999.999", Port: "8080"},
		model.Candidate{Host: "10.0.0.1", Port: "70000"},
		model.Candidate{Host: "10.0.0.1", Port: "8080"},
	))

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned an error: %v", err)
	}
	if report.Results[0].Rejected != 2 {
		t.Errorf("Expected 2 rejected candidates, but got %d", report.Results[0].Rejected)
	}
	if report.Rejected() != 2 {
		t.Errorf("Expected report total of 2 rejected, but got %d", report.Rejected())
	}
	if len(report.Records) != 1 || report.Records[0].Address() != "10.0.0.1:8080" {
		t.Errorf("Expected only 10.0.0.1:8080 in the final list, but got %+v", report.Records)
	}
}

func TestRun_PanickingScraperIsIsolated(t *testing.T) {
	m := NewManager(parallel(), nil,
		&mockScraper{name: "boom", panics: true},
		ok("fine", model.Candidate{Host: "10.0.0.1", Port: "80"}),
	)

	report, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned an error: %v", err)
	}
	if report.Results[0].Status != model.StatusParseFailed {
		t.Errorf("Expected panicking scraper to be PARSE_FAILED, but got %s", report.Results[0].Status)
	}
	if len(report.Records) != 1 {
		t.Errorf("Expected 1 record from the healthy scraper, but got %d", len(report.Records))
	}
}

func TestRun_OrderIndependentOfCompletion(t *testing.T) {
	slow := ok("slow", model.Candidate{Host: "10.0.0.1", Port: "80", Protocol: "socks5"})
	slow.delay = 50 * time.Millisecond
	fast := ok("fast", model.Candidate{Host: "10.0.0.1", Port: "80", Protocol: "http"}, model.Candidate{Host: "10.0.0.2", Port: "80"})

	report, err := NewManager(parallel(), nil, slow, fast).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned an error: %v", err)
	}
	if report.Records[0].Protocol != model.ProtocolSOCKS5 {
		t.Errorf("Expected metadata of the first configured source, but got %s", report.Records[0].Protocol)
	}
	if !reflect.DeepEqual(report.Records[0].Sources, []string{"slow", "fast"}) {
		t.Errorf("Expected provenance in configured order, but got %v", report.Records[0].Sources)
	}
}

func TestRun_ParallelLimit(t *testing.T) {
	opts := Options{Mode: types.Parallel, ParallelLimit: 1}
	var scrapers []scraper.Scraper
	for _, name := range []string{"a", "b", "c"} {
		scrapers = append(scrapers, ok(name, model.Candidate{Host: "10.0.0.1", Port: "80"}))
	}

	report, err := NewManager(opts, nil, scrapers...).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() returned an error: %v", err)
	}
	if len(report.Records) != 1 || len(report.Records[0].Sources) != 3 {
		t.Errorf("Expected one record reported by 3 sources, but got %+v", report.Records)
	}
}

func TestRun_NoScrapers(t *testing.T) {
	if _, err := NewManager(parallel(), nil).Run(context.Background()); err == nil {
		t.Error("Expected an error with no scrapers, but got nil")
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(types.ScrapeConf{
		MaxRetries:          4,
		RetryBackoffSeconds: 3,
		ConcurrencyMode:     "sequential",
		ParallelLimit:       2,
	})
	if opts.Mode != types.Sequential || opts.ParallelLimit != 2 {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if opts.Policy.MaxRetries != 4 || opts.Policy.Backoff != 3*time.Second {
		t.Errorf("Unexpected retry policy: %+v", opts.Policy)
	}
}
