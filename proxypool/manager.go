package proxypool

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"proxylist_generator/internal/shared/logger"
	"proxylist_generator/internal/shared/types"
	"proxylist_generator/proxypool/aggregator"
	"proxylist_generator/proxypool/model"
	"proxylist_generator/proxypool/normalizer"
	"proxylist_generator/proxypool/scraper"
)

// ErrAllSourcesFailed 在每个代理源都是 FETCH_FAILED 或 PARSE_FAILED 时返回，
// 同时返回的 RunReport 的列表为空。
var ErrAllSourcesFailed = errors.New("all proxy sources failed")

// Options 控制一次运行的调度方式。
type Options struct {
	Mode          types.ConcurrencyMode
	ParallelLimit int // 仅在 Parallel 模式下生效，0 表示不限制
	Policy        scraper.RetryPolicy
}

// OptionsFromConfig 根据 [scrape] 配置构造 Options。
func OptionsFromConfig(cfg types.ScrapeConf) Options {
	return Options{
		Mode:          types.ConcurrencyMode(cfg.ConcurrencyMode),
		ParallelLimit: cfg.ParallelLimit,
		Policy: scraper.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Backoff:    time.Duration(cfg.RetryBackoffSeconds) * time.Second,
		},
	}
}

// Manager 是抓取流水线的总控制器：调度所有代理源，规范化，合并并生成报告。
type Manager struct {
	opts       Options
	scrapers   []scraper.Scraper
	normalizer *normalizer.Normalizer
	now        func() time.Time
}

// NewManager 创建并初始化管理器。scrapers 的顺序决定合并顺序。
func NewManager(opts Options, n *normalizer.Normalizer, scrapers ...scraper.Scraper) *Manager {
	if n == nil {
		n = normalizer.New()
	}
	return &Manager{
		opts:       opts,
		scrapers:   scrapers,
		normalizer: n,
		now:        time.Now,
	}
}

// AddScraper 添加一个抓取器到管理器末尾。
func (m *Manager) AddScraper(s scraper.Scraper) {
	m.scrapers = append(m.scrapers, s)
}

// Run 执行一次完整的 抓取 -> 规范化 -> 合并 周期。
// 单个代理源失败不会中断运行；只有全部失败时才返回 ErrAllSourcesFailed。
func (m *Manager) Run(ctx context.Context) (*model.RunReport, error) {
	if len(m.scrapers) == 0 {
		return nil, fmt.Errorf("no proxy sources configured")
	}

	report := &model.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: m.now(),
	}
	l := logger.WithComponent("ProxyPool/Manager").With().Str("run_id", report.RunID).Logger()
	l.Info().Int("sources", len(m.scrapers)).Str("mode", string(m.opts.Mode)).Msg("Starting scrape cycle...")

	// 每个代理源只写自己的槽位，合并在屏障之后单线程进行。
	results := make([]model.SourceResult, len(m.scrapers))
	if m.opts.Mode == types.Sequential {
		for i, s := range m.scrapers {
			results[i] = m.runOne(ctx, s)
		}
	} else {
		var g errgroup.Group
		if m.opts.ParallelLimit > 0 {
			g.SetLimit(m.opts.ParallelLimit)
		}
		for i, s := range m.scrapers {
			g.Go(func() error {
				results[i] = m.runOne(ctx, s)
				return nil
			})
		}
		_ = g.Wait()
	}

	report.Results = results
	report.Records = aggregator.Merge(results)
	report.Status = runStatus(results)
	report.FinishedAt = m.now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)

	if report.Status == model.RunAllFailed {
		report.Records = []*model.ProxyRecord{}
		l.Error().Int("sources", len(results)).Msg("All proxy sources failed.")
		return report, ErrAllSourcesFailed
	}

	l.Info().
		Int("proxies", len(report.Records)).
		Int("rejected", report.Rejected()).
		Int("failed_sources", len(report.Failed())).
		Dur("duration", report.Duration).
		Msg("Scrape cycle finished.")
	return report, nil
}

// runOne 运行单个代理源并规范化它的候选记录。抓取器里任何逃逸的 panic
// 都被记录为 PARSE_FAILED，不会影响其他代理源。
func (m *Manager) runOne(ctx context.Context, s scraper.Scraper) (res model.SourceResult) {
	defer func() {
		if r := recover(); r != nil {
			l := logger.WithComponent("ProxyPool/Manager")
			l.Error().
				Str("source", s.Name()).
				Interface("panic", r).
				Msg("Scraper panicked.")
			res = model.SourceResult{
				Source: s.Name(),
				Status: model.StatusParseFailed,
				Err:    &scraper.ParseError{Source: s.Name(), Err: fmt.Errorf("scraper panicked: %v", r)},
			}
		}
	}()

	res = s.Scrape(ctx, m.opts.Policy)
	res.Source = s.Name()
	if res.Status.Failed() {
		return res
	}

	res.Records, res.Rejected = m.normalizer.NormalizeAll(res.Candidates, res.Source)
	if res.Rejected > 0 {
		l := logger.WithComponent("ProxyPool/Manager")
		l.Debug().
			Str("source", res.Source).
			Int("rejected", res.Rejected).
			Int("accepted", len(res.Records)).
			Msg("Rejected malformed candidates.")
	}
	return res
}

func runStatus(results []model.SourceResult) model.RunStatus {
	failed := 0
	for _, r := range results {
		if r.Status.Failed() {
			failed++
		}
	}
	switch {
	case failed == len(results):
		return model.RunAllFailed
	case failed > 0:
		return model.RunPartial
	default:
		return model.RunOK
	}
}
