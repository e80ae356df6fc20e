package scraper

import (
	"context"
	"fmt"
	"time"

	"proxylist_generator/internal/shared/logger"
	"proxylist_generator/proxypool/model"
)

// Scraper 接口定义了从单个代理源抓取候选代理的行为。
type Scraper interface {
	// Scrape 执行一次抓取（带重试）和抽取，并把结果折叠为 SourceResult。
	// 实现者不得返回 panic 或 error：所有失败都记录在 Status 与 Err 中。
	// 返回的结果中只有 Candidates，规范化由调用方完成。
	Scrape(ctx context.Context, policy RetryPolicy) model.SourceResult

	// Name 返回代理源的名称，用于日志、输出文件和来源记录。
	Name() string
}

// extractFunc 是代理源特定的抽取规则，必须是纯函数。
type extractFunc func(body []byte) ([]model.Candidate, error)

// scrape 是所有代理源共享的 抓取 -> 抽取 -> 分类 流程。
func scrape(ctx context.Context, name string, f Fetcher, req Request, policy RetryPolicy, extract extractFunc) model.SourceResult {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Info().Str("source", name).Str("url", req.URL).Msg("Starting scrape...")

	start := time.Now()
	result := model.SourceResult{Source: name}

	var body []byte
	attempts, err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		b, err := f.Fetch(ctx, req)
		if err != nil {
			l.Warn().Err(err).Str("source", name).Int("attempt", attempt+1).Msg("Failed to fetch page.")
			return err
		}
		body = b
		return nil
	})
	result.Attempts = attempts
	if err != nil {
		result.Status = model.StatusFetchFailed
		result.Err = err
		result.Duration = time.Since(start)
		l.Error().Err(err).Str("source", name).Int("attempts", attempts).Msg("Scrape failed, giving up.")
		return result
	}

	candidates, err := safeExtract(extract, body)
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = model.StatusParseFailed
		result.Err = &ParseError{Source: name, Err: err}
		l.Error().Err(err).Str("source", name).Msg("Failed to parse response body.")
		return result
	}

	result.Candidates = candidates
	if len(candidates) == 0 {
		result.Status = model.StatusEmpty
		l.Warn().Str("source", name).Int("body_bytes", len(body)).Msg("No candidates found, markup may have changed.")
		return result
	}

	result.Status = model.StatusOK
	l.Info().Int("count", len(candidates)).Str("source", name).Msg("Scrape finished.")
	return result
}

// safeExtract 把抽取规则中的 panic 转换为错误。
func safeExtract(extract extractFunc, body []byte) (candidates []model.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			candidates = nil
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	return extract(body)
}

// Deps 是构造代理源所需的传输层。
type Deps struct {
	HTTP  Fetcher
	Colly Fetcher
}

// NewDeps 用同一个超时创建两种传输层。
func NewDeps(timeout time.Duration) Deps {
	return Deps{
		HTTP:  NewHTTPFetcher(timeout),
		Colly: NewCollyFetcher(timeout),
	}
}

// Names 是所有内置代理源的名称，顺序即默认的合并顺序。
var Names = []string{
	SpysMeName,
	FreeProxyListName,
	SocksProxyName,
	ProxydbName,
	GeonodeName,
	KuaidailiName,
}

var builders = map[string]func(Deps) Scraper{
	SpysMeName:        func(d Deps) Scraper { return NewSpysMeScraper(d.HTTP) },
	FreeProxyListName: func(d Deps) Scraper { return NewFreeProxyListScraper(d.HTTP) },
	SocksProxyName:    func(d Deps) Scraper { return NewSocksProxyScraper(d.HTTP) },
	ProxydbName:       func(d Deps) Scraper { return NewProxydbScraper(d.HTTP) },
	GeonodeName:       func(d Deps) Scraper { return NewGeonodeScraper(d.HTTP) },
	KuaidailiName:     func(d Deps) Scraper { return NewKuaidailiScraper(d.Colly) },
}

// New 按名称创建一个内置代理源。
func New(name string, d Deps) (Scraper, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	return build(d), nil
}

// NewAll 按给定顺序创建代理源。
func NewAll(names []string, d Deps) ([]Scraper, error) {
	scrapers := make([]Scraper, 0, len(names))
	for _, name := range names {
		s, err := New(name, d)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, nil
}
