package scraper

import (
	"context"
	"regexp"

	"proxylist_generator/proxypool/model"
)

const (
	SpysMeName     = "spys_me"
	spysMeEndpoint = "https://spys.me/proxy.txt"
)

// spys.me 每行形如 "1.2.3.4:8080 US-H-S +"：国家代码、匿名级别 (N/A/H)、
// 可选的 "!" 以及表示支持 SSL 的 "-S"。
var spysMeLine = regexp.MustCompile(`(?m)([0-9]+(?:\.[0-9]+){3}):([0-9]+)(?:[ \t]+([A-Z]{2})-([NAH])!?(-S)?)?`)

// SpysMeScraper 实现了 Scraper 接口，用于抓取 spys.me 的纯文本代理列表。
type SpysMeScraper struct {
	fetcher  Fetcher
	endpoint string
}

// NewSpysMeScraper 创建一个新的 SpysMeScraper 实例。
func NewSpysMeScraper(f Fetcher) *SpysMeScraper {
	return &SpysMeScraper{fetcher: f, endpoint: spysMeEndpoint}
}

// Name 返回抓取器的名称。
func (s *SpysMeScraper) Name() string {
	return SpysMeName
}

// Scrape 执行抓取操作。
func (s *SpysMeScraper) Scrape(ctx context.Context, policy RetryPolicy) model.SourceResult {
	return scrape(ctx, s.Name(), s.fetcher, Request{URL: s.endpoint}, policy, s.extract)
}

func (s *SpysMeScraper) extract(body []byte) ([]model.Candidate, error) {
	var candidates []model.Candidate
	for _, m := range spysMeLine.FindAllSubmatch(body, -1) {
		c := model.Candidate{
			Host:      string(m[1]),
			Port:      string(m[2]),
			Country:   string(m[3]),
			Anonymity: string(m[4]),
		}
		if len(m[3]) > 0 {
			// 列表中的都是 HTTP 代理，"-S" 表示同时支持 HTTPS。
			c.Protocol = "http"
			if len(m[5]) > 0 {
				c.Protocol = "https"
			}
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
