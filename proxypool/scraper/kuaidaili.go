package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"proxylist_generator/proxypool/model"
)

const (
	KuaidailiName     = "kuaidaili"
	kuaidailiEndpoint = "https://www.kuaidaili.com/free/inha/1/"
)

// 页面把代理列表放在一个 JS 变量里。
var fpsListPattern = regexp.MustCompile(`(?s)(var|let|const)\s+fpsList\s*=\s*(\[.*?\]);`)

// tempKuaidailiProxy 定义了用于解析 JS 变量中 JSON 的临时结构体。
type tempKuaidailiProxy struct {
	IP   string     `json:"ip"`
	Port flexString `json:"port"`
}

// KuaidailiScraper 实现了 Scraper 接口，用于抓取 www.kuaidaili.com 的国内高匿代理。
// 它通过 colly 传输层获取页面。
type KuaidailiScraper struct {
	fetcher  Fetcher
	endpoint string
}

// NewKuaidailiScraper 创建一个新的 KuaidailiScraper 实例。
func NewKuaidailiScraper(f Fetcher) *KuaidailiScraper {
	return &KuaidailiScraper{fetcher: f, endpoint: kuaidailiEndpoint}
}

// Name 返回抓取器的名称。
func (s *KuaidailiScraper) Name() string {
	return KuaidailiName
}

// Scrape 执行抓取操作。
func (s *KuaidailiScraper) Scrape(ctx context.Context, policy RetryPolicy) model.SourceResult {
	return scrape(ctx, s.Name(), s.fetcher, Request{URL: s.endpoint}, policy, s.extract)
}

func (s *KuaidailiScraper) extract(body []byte) ([]model.Candidate, error) {
	matches := fpsListPattern.FindSubmatch(body)
	if len(matches) < 3 {
		return nil, errors.New("could not find fpsList variable in response body")
	}

	var tempList []*tempKuaidailiProxy
	if err := json.Unmarshal(matches[2], &tempList); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fpsList JSON: %w", err)
	}

	candidates := make([]model.Candidate, 0, len(tempList))
	for _, p := range tempList {
		if p == nil {
			continue
		}
		// inha 列表全部是国内高匿 HTTP 代理
		candidates = append(candidates, model.Candidate{
			Host:      strings.TrimSpace(p.IP),
			Port:      strings.TrimSpace(string(p.Port)),
			Protocol:  "http",
			Country:   "CN",
			Anonymity: "高匿名",
		})
	}
	return candidates, nil
}
