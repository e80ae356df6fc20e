package scraper

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"proxylist_generator/proxypool/model"
)

const (
	ProxydbName     = "proxydb"
	proxydbEndpoint = "https://proxydb.net/?protocol=http&protocol=https&protocol=socks4&protocol=socks5"
)

// ProxydbScraper 实现了 Scraper 接口，用于抓取 proxydb.net 的免费代理。
type ProxydbScraper struct {
	fetcher  Fetcher
	endpoint string
}

// NewProxydbScraper 创建一个新的 ProxydbScraper 实例。
func NewProxydbScraper(f Fetcher) *ProxydbScraper {
	return &ProxydbScraper{fetcher: f, endpoint: proxydbEndpoint}
}

// Name 返回抓取器的名称。
func (s *ProxydbScraper) Name() string {
	return ProxydbName
}

// Scrape 执行抓取操作。
func (s *ProxydbScraper) Scrape(ctx context.Context, policy RetryPolicy) model.SourceResult {
	return scrape(ctx, s.Name(), s.fetcher, Request{URL: s.endpoint}, policy, s.extract)
}

func (s *ProxydbScraper) extract(body []byte) ([]model.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var candidates []model.Candidate
	doc.Find("tbody tr").Each(func(_ int, sel *goquery.Selection) {
		cells := sel.Find("td")
		// IP 和端口都包在 <a> 里
		ip := strings.TrimSpace(cells.Eq(0).Find("a").Text())
		port := strings.TrimSpace(cells.Eq(1).Find("a").Text())
		if ip == "" && port == "" {
			return
		}

		candidates = append(candidates, model.Candidate{
			Host:     ip,
			Port:     port,
			Protocol: strings.TrimSpace(cells.Eq(2).Text()),
		})
	})
	return candidates, nil
}
