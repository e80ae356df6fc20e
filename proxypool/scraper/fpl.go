package scraper

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"proxylist_generator/proxypool/model"
)

const (
	FreeProxyListName     = "free_proxy_list"
	freeProxyListEndpoint = "https://free-proxy-list.net/"

	SocksProxyName     = "socks_proxy"
	socksProxyEndpoint = "https://www.socks-proxy.net/"
)

// fplLayout 描述 free-proxy-list.net 系列站点的表格列位置，-1 表示该列不存在。
type fplLayout struct {
	host, port, code, anonymity, version, https int
	minCells                                    int
}

var (
	// IP | Port | Code | Country | Anonymity | Google | Https | Last Checked
	freeProxyListLayout = fplLayout{host: 0, port: 1, code: 2, anonymity: 4, version: -1, https: 6, minCells: 7}
	// IP | Port | Code | Country | Version | Anonymity | Https | Last Checked
	socksProxyLayout = fplLayout{host: 0, port: 1, code: 2, anonymity: 5, version: 4, https: -1, minCells: 6}
)

// parseFPLTable 扫描 ".fpl-list .table" 表格中的每一行。
func parseFPLTable(body []byte, layout fplLayout) ([]model.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var candidates []model.Candidate
	doc.Find(".fpl-list .table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < layout.minCells {
			return
		}
		cell := func(i int) string {
			if i < 0 {
				return ""
			}
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		c := model.Candidate{
			Host:      cell(layout.host),
			Port:      cell(layout.port),
			Country:   cell(layout.code),
			Anonymity: cell(layout.anonymity),
		}
		switch {
		case layout.version >= 0:
			c.Protocol = cell(layout.version)
		case layout.https >= 0:
			if strings.EqualFold(cell(layout.https), "yes") {
				c.Protocol = "https"
			} else {
				c.Protocol = "http"
			}
		}
		candidates = append(candidates, c)
	})
	return candidates, nil
}

// FreeProxyListScraper 实现了 Scraper 接口，用于抓取 free-proxy-list.net 的 HTTP/HTTPS 代理。
type FreeProxyListScraper struct {
	fetcher  Fetcher
	endpoint string
}

// NewFreeProxyListScraper 创建一个新的 FreeProxyListScraper 实例。
func NewFreeProxyListScraper(f Fetcher) *FreeProxyListScraper {
	return &FreeProxyListScraper{fetcher: f, endpoint: freeProxyListEndpoint}
}

func (s *FreeProxyListScraper) Name() string {
	return FreeProxyListName
}

func (s *FreeProxyListScraper) Scrape(ctx context.Context, policy RetryPolicy) model.SourceResult {
	req := Request{URL: s.endpoint, Header: map[string]string{"Accept": "text/html,application/xhtml+xml"}}
	return scrape(ctx, s.Name(), s.fetcher, req, policy, s.extract)
}

func (s *FreeProxyListScraper) extract(body []byte) ([]model.Candidate, error) {
	return parseFPLTable(body, freeProxyListLayout)
}

// SocksProxyScraper 实现了 Scraper 接口，用于抓取 socks-proxy.net 的 SOCKS4/5 代理。
type SocksProxyScraper struct {
	fetcher  Fetcher
	endpoint string
}

// NewSocksProxyScraper 创建一个新的 SocksProxyScraper 实例。
func NewSocksProxyScraper(f Fetcher) *SocksProxyScraper {
	return &SocksProxyScraper{fetcher: f, endpoint: socksProxyEndpoint}
}

func (s *SocksProxyScraper) Name() string {
	return SocksProxyName
}

func (s *SocksProxyScraper) Scrape(ctx context.Context, policy RetryPolicy) model.SourceResult {
	req := Request{URL: s.endpoint, Header: map[string]string{"Accept": "text/html,application/xhtml+xml"}}
	return scrape(ctx, s.Name(), s.fetcher, req, policy, s.extract)
}

func (s *SocksProxyScraper) extract(body []byte) ([]model.Candidate, error) {
	return parseFPLTable(body, socksProxyLayout)
}
