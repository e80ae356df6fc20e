package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"proxylist_generator/proxypool/model"
)

const (
	GeonodeName     = "geonode"
	geonodeEndpoint = "https://proxylist.geonode.com/api/proxy-list?limit=500&page=1&sort_by=lastChecked&sort_type=desc"
)

// flexString 接受 JSON 字符串或数字。geonode 的 port 字段两种形式都出现过。
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type geonodeProxy struct {
	IP             string     `json:"ip"`
	Port           flexString `json:"port"`
	Protocols      []string   `json:"protocols"`
	Country        string     `json:"country"`
	AnonymityLevel string     `json:"anonymityLevel"`
}

type geonodeResponse struct {
	Data *[]geonodeProxy `json:"data"`
}

// GeonodeScraper 实现了 Scraper 接口，通过 geonode 的 JSON API 获取代理。
type GeonodeScraper struct {
	fetcher  Fetcher
	endpoint string
}

// NewGeonodeScraper 创建一个新的 GeonodeScraper 实例。
func NewGeonodeScraper(f Fetcher) *GeonodeScraper {
	return &GeonodeScraper{fetcher: f, endpoint: geonodeEndpoint}
}

func (s *GeonodeScraper) Name() string {
	return GeonodeName
}

func (s *GeonodeScraper) Scrape(ctx context.Context, policy RetryPolicy) model.SourceResult {
	req := Request{URL: s.endpoint, Header: map[string]string{"Accept": "application/json"}}
	return scrape(ctx, s.Name(), s.fetcher, req, policy, s.extract)
}

func (s *GeonodeScraper) extract(body []byte) ([]model.Candidate, error) {
	var resp geonodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.New(`response has no "data" field`)
	}

	candidates := make([]model.Candidate, 0, len(*resp.Data))
	for _, p := range *resp.Data {
		c := model.Candidate{
			Host:      strings.TrimSpace(p.IP),
			Port:      strings.TrimSpace(string(p.Port)),
			Country:   p.Country,
			Anonymity: p.AnonymityLevel,
		}
		if len(p.Protocols) > 0 {
			c.Protocol = p.Protocols[0]
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
