package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
	maxBodySize      = 8 << 20
)

// Request 描述一次固定的抓取请求。
type Request struct {
	URL    string
	Header map[string]string
}

// Fetcher 执行一次网络请求并返回响应体。任何传输层失败都以 *FetchError 返回。
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// HTTPFetcher 使用 net/http 抓取页面，每次请求都有独立的超时。
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher 创建一个新的 HTTPFetcher 实例。
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{},
		timeout: timeout,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, r Request) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: r.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: r.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: r.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: r.URL, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, nil
}

// CollyFetcher 使用 colly 抓取页面。每次调用都从模板 collector 克隆，
// 这样回调不会在多次请求之间累积。
type CollyFetcher struct {
	collector *colly.Collector
}

// NewCollyFetcher 创建一个新的 CollyFetcher 实例。
func NewCollyFetcher(timeout time.Duration) *CollyFetcher {
	c := colly.NewCollector(
		colly.UserAgent(defaultUserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodySize),
	)
	c.SetRequestTimeout(timeout)

	return &CollyFetcher{
		collector: c,
	}
}

func (f *CollyFetcher) Fetch(ctx context.Context, r Request) ([]byte, error) {
	c := f.collector.Clone()
	c.Context = ctx

	var (
		body       []byte
		statusCode int
		reqErr     error
	)

	c.OnRequest(func(req *colly.Request) {
		for k, v := range r.Header {
			req.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(resp *colly.Response) {
		statusCode = resp.StatusCode
		body = resp.Body
	})
	c.OnError(func(resp *colly.Response, err error) {
		if resp != nil {
			statusCode = resp.StatusCode
		}
		reqErr = err
	})

	if err := c.Visit(r.URL); err != nil && reqErr == nil {
		reqErr = err
	}

	if statusCode != 0 && (statusCode < 200 || statusCode > 299) {
		return nil, &FetchError{URL: r.URL, StatusCode: statusCode, Err: reqErr}
	}
	if reqErr != nil {
		return nil, &FetchError{URL: r.URL, Err: reqErr}
	}
	if body == nil {
		return nil, &FetchError{URL: r.URL, Err: errors.New("no response received")}
	}
	return body, nil
}
