package scraper

import "fmt"

// FetchError 表示传输层失败：连接错误、超时或非 2xx 响应。
type FetchError struct {
	URL        string
	StatusCode int // 0 表示没有收到响应
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: received non-2xx status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError 表示响应体已成功获取，但抽取规则无法处理它。
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
