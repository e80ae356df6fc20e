package model

import (
	"net"
	"strconv"
	"time"
)

// Protocol 是代理源声明的协议，统一为封闭枚举。
type Protocol string

const (
	ProtocolHTTP    Protocol = "http"
	ProtocolHTTPS   Protocol = "https"
	ProtocolSOCKS4  Protocol = "socks4"
	ProtocolSOCKS5  Protocol = "socks5"
	ProtocolUnknown Protocol = "unknown"
)

// Protocols lists every protocol value in a stable order.
var Protocols = []Protocol{ProtocolHTTP, ProtocolHTTPS, ProtocolSOCKS4, ProtocolSOCKS5, ProtocolUnknown}

// Anonymity 是代理的匿名级别。零值表示来源没有提供该信息。
type Anonymity string

const (
	AnonymityNone        Anonymity = ""
	AnonymityTransparent Anonymity = "transparent"
	AnonymityAnonymous   Anonymity = "anonymous"
	AnonymityElite       Anonymity = "elite"
	AnonymityUnknown     Anonymity = "unknown"
)

// Candidate 是从代理源响应中抽取出来的、尚未验证的原始字段。
type Candidate struct {
	Host      string
	Port      string
	Protocol  string
	Country   string
	Anonymity string
}

// ProxyRecord 定义了一个经过规范化的代理，是整个流水线的核心数据结构。
// 身份由 (Host, Port) 决定；其余字段只是尽力而为的元数据。
type ProxyRecord struct {
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Protocol  Protocol  `json:"protocol"`
	Country   string    `json:"country,omitempty"`
	Anonymity Anonymity `json:"anonymity,omitempty"`

	// Sources 记录报告了这个 (host, port) 的来源，按首次出现的顺序排列。
	Sources []string `json:"sources"`
}

// Key returns the identity of the record.
func (p *ProxyRecord) Key() string {
	return p.Address()
}

// Address formats the record as host:port, bracketing IPv6 literals.
func (p *ProxyRecord) Address() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// HasSource reports whether source already appears in the provenance set.
func (p *ProxyRecord) HasSource(source string) bool {
	for _, s := range p.Sources {
		if s == source {
			return true
		}
	}
	return false
}

// AddSource adds source to the provenance set if it is not present yet.
func (p *ProxyRecord) AddSource(source string) {
	if !p.HasSource(source) {
		p.Sources = append(p.Sources, source)
	}
}

// Clone returns a copy that does not share the provenance slice.
func (p *ProxyRecord) Clone() *ProxyRecord {
	c := *p
	c.Sources = append([]string(nil), p.Sources...)
	return &c
}

// SourceStatus 描述一个代理源本次运行的结果。
type SourceStatus string

const (
	StatusOK          SourceStatus = "OK"
	StatusFetchFailed SourceStatus = "FETCH_FAILED"
	StatusParseFailed SourceStatus = "PARSE_FAILED"
	StatusEmpty       SourceStatus = "EMPTY"
)

// Failed reports whether the status counts as a failed source.
func (s SourceStatus) Failed() bool {
	return s == StatusFetchFailed || s == StatusParseFailed
}

// SourceResult 是单个代理源一次抓取的不可变结果。
type SourceResult struct {
	Source     string
	Status     SourceStatus
	Candidates []Candidate
	Records    []*ProxyRecord // 通过规范化的记录，顺序与 Candidates 一致
	Rejected   int
	Attempts   int
	Err        error
	Duration   time.Duration
}

// RunStatus 是整次运行的结果。
type RunStatus string

const (
	RunOK        RunStatus = "ok"
	RunPartial   RunStatus = "partial"
	RunAllFailed RunStatus = "all_failed"
)

// RunReport 是交给输出层的最终结果。
type RunReport struct {
	RunID      string
	Status     RunStatus
	Records    []*ProxyRecord
	Results    []SourceResult
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}

// Rejected returns the number of rejected candidates over all sources.
func (r *RunReport) Rejected() int {
	total := 0
	for _, res := range r.Results {
		total += res.Rejected
	}
	return total
}

// Failed returns the results whose status is a failure.
func (r *RunReport) Failed() []SourceResult {
	var failed []SourceResult
	for _, res := range r.Results {
		if res.Status.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}
