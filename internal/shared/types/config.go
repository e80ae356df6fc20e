package types

// ConcurrencyMode 控制代理源是依次抓取还是并发抓取。
type ConcurrencyMode string

const (
	Sequential ConcurrencyMode = "sequential"
	Parallel   ConcurrencyMode = "parallel"
)

// ScrapeConf 包含抓取流水线的配置
type ScrapeConf struct {
	TimeoutSeconds      int      `ini:"timeout_seconds"`       // 单次请求超时
	MaxRetries          int      `ini:"max_retries"`           // 每个代理源的最大重试次数
	RetryBackoffSeconds int      `ini:"retry_backoff_seconds"` // 两次重试之间的固定间隔
	ConcurrencyMode     string   `ini:"concurrency_mode"`      // sequential 或 parallel
	ParallelLimit       int      `ini:"parallel_limit"`        // 0 表示不限制
	Sources             []string `ini:"sources" delim:","`     // 代理源顺序即合并顺序
}

// OutputConf 包含输出文件的配置
type OutputConf struct {
	Dir             string `ini:"dir"`
	PerSource       bool   `ini:"per_source"`
	SplitByProtocol bool   `ini:"split_by_protocol"`
	WithMetadata    bool   `ini:"with_metadata"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
	File  string `ini:"file"`
}

// Config 是统一的配置结构体
type Config struct {
	ScrapeConf `ini:"scrape"`
	OutputConf `ini:"output"`
	LogConf    `ini:"log"`
}
