package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"proxylist_generator/internal/shared/types"
)

// Default 返回所有选项都填好默认值的配置。
func Default() *types.Config {
	return &types.Config{
		ScrapeConf: types.ScrapeConf{
			TimeoutSeconds:      20,
			MaxRetries:          2,
			RetryBackoffSeconds: 2,
			ConcurrencyMode:     string(types.Parallel),
		},
		OutputConf: types.OutputConf{
			Dir:       "Proxies_List",
			PerSource: true,
		},
		LogConf: types.LogConf{
			Level: "info",
		},
	}
}

// LoadIni 把 ini 文件映射到 cfg 上，文件中没有出现的键保留原值。
// 文件不存在时直接使用 cfg 中已有的值。环境变量优先级最高。
func LoadIni(cfg *types.Config, fileName string) error {
	if _, err := os.Stat(fileName); err == nil {
		iniFile, err := ini.Load(fileName)
		if err != nil {
			return err
		}
		if err := iniFile.MapTo(cfg); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	overrideFromEnvInt(&cfg.ScrapeConf.TimeoutSeconds, "PROXYLIST_TIMEOUT_SECONDS")
	overrideFromEnvInt(&cfg.ScrapeConf.MaxRetries, "PROXYLIST_MAX_RETRIES")
	overrideFromEnvStr(&cfg.ScrapeConf.ConcurrencyMode, "PROXYLIST_CONCURRENCY_MODE")
	overrideFromEnvStr(&cfg.LogConf.Level, "PROXYLIST_LOG_LEVEL")
	return nil
}

// Validate 检查配置是否合法。known 为所有内置代理源的名称；
// 如果 Sources 为空则按 known 的顺序启用全部代理源。
func Validate(cfg *types.Config, known []string) error {
	sc := &cfg.ScrapeConf
	if sc.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", sc.TimeoutSeconds)
	}
	if sc.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", sc.MaxRetries)
	}
	if sc.RetryBackoffSeconds < 0 {
		return fmt.Errorf("retry_backoff_seconds must not be negative, got %d", sc.RetryBackoffSeconds)
	}
	if sc.ParallelLimit < 0 {
		return fmt.Errorf("parallel_limit must not be negative, got %d", sc.ParallelLimit)
	}

	sc.ConcurrencyMode = strings.ToLower(strings.TrimSpace(sc.ConcurrencyMode))
	switch types.ConcurrencyMode(sc.ConcurrencyMode) {
	case types.Sequential, types.Parallel:
	default:
		return fmt.Errorf("unknown concurrency_mode %q", sc.ConcurrencyMode)
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, name := range known {
		knownSet[name] = struct{}{}
	}

	sources := make([]string, 0, len(sc.Sources))
	seen := make(map[string]struct{}, len(sc.Sources))
	for _, name := range sc.Sources {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := knownSet[name]; !ok {
			return fmt.Errorf("unknown source %q", name)
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		sources = append(sources, name)
	}
	if len(sources) == 0 {
		sources = append(sources, known...)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	sc.Sources = sources

	if strings.TrimSpace(cfg.OutputConf.Dir) == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	return nil
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvStr(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}
