package storage

import (
	"fmt"
	"time"

	"proxylist_generator/internal/shared/logger"
	"proxylist_generator/proxypool/model"
)

const summaryTimeFormat = "02/01/2006 - 15:04:05"

// LogSummary 把运行报告以结构化日志的形式输出：每个代理源一行，最后一行是总计。
func LogSummary(report *model.RunReport) {
	l := logger.WithComponent("ProxyPool/Report").With().Str("run_id", report.RunID).Logger()

	for _, res := range report.Results {
		ev := l.Info()
		if res.Status.Failed() {
			ev = l.Warn().Err(res.Err)
		}
		ev.Str("source", res.Source).
			Str("status", string(res.Status)).
			Int("candidates", len(res.Candidates)).
			Int("accepted", len(res.Records)).
			Int("rejected", res.Rejected).
			Int("attempts", res.Attempts).
			Msg("Source result.")
	}

	l.Info().
		Str("status", string(report.Status)).
		Int("proxies", len(report.Records)).
		Int("rejected", report.Rejected()).
		Int("failed_sources", len(report.Failed())).
		Str("start_time", report.StartedAt.Format(summaryTimeFormat)).
		Str("finish_time", report.FinishedAt.Format(summaryTimeFormat)).
		Str("execution_time", FormatDuration(report.Duration)).
		Msg("Run summary.")
}

// FormatDuration renders d as "1d 2h 3m 4s", omitting leading zero units.
// Negative durations are treated as their absolute value.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
