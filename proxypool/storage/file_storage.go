package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"proxylist_generator/internal/shared/logger"
	"proxylist_generator/internal/shared/types"
	"proxylist_generator/proxypool/model"
)

const (
	delimiter  = "|"
	fileSuffix = "proxies.txt"
	allPrefix  = "all"
)

// Writer 接口定义了运行结果的输出行为。
type Writer interface {
	Write(report *model.RunReport) error
}

// FileWriter 实现了 Writer 接口，把代理列表写成纯文本文件，每行一个代理。
type FileWriter struct {
	cfg types.OutputConf
}

// NewFileWriter 创建一个新的 FileWriter 实例。
func NewFileWriter(cfg types.OutputConf) *FileWriter {
	return &FileWriter{cfg: cfg}
}

// Write 写出 all_proxies.txt，并按配置写出每个代理源和每种协议的文件。
// 它返回第一个写入错误。
func (fw *FileWriter) Write(report *model.RunReport) error {
	l := logger.WithComponent("ProxyPool/Storage")

	if err := os.MkdirAll(fw.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir %s: %w", fw.cfg.Dir, err)
	}

	if err := fw.writeFile(allPrefix, report.Records); err != nil {
		return err
	}

	if fw.cfg.PerSource {
		for _, res := range report.Results {
			var records []*model.ProxyRecord
			for _, p := range report.Records {
				if p.HasSource(res.Source) {
					records = append(records, p)
				}
			}
			if err := fw.writeFile(res.Source, records); err != nil {
				return err
			}
		}
	}

	if fw.cfg.SplitByProtocol {
		byProtocol := make(map[model.Protocol][]*model.ProxyRecord)
		for _, p := range report.Records {
			byProtocol[p.Protocol] = append(byProtocol[p.Protocol], p)
		}
		for _, proto := range model.Protocols {
			if len(byProtocol[proto]) == 0 {
				continue
			}
			if err := fw.writeFile(string(proto), byProtocol[proto]); err != nil {
				return err
			}
		}
	}

	l.Info().Int("count", len(report.Records)).Str("dir", fw.cfg.Dir).Msg("Successfully saved proxies to files.")
	return nil
}

// Path returns the file a given prefix is written to.
func (fw *FileWriter) Path(prefix string) string {
	return filepath.Join(fw.cfg.Dir, prefix+"_"+fileSuffix)
}

func (fw *FileWriter) writeFile(prefix string, records []*model.ProxyRecord) error {
	var sb strings.Builder
	for _, p := range records {
		sb.WriteString(FormatLine(p, fw.cfg.WithMetadata))
		sb.WriteString("\n")
	}

	path := fw.Path(prefix)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	l := logger.WithComponent("ProxyPool/Storage")
	l.Debug().Str("path", path).Int("count", len(records)).Msg("Wrote proxy file.")
	return nil
}

// FormatLine 把代理格式化为一行文本：host:port，
// 可选追加 |protocol|country|anonymity。
func FormatLine(p *model.ProxyRecord, withMetadata bool) string {
	if !withMetadata {
		return p.Address()
	}
	return strings.Join([]string{
		p.Address(),
		string(p.Protocol),
		p.Country,
		string(p.Anonymity),
	}, delimiter)
}
