package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"proxylist_generator/internal/shared/config"
	"proxylist_generator/internal/shared/logger"
	"proxylist_generator/proxypool"
	"proxylist_generator/proxypool/normalizer"
	"proxylist_generator/proxypool/scraper"
	"proxylist_generator/proxypool/storage"
)

func main() {
	configPath := flag.String("config", "configs/proxylist.ini", "Path to config file")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	// 1. 加载配置
	cfg := config.Default()
	if err := config.LoadIni(cfg, *configPath); err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", *configPath, err)
		os.Exit(1)
	}
	if *verbose {
		cfg.LogConf.Level = "debug"
	}
	if err := config.Validate(cfg, scraper.Names); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Invalid config: %v\n", err)
		os.Exit(1)
	}

	// 1.1 初始化日志系统
	logFile, err := logger.Init(cfg.LogConf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	// 2. 按配置顺序创建代理源
	deps := scraper.NewDeps(time.Duration(cfg.ScrapeConf.TimeoutSeconds) * time.Second)
	scrapers, err := scraper.NewAll(cfg.ScrapeConf.Sources, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build scrapers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 运行并输出
	m := proxypool.NewManager(proxypool.OptionsFromConfig(cfg.ScrapeConf), normalizer.New(), scrapers...)
	report, runErr := m.Run(ctx)
	if report == nil {
		logger.Error().Err(runErr).Msg("Run aborted")
		os.Exit(1)
	}

	storage.LogSummary(report)
	if errors.Is(runErr, proxypool.ErrAllSourcesFailed) {
		logger.Error().Msg("No proxies collected: every source failed.")
		os.Exit(1)
	}

	if err := storage.NewFileWriter(cfg.OutputConf).Write(report); err != nil {
		logger.Error().Err(err).Msg("Failed to write proxy files")
		os.Exit(1)
	}
	logger.Info().Int("count", len(report.Records)).Str("dir", cfg.OutputConf.Dir).Msg("Program finished.")
}
