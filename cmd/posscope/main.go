package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"positionscope/internal/chain"
	"positionscope/internal/config"
	"positionscope/internal/dex"
	"positionscope/internal/metrics"
	"positionscope/internal/model"
	"positionscope/internal/pricing"
	"positionscope/internal/scan"
	"positionscope/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "posscope",
		Short:        "Solana DeFi position scanner",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a wallet's positions across protocols",
		RunE:  runScan,
	}

	scanCmd.Flags().String("rpc", "", "Solana RPC URL")
	scanCmd.Flags().String("wallet", "", "wallet address to scan")
	scanCmd.Flags().StringSlice("protocol", nil, "protocols to scan (comma-separated, default all)")
	scanCmd.Flags().Duration("timeout", 30*time.Second, "per-RPC-call timeout")
	scanCmd.Flags().Int("max-retries", 3, "maximum retry attempts")
	scanCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	scanCmd.Flags().Float64("rps", 10, "RPC requests per second")
	scanCmd.Flags().Duration("account-cache-ttl", 30*time.Second, "raw account cache TTL")
	scanCmd.Flags().Duration("pool-cache-ttl", 5*time.Minute, "decoded pool cache TTL")
	scanCmd.Flags().String("price", "", "static price table (comma-separated mint=usd)")
	scanCmd.Flags().String("out", "", "output path (empty means stdout)")
	scanCmd.Flags().String("format", "json", "output format (json or jsonl)")
	scanCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(scanCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a single account's raw data",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("protocol", "", "protocol (dlmm, whirlpool, clmm, perp)")
	decodeCmd.Flags().String("kind", "position", "account kind (pool, position, custody)")
	decodeCmd.Flags().String("in", "", "file containing base64 account data")
	decodeCmd.Flags().String("data", "", "inline base64 account data")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if cfg.Wallet == "" {
		return fmt.Errorf("wallet is required")
	}

	protocols := make([]model.Protocol, 0, len(cfg.Protocols))
	for _, name := range cfg.Protocols {
		protocol, err := model.ParseProtocol(name)
		if err != nil {
			return err
		}
		protocols = append(protocols, protocol)
	}

	prices := make(map[string]decimal.Decimal, len(cfg.Prices))
	for mint, value := range cfg.Prices {
		price, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("price for %s: %w", mint, err)
		}
		prices[mint] = price
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := chain.NewClient(cfg.RPCURL,
		chain.WithRateLimit(cfg.RPS),
		chain.WithTimeout(cfg.Timeout),
		chain.WithRetry(cfg.MaxRetries, cfg.RetryBackoff),
	)

	scanner := scan.NewScanner(
		client,
		dex.NewRegistry(),
		metrics.NewEngine(metrics.WithLogger(logger)),
		pricing.NewStatic(prices),
		scan.WithLogger(logger),
		scan.WithAccountCache(0, cfg.AccountCacheTTL),
		scan.WithPoolCache(0, cfg.PoolCacheTTL),
	)

	logger.Info("scan start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("wallet", cfg.Wallet),
		zap.Strings("protocols", cfg.Protocols),
		zap.String("out", cfg.Out),
		zap.String("format", cfg.Format),
	)

	report, err := scanner.ScanWallet(ctx, cfg.Wallet, protocols)
	if err != nil {
		return err
	}

	var sink storage.Sink
	switch cfg.Format {
	case "jsonl":
		if cfg.Out == "" {
			return fmt.Errorf("jsonl format requires an output path")
		}
		sink = storage.NewJsonlStorage(cfg.Out)
	case "json":
		sink = storage.NewJSONStorage(cfg.Out, os.Stdout)
	default:
		return fmt.Errorf("unknown format: %s", cfg.Format)
	}

	return sink.PutReport(report)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
