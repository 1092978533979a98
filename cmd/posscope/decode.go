package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"positionscope/internal/config"
	"positionscope/internal/dex"
	"positionscope/internal/model"
)

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	protocol, err := model.ParseProtocol(cfg.Protocol)
	if err != nil {
		return err
	}
	kind := model.AccountKind(cfg.Kind)
	switch kind {
	case model.KindPool, model.KindPosition, model.KindCustody:
	default:
		return fmt.Errorf("unknown account kind: %s", cfg.Kind)
	}

	encoded := cfg.Data
	if encoded == "" {
		if cfg.In == "" {
			return fmt.Errorf("either --data or --in is required")
		}
		raw, err := os.ReadFile(cfg.In)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		encoded = string(raw)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return fmt.Errorf("decode base64: %w", err)
	}

	logger.Debug("decoding account",
		zap.String("protocol", string(protocol)),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(data)),
	)

	record, err := dex.NewRegistry().DecodeAccount(protocol, kind, "", data)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
