// Package scan runs wallet scans: it fans out across protocols, decodes
// position and pool accounts through the dex registry, prices and scores
// them, and folds everything into one report. Failures inside a protocol
// are recorded and reflected in the confidence score; they never abort
// the scan.
package scan

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"positionscope/internal/chain"
	"positionscope/internal/dex"
	"positionscope/internal/metrics"
	"positionscope/internal/model"
	"positionscope/internal/pricing"
)

const (
	defaultAccountCacheSize = 4096
	defaultAccountCacheTTL  = 30 * time.Second
	defaultPoolCacheSize    = 1024
	defaultPoolCacheTTL     = 5 * time.Minute

	// confidencePenalty is applied once per error category present in a
	// protocol result.
	confidencePenalty = 0.9
)

// Scanner owns the scan pipeline and its caches. All shared state lives on
// the struct; two Scanners never interfere.
type Scanner struct {
	ledger   chain.Ledger
	registry *dex.Registry
	engine   *metrics.Engine
	prices   pricing.Provider
	logger   *zap.Logger

	accountCache *lru.LRU[string, model.RawAccount]
	poolCache    *lru.LRU[string, model.Pool]
}

// Option configures a Scanner.
type Option func(*options)

type options struct {
	logger           *zap.Logger
	accountCacheSize int
	accountCacheTTL  time.Duration
	poolCacheSize    int
	poolCacheTTL     time.Duration
}

// WithLogger sets the scanner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAccountCache overrides the raw account cache size and TTL.
func WithAccountCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		if size > 0 {
			o.accountCacheSize = size
		}
		if ttl > 0 {
			o.accountCacheTTL = ttl
		}
	}
}

// WithPoolCache overrides the decoded pool cache size and TTL.
func WithPoolCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		if size > 0 {
			o.poolCacheSize = size
		}
		if ttl > 0 {
			o.poolCacheTTL = ttl
		}
	}
}

// NewScanner builds a scanner over the given ledger, decoder registry,
// metrics engine, and price provider.
func NewScanner(ledger chain.Ledger, registry *dex.Registry, engine *metrics.Engine, prices pricing.Provider, opts ...Option) *Scanner {
	o := &options{
		logger:           zap.NewNop(),
		accountCacheSize: defaultAccountCacheSize,
		accountCacheTTL:  defaultAccountCacheTTL,
		poolCacheSize:    defaultPoolCacheSize,
		poolCacheTTL:     defaultPoolCacheTTL,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Scanner{
		ledger:       ledger,
		registry:     registry,
		engine:       engine,
		prices:       prices,
		logger:       o.logger,
		accountCache: lru.NewLRU[string, model.RawAccount](o.accountCacheSize, nil, o.accountCacheTTL),
		poolCache:    lru.NewLRU[string, model.Pool](o.poolCacheSize, nil, o.poolCacheTTL),
	}
}

// PurgeCaches drops all cached accounts and pools.
func (s *Scanner) PurgeCaches() {
	s.accountCache.Purge()
	s.poolCache.Purge()
}

// CacheLen reports the current account and pool cache sizes.
func (s *Scanner) CacheLen() (accounts, pools int) {
	return s.accountCache.Len(), s.poolCache.Len()
}

// ScanWallet scans the wallet across the given protocols (all of them when
// the list is empty) and merges the per-protocol results into one report.
// Protocols run concurrently and fail independently; the report always comes
// back, with failures reflected in Errors and Confidence.
func (s *Scanner) ScanWallet(ctx context.Context, wallet string, protocols []model.Protocol) (*model.WalletReport, error) {
	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return nil, fmt.Errorf("wallet %s: %w: %v", wallet, model.ErrInvalidAddress, err)
	}
	if len(protocols) == 0 {
		protocols = model.AllProtocols()
	}

	decoders := s.registry.All(protocols)
	results := make([]model.ProtocolResult, len(decoders))

	g, gctx := errgroup.WithContext(ctx)
	for i, decoder := range decoders {
		i, decoder := i, decoder
		g.Go(func() error {
			results[i] = s.scanProtocol(gctx, wallet, decoder)
			return nil
		})
	}
	// workers never return errors; failures land in their result
	_ = g.Wait()

	report := &model.WalletReport{
		ScanID:      uuid.NewString(),
		Wallet:      wallet,
		GeneratedAt: time.Now().UTC(),
		TotalValue:  decimal.Zero,
		Confidence:  1.0,
	}
	for _, result := range results {
		report.Merge(result)
	}

	s.logger.Info("wallet scan complete",
		zap.String("scan_id", report.ScanID),
		zap.String("wallet", wallet),
		zap.Int("positions", report.TotalPositions),
		zap.String("total_value", report.TotalValue.String()),
		zap.Float64("confidence", report.Confidence),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// scanProtocol runs the full pipeline for one protocol. A ledger failure at
// the position query is a total protocol failure (confidence 0); everything
// downstream degrades per account.
func (s *Scanner) scanProtocol(ctx context.Context, wallet string, decoder dex.Decoder) model.ProtocolResult {
	protocol := decoder.Protocol()
	result := model.ProtocolResult{
		Protocol:   protocol,
		TotalValue: decimal.Zero,
		Confidence: 1.0,
	}

	query, err := decoder.PositionQuery(wallet)
	if err != nil {
		return failedProtocol(result, "position query", err)
	}
	accounts, err := s.ledger.GetProgramAccounts(ctx, decoder.ProgramID(), query)
	if err != nil {
		return failedProtocol(result, "program accounts", err)
	}

	positions := make([]model.Position, 0, len(accounts))
	for _, account := range accounts {
		position, err := decoder.DecodePosition(account.Address, account.Data)
		if err != nil {
			s.logger.Warn("skipping undecodable position",
				zap.String("protocol", string(protocol)),
				zap.String("address", account.Address),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, model.ScanError{
				Protocol: protocol,
				Address:  account.Address,
				Kind:     string(model.KindPosition),
				Category: model.ErrorCategoryDecode,
				Error:    err.Error(),
			})
			continue
		}
		if position.Closed() {
			continue
		}
		positions = append(positions, *position)
	}

	pools, poolErrors := s.resolvePools(ctx, decoder, positions)
	result.Errors = append(result.Errors, poolErrors...)

	feed, err := s.prices.GetPrices(ctx, poolMints(pools))
	if err != nil {
		s.logger.Warn("price feed unavailable, valuing at zero",
			zap.String("protocol", string(protocol)),
			zap.Error(err),
		)
		result.Errors = append(result.Errors, model.ScanError{
			Protocol: protocol,
			Category: model.ErrorCategoryPrice,
			Error:    err.Error(),
		})
		feed = model.NewPriceFeed()
	}

	for _, position := range positions {
		pool := poolFor(pools, position.Pool)
		computed, err := s.engine.Compute(&position, pool, feed)
		if err != nil {
			s.logger.Warn("skipping metrics for position",
				zap.String("protocol", string(protocol)),
				zap.String("address", position.Address),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, model.ScanError{
				Protocol: protocol,
				Address:  position.Address,
				Kind:     string(model.KindPosition),
				Category: model.ErrorCategoryMetrics,
				Error:    err.Error(),
			})
			result.Positions = append(result.Positions, model.ScannedPosition{Position: position})
			result.TotalPositions++
			continue
		}
		result.Positions = append(result.Positions, model.ScannedPosition{
			Position: position,
			Metrics:  computed,
		})
		result.TotalPositions++
		result.TotalValue = result.TotalValue.Add(computed.TotalValue)
	}

	result.Pools = pools
	result.Confidence = confidence(result.Errors)
	return result
}

// resolvePools fetches and decodes the pool account behind every position,
// going through the pool cache first and batching the misses.
func (s *Scanner) resolvePools(ctx context.Context, decoder dex.Decoder, positions []model.Position) ([]model.Pool, []model.ScanError) {
	protocol := decoder.Protocol()
	wanted := make(map[string]bool)
	for _, position := range positions {
		if position.Pool != "" {
			wanted[position.Pool] = true
		}
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	var pools []model.Pool
	var missing []string
	for address := range wanted {
		if pool, ok := s.poolCache.Get(poolCacheKey(protocol, address)); ok {
			pools = append(pools, pool)
			continue
		}
		missing = append(missing, address)
	}
	sort.Strings(missing)

	var scanErrors []model.ScanError
	if len(missing) > 0 {
		accounts, err := s.fetchAccounts(ctx, missing)
		if err != nil {
			scanErrors = append(scanErrors, model.ScanError{
				Protocol: protocol,
				Kind:     string(model.KindPool),
				Category: model.ErrorCategoryRPC,
				Error:    err.Error(),
			})
			accounts = nil
		}
		for _, account := range accounts {
			pool, err := decoder.DecodePool(account.Address, account.Data)
			if err != nil {
				s.logger.Warn("skipping undecodable pool",
					zap.String("protocol", string(protocol)),
					zap.String("address", account.Address),
					zap.Error(err),
				)
				scanErrors = append(scanErrors, model.ScanError{
					Protocol: protocol,
					Address:  account.Address,
					Kind:     string(model.KindPool),
					Category: model.ErrorCategoryDecode,
					Error:    err.Error(),
				})
				continue
			}
			s.poolCache.Add(poolCacheKey(protocol, account.Address), *pool)
			pools = append(pools, *pool)
		}
	}

	sort.Slice(pools, func(i, j int) bool { return pools[i].Address < pools[j].Address })
	return pools, scanErrors
}

// fetchAccounts batches a multi-account fetch through the raw account cache.
func (s *Scanner) fetchAccounts(ctx context.Context, addresses []string) ([]model.RawAccount, error) {
	var cached []model.RawAccount
	var missing []string
	for _, address := range addresses {
		if account, ok := s.accountCache.Get(address); ok {
			cached = append(cached, account)
			continue
		}
		missing = append(missing, address)
	}
	if len(missing) == 0 {
		return cached, nil
	}

	fetched, err := s.ledger.GetAccounts(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, account := range fetched {
		s.accountCache.Add(account.Address, account)
	}
	return append(cached, fetched...), nil
}

// failedProtocol marks a total protocol failure: no positions, confidence 0.
func failedProtocol(result model.ProtocolResult, stage string, err error) model.ProtocolResult {
	result.Errors = append(result.Errors, model.ScanError{
		Protocol: result.Protocol,
		Kind:     stage,
		Category: model.ErrorCategoryRPC,
		Error:    err.Error(),
	})
	result.Confidence = 0
	return result
}

// confidence starts at 1.0 and applies one penalty per distinct error
// category, so a hundred decode failures cost the same as one.
func confidence(scanErrors []model.ScanError) float64 {
	categories := make(map[string]bool)
	for _, scanError := range scanErrors {
		categories[scanError.Category] = true
	}
	score := 1.0
	for range categories {
		score *= confidencePenalty
	}
	return score
}

// poolMints collects every mint a protocol result needs priced.
func poolMints(pools []model.Pool) []string {
	seen := make(map[string]bool)
	var mints []string
	add := func(mint string) {
		if mint == "" || seen[mint] {
			return
		}
		seen[mint] = true
		mints = append(mints, mint)
	}
	for _, pool := range pools {
		add(pool.TokenA.Mint)
		add(pool.TokenB.Mint)
		for _, slot := range pool.Rewards {
			add(slot.Mint)
		}
	}
	sort.Strings(mints)
	return mints
}

func poolFor(pools []model.Pool, address string) *model.Pool {
	for i := range pools {
		if pools[i].Address == address {
			return &pools[i]
		}
	}
	return nil
}

func poolCacheKey(protocol model.Protocol, address string) string {
	return string(protocol) + ":" + address
}
