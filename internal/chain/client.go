// Package chain wraps the Solana JSON-RPC client behind a small ledger
// interface: single and batched account fetches plus filtered program
// account scans, with rate limiting and retry on top.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"

	"positionscope/internal/model"
)

// maxBatchAccounts is the RPC limit for one getMultipleAccounts call.
const maxBatchAccounts = 100

// Ledger is the read surface the scanner needs. Satisfied by *Client and by
// test fakes.
type Ledger interface {
	GetAccount(ctx context.Context, address string) (model.RawAccount, error)
	GetAccounts(ctx context.Context, addresses []string) ([]model.RawAccount, error)
	GetProgramAccounts(ctx context.Context, programID string, query model.AccountQuery) ([]model.RawAccount, error)
}

// Client wraps the Solana RPC client and provides helper methods.
type Client struct {
	rpcClient *rpc.Client
	limiter   *rate.Limiter

	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimit caps outgoing RPC calls per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetry sets the retry count and base backoff for failed calls.
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(rpcURL string, opts ...ClientOption) *Client {
	c := &Client{
		rpcClient:    rpc.New(rpcURL),
		limiter:      rate.NewLimiter(rate.Inf, 1),
		timeout:      30 * time.Second,
		maxRetries:   3,
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call gates one RPC round trip behind the limiter, retry policy, and
// per-call timeout.
func (c *Client) call(ctx context.Context, fn func(context.Context) error) error {
	return withRetry(ctx, c.maxRetries, c.retryBackoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		return fn(callCtx)
	})
}

// GetAccount fetches one account's raw state.
func (c *Client) GetAccount(ctx context.Context, address string) (model.RawAccount, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return model.RawAccount{}, fmt.Errorf("account %s: %w: %v", address, model.ErrInvalidAddress, err)
	}

	var out *rpc.GetAccountInfoResult
	err = c.call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = c.rpcClient.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
		return callErr
	})
	if err != nil {
		return model.RawAccount{}, fmt.Errorf("getAccountInfo %s: %w: %v", address, model.ErrRPC, err)
	}
	if out == nil || out.Value == nil {
		return model.RawAccount{}, fmt.Errorf("account %s not found: %w", address, model.ErrRPC)
	}
	return rawFromAccount(address, out.Value), nil
}

// GetAccounts fetches a batch of accounts, chunked to the RPC batch limit.
// Accounts that no longer exist are dropped; the rest keep request order.
func (c *Client) GetAccounts(ctx context.Context, addresses []string) ([]model.RawAccount, error) {
	keys := make([]solana.PublicKey, 0, len(addresses))
	for _, address := range addresses {
		key, err := solana.PublicKeyFromBase58(address)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w: %v", address, model.ErrInvalidAddress, err)
		}
		keys = append(keys, key)
	}

	accounts := make([]model.RawAccount, 0, len(addresses))
	for start := 0; start < len(keys); start += maxBatchAccounts {
		end := start + maxBatchAccounts
		if end > len(keys) {
			end = len(keys)
		}

		var out *rpc.GetMultipleAccountsResult
		err := c.call(ctx, func(ctx context.Context) error {
			var callErr error
			out, callErr = c.rpcClient.GetMultipleAccountsWithOpts(ctx, keys[start:end], &rpc.GetMultipleAccountsOpts{
				Encoding:   solana.EncodingBase64,
				Commitment: rpc.CommitmentConfirmed,
			})
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("getMultipleAccounts: %w: %v", model.ErrRPC, err)
		}
		if out == nil {
			return nil, fmt.Errorf("getMultipleAccounts: empty response: %w", model.ErrRPC)
		}
		for i, value := range out.Value {
			if value == nil {
				continue
			}
			accounts = append(accounts, rawFromAccount(addresses[start+i], value))
		}
	}
	return accounts, nil
}

// GetProgramAccounts scans a program's accounts with the query's data-size
// and memcmp filters applied server side.
func (c *Client) GetProgramAccounts(ctx context.Context, programID string, query model.AccountQuery) ([]model.RawAccount, error) {
	program, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w: %v", programID, model.ErrInvalidAddress, err)
	}

	filters := rpcFilters(query)

	var out rpc.GetProgramAccountsResult
	err = c.call(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = c.rpcClient.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
			Filters:    filters,
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("getProgramAccounts %s: %w: %v", programID, model.ErrRPC, err)
	}

	accounts := make([]model.RawAccount, 0, len(out))
	for _, keyed := range out {
		if keyed == nil || keyed.Account == nil {
			continue
		}
		accounts = append(accounts, rawFromAccount(keyed.Pubkey.String(), keyed.Account))
	}
	return accounts, nil
}

// rpcFilters translates an account query into the RPC's filter encoding.
func rpcFilters(query model.AccountQuery) []rpc.RPCFilter {
	filters := make([]rpc.RPCFilter, 0, 1+len(query.Memcmp))
	if query.DataSize > 0 {
		filters = append(filters, rpc.RPCFilter{DataSize: query.DataSize})
	}
	for _, memcmp := range query.Memcmp {
		filters = append(filters, rpc.RPCFilter{
			Memcmp: &rpc.RPCFilterMemcmp{
				Offset: memcmp.Offset,
				Bytes:  solana.Base58(memcmp.Bytes),
			},
		})
	}
	return filters
}

func rawFromAccount(address string, account *rpc.Account) model.RawAccount {
	raw := model.RawAccount{
		Address:    address,
		Owner:      account.Owner.String(),
		Lamports:   account.Lamports,
		Executable: account.Executable,
	}
	if account.Data != nil {
		raw.Data = account.Data.GetBinary()
	}
	return raw
}
