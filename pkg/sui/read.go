package sui

import (
	"context"
	"errors"
	"time"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/mudler/xlog"
)

// PollInterval is the delay between WaitForTransaction attempts.
var PollInterval = 500 * time.Millisecond

// DefaultWaitTimeout bounds WaitForTransaction when ctx has no deadline.
const DefaultWaitTimeout = 60 * time.Second

// TxOptions selects the projections of a transaction block.
type TxOptions struct {
	ShowInput          bool `json:"showInput,omitempty"`
	ShowEffects        bool `json:"showEffects,omitempty"`
	ShowEvents         bool `json:"showEvents,omitempty"`
	ShowObjectChanges  bool `json:"showObjectChanges,omitempty"`
	ShowBalanceChanges bool `json:"showBalanceChanges,omitempty"`
}

var _ chain.ObjectReader = (*Client)(nil)

// GetObject calls sui_getObject.
func (c *Client) GetObject(ctx context.Context, id string, opts chain.ObjectOptions) (*chain.ObjectResponse, error) {
	var out chain.ObjectResponse
	if err := c.Call(ctx, "sui_getObject", []any{id, opts}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTransactionBlock calls sui_getTransactionBlock with effects and object
// changes.
func (c *Client) GetTransactionBlock(ctx context.Context, digest string) (*chain.TransactionBlock, error) {
	var out chain.TransactionBlock
	opts := TxOptions{ShowEffects: true, ShowObjectChanges: true}
	if err := c.Call(ctx, "sui_getTransactionBlock", []any{digest, opts}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForTransaction polls until the node knows the transaction or ctx is
// done. The returned block may still report a failed execution.
func (c *Client) WaitForTransaction(ctx context.Context, digest string) (*chain.TransactionBlock, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultWaitTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		tx, err := c.GetTransactionBlock(ctx, digest)
		if err == nil {
			return tx, nil
		}
		xlog.Debug("Transaction not available yet", "digest", digest, "error", err)

		select {
		case <-ctx.Done():
			return nil, errors.Join(ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

// Coin is one entry of suix_getCoins.
type Coin struct {
	CoinType     string `json:"coinType"`
	CoinObjectID string `json:"coinObjectId"`
	Version      string `json:"version"`
	Digest       string `json:"digest"`
	Balance      string `json:"balance"`
}

type coinPage struct {
	Data        []Coin  `json:"data"`
	NextCursor  *string `json:"nextCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

// SuiCoinType is the native coin.
const SuiCoinType = "0x2::sui::SUI"

// GetCoins lists every SUI coin owned by owner, following pagination.
func (c *Client) GetCoins(ctx context.Context, owner string) ([]Coin, error) {
	coins := []Coin{}
	var cursor *string
	for {
		var page coinPage
		if err := c.Call(ctx, "suix_getCoins", []any{owner, SuiCoinType, cursor, nil}, &page); err != nil {
			return nil, err
		}
		coins = append(coins, page.Data...)
		if !page.HasNextPage || page.NextCursor == nil {
			return coins, nil
		}
		cursor = page.NextCursor
	}
}
