package sui

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/anemonelab/agenthub/core/chain"
)

// TransactionBytes is the unsigned transaction returned by the unsafe_*
// builder methods.
type TransactionBytes struct {
	TxBytes      string          `json:"txBytes"`
	Gas          json.RawMessage `json:"gas,omitempty"`
	InputObjects json.RawMessage `json:"inputObjects,omitempty"`
}

// MoveCall identifies a Move function and its arguments. Arguments use the
// node's JSON encoding: object ids and addresses as strings, u64 as decimal
// strings, vectors as arrays.
type MoveCall struct {
	Package       string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []any
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// BuildMoveCall asks the node to build a move call transaction. The node
// selects the gas coin.
func (c *Client) BuildMoveCall(ctx context.Context, signer string, call MoveCall, gasBudget uint64) (*TransactionBytes, error) {
	typeArgs := call.TypeArguments
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := call.Arguments
	if args == nil {
		args = []any{}
	}
	var out TransactionBytes
	params := []any{signer, call.Package, call.Module, call.Function, typeArgs, args, nil, u64(gasBudget)}
	if err := c.Call(ctx, "unsafe_moveCall", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildSplitCoin builds a transaction splitting amounts off coinID.
func (c *Client) BuildSplitCoin(ctx context.Context, signer, coinID string, amounts []uint64, gasBudget uint64) (*TransactionBytes, error) {
	split := make([]string, 0, len(amounts))
	for _, a := range amounts {
		split = append(split, u64(a))
	}
	var out TransactionBytes
	if err := c.Call(ctx, "unsafe_splitCoin", []any{signer, coinID, split, nil, u64(gasBudget)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildTransferSui builds a transfer of amount from the gas coin coinID.
func (c *Client) BuildTransferSui(ctx context.Context, signer, coinID string, gasBudget uint64, recipient string, amount uint64) (*TransactionBytes, error) {
	var out TransactionBytes
	if err := c.Call(ctx, "unsafe_transferSui", []any{signer, coinID, u64(gasBudget), recipient, u64(amount)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Execute submits signed transaction bytes and waits for local execution.
func (c *Client) Execute(ctx context.Context, txBytes string, signatures []string) (*chain.TransactionBlock, error) {
	var out chain.TransactionBlock
	opts := TxOptions{ShowEffects: true, ShowObjectChanges: true}
	if err := c.Call(ctx, "sui_executeTransactionBlock", []any{txBytes, signatures, opts, "WaitForLocalExecution"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
