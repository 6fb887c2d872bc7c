// Package chain is the boundary to the Sui network. It defines the raw
// object model returned by a full node, the reader and executor interfaces
// the rest of the application depends on, and the decoders that turn loosely
// shaped Move objects into typed records.
package chain

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrMalformed          = errors.New("malformed chain object")
	// ErrUncertainOutcome means a transaction was submitted but its
	// finality could not be observed. It may or may not have landed.
	ErrUncertainOutcome  = errors.New("transaction outcome uncertain, refresh to confirm")
	ErrTransactionFailed = errors.New("transaction failed")
)

// ObjectOptions selects which projections a full node includes.
type ObjectOptions struct {
	ShowType    bool `json:"showType,omitempty"`
	ShowContent bool `json:"showContent,omitempty"`
	ShowOwner   bool `json:"showOwner,omitempty"`
	ShowDisplay bool `json:"showDisplay,omitempty"`
}

// ObjectResponse mirrors sui_getObject.
type ObjectResponse struct {
	Data  *ObjectData     `json:"data,omitempty"`
	Error json.RawMessage `json:"error,omitempty"`
}

type ObjectData struct {
	ObjectID string          `json:"objectId"`
	Version  string          `json:"version,omitempty"`
	Digest   string          `json:"digest,omitempty"`
	Type     string          `json:"type,omitempty"`
	Owner    json.RawMessage `json:"owner,omitempty"`
	Display  json.RawMessage `json:"display,omitempty"`
	Content  *MoveContent    `json:"content,omitempty"`
}

// MoveContent is the parsed content of an object. Fields is intentionally
// untyped; only the decoders in this package look inside it.
type MoveContent struct {
	DataType          string         `json:"dataType"`
	Type              string         `json:"type,omitempty"`
	HasPublicTransfer bool           `json:"hasPublicTransfer,omitempty"`
	Fields            map[string]any `json:"fields,omitempty"`
}

// ObjectChange is one entry of a transaction's objectChanges.
type ObjectChange struct {
	Type       string `json:"type"`
	Sender     string `json:"sender,omitempty"`
	ObjectType string `json:"objectType,omitempty"`
	ObjectID   string `json:"objectId,omitempty"`
	Version    string `json:"version,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Effects struct {
	Status ExecutionStatus `json:"status"`
}

// TransactionBlock mirrors sui_getTransactionBlock.
type TransactionBlock struct {
	Digest        string         `json:"digest"`
	Effects       *Effects       `json:"effects,omitempty"`
	ObjectChanges []ObjectChange `json:"objectChanges,omitempty"`
}

// Succeeded reports whether the effects say the transaction executed.
func (t *TransactionBlock) Succeeded() bool {
	return t != nil && (t.Effects == nil || t.Effects.Status.Status == "success")
}

// ObjectReader fetches objects by id.
type ObjectReader interface {
	GetObject(ctx context.Context, id string, opts ObjectOptions) (*ObjectResponse, error)
}

// RoleParams are the inputs of the role creation transaction.
type RoleParams struct {
	BotAddress     string
	Name           string
	Description    string
	ImageURL       string
	AppID          string
	InitialBalance uint64
	// Transfer is sent to BotAddress in the same transaction for gas.
	Transfer uint64
}

// SkillParams are the inputs of the skill creation transaction.
type SkillParams struct {
	Name        string
	Description string
	Endpoint    string
	Doc         string
	GithubRepo  string
	DockerImage string
	Quote       string
	LogURL      string
	PublicKey   string
	Fee         uint64
}

// TxExecutor builds, signs and submits transactions on behalf of the
// connected wallet. Every submit method returns the transaction digest once
// the wallet accepted it; finality must be awaited separately.
type TxExecutor interface {
	// Address is the connected wallet, empty when none is connected.
	Address() string

	UpdateSkills(ctx context.Context, roleID, nftID string, skills []string) (string, error)
	DepositSui(ctx context.Context, roleID string, amount uint64) (string, error)
	WithdrawSui(ctx context.Context, roleID, nftID string, amount uint64) (string, error)
	CreateRole(ctx context.Context, p RoleParams) (string, error)
	CreateSkill(ctx context.Context, p SkillParams) (string, error)

	WaitForTransaction(ctx context.Context, digest string) (*TransactionBlock, error)
}
