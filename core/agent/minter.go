package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anemonelab/agenthub/core/chain"
	"github.com/anemonelab/agenthub/pkg/client"
	"github.com/mudler/xlog"
)

const (
	// DefaultInitialBalance funds a new role with 0.1 SUI.
	DefaultInitialBalance uint64 = 100_000_000
	// DefaultBotTransfer sends 0.01 SUI to the bot address for gas.
	DefaultBotTransfer uint64 = 10_000_000

	RoleType   = "::role_manager::Role"
	BotNFTType = "::bot_nft::BotNFT"
)

var (
	ErrInvalidMint   = errors.New("name, description and logo are required")
	ErrMappingFailed = errors.New("agent minted but the backend mapping failed")
)

// MintBackend provisions agent addresses and stores the resulting mapping.
type MintBackend interface {
	GenerateAgentAddress(ctx context.Context) (*client.AgentAddress, error)
	CreateAgent(ctx context.Context, m client.AgentMapping) error
}

type MintRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	ImageURL    string `json:"image_url" form:"image_url"`
}

type MintResult struct {
	RoleID  string `json:"role_id"`
	NftID   string `json:"nft_id"`
	Address string `json:"address"`
	AppID   string `json:"app_id"`
	CvmID   int64  `json:"cvm_id"`
	Digest  string `json:"digest"`
}

// Minter creates a new agent: an address and CVM from the backend, the role
// and bot NFT on chain, then the backend mapping between them.
type Minter struct {
	backend MintBackend
	tx      chain.TxExecutor

	InitialBalance uint64
	Transfer       uint64
}

func NewMinter(backend MintBackend, tx chain.TxExecutor) *Minter {
	return &Minter{
		backend:        backend,
		tx:             tx,
		InitialBalance: DefaultInitialBalance,
		Transfer:       DefaultBotTransfer,
	}
}

// Mint runs the whole flow. When the chain part succeeded but the mapping
// could not be stored, the result is returned together with
// ErrMappingFailed.
func (m *Minter) Mint(ctx context.Context, req MintRequest) (*MintResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.Name == "" || req.Description == "" || req.ImageURL == "" {
		return nil, ErrInvalidMint
	}
	if m.tx.Address() == "" {
		return nil, chain.ErrWalletNotConnected
	}

	addr, err := m.backend.GenerateAgentAddress(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate agent address: %w", err)
	}

	digest, err := m.tx.CreateRole(ctx, chain.RoleParams{
		BotAddress:     addr.Address,
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		AppID:          addr.AppID,
		InitialBalance: m.InitialBalance,
		Transfer:       m.Transfer,
	})
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	block, err := chain.Confirm(ctx, m.tx, digest)
	if err != nil {
		return nil, err
	}

	res := &MintResult{
		RoleID:  chain.FindCreated(block, RoleType),
		NftID:   chain.FindCreated(block, BotNFTType),
		Address: addr.Address,
		AppID:   addr.AppID,
		CvmID:   addr.CvmID,
		Digest:  digest,
	}
	if res.RoleID == "" || res.NftID == "" {
		return nil, fmt.Errorf("create role %s: role or bot NFT not found in object changes", digest)
	}
	xlog.Info("Agent minted", "role", res.RoleID, "nft", res.NftID, "address", res.Address)

	err = m.backend.CreateAgent(ctx, client.AgentMapping{
		Address: res.Address,
		NftID:   res.NftID,
		RoleID:  res.RoleID,
		CvmID:   res.CvmID,
	})
	if err != nil {
		xlog.Error("Could not store agent mapping", "role", res.RoleID, "error", err)
		return res, fmt.Errorf("%w: %w", ErrMappingFailed, err)
	}
	return res, nil
}
